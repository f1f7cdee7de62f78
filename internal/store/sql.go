package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jeremyjsx/postcast/internal/posts"
)

const (
	postsTable      = "posts"
	colID           = "id"
	colAuthorID     = "author_id"
	colTitle        = "title"
	colBody         = "body"
	colCreatedAt    = "created_at"
	orderNewestFrom = colCreatedAt + " DESC"
	orderIDDesc     = colID + " DESC"
)

var ErrBuildingQuery = errors.New("error building sql-query")

// SQLRepository stores posts in Postgres or SQLite through database/sql.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) Create(ctx context.Context, p posts.Post) (*posts.Post, error) {
	query, args, err := sq.
		Insert(postsTable).
		Columns(colAuthorID, colTitle, colBody, colCreatedAt).
		Values(p.AuthorID, p.Title, p.Body, p.CreatedAt).
		Suffix("RETURNING " + colID).
		PlaceholderFormat(r.dialect.placeholders()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildingQuery, err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&p.ID); err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return &p, nil
}

func (r *SQLRepository) List(ctx context.Context) ([]*posts.Post, error) {
	query, args, err := sq.
		Select(colID, colAuthorID, colTitle, colBody, colCreatedAt).
		From(postsTable).
		OrderBy(orderNewestFrom, orderIDDesc).
		PlaceholderFormat(r.dialect.placeholders()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildingQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select posts: %w", err)
	}
	defer rows.Close()

	var out []*posts.Post
	for rows.Next() {
		var p posts.Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Body, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

var _ posts.Repository = (*SQLRepository)(nil)
