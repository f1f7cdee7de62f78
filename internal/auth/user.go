package auth

import "context"

// User is the authenticated caller of a request. Admin is carried through
// from the token but nothing in the posts core branches on it.
type User struct {
	ID    int64 `json:"id"`
	Admin bool  `json:"admin"`
}

type ctxKey struct{}

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFrom returns nil when the request is anonymous.
func UserFrom(ctx context.Context) *User {
	u, _ := ctx.Value(ctxKey{}).(*User)
	return u
}
