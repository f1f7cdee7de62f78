package handlers

import "net/http"

type Routes struct {
	Posts    *PostsHandler
	Health   http.HandlerFunc
	Realtime http.Handler
}

func (rt Routes) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", rt.Health)
	mux.HandleFunc("GET /posts", rt.Posts.List())
	mux.HandleFunc("POST /posts", rt.Posts.Create())
	if rt.Realtime != nil {
		mux.Handle("GET /ws", rt.Realtime)
	}
	return mux
}
