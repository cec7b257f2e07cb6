// Package httpserver provides a small typed-route HTTP server used by every
// cluster role (coordinator, storage node). It replaces per-endpoint
// if-path-== branching with a declared route table and a single CORS
// middleware wrapping every route.
package httpserver

import (
	"encoding/json"
	"net/http"
)

// Route declares one endpoint: the method it answers and the handler that
// serves it. Unregistered paths and wrong methods both produce a uniform
// 404/405 JSON error instead of falling through to a default mux response.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Server is a minimal typed-route table with CORS applied to every route.
type Server struct {
	mux    *http.ServeMux
	routes map[string]string // path -> method of each registered route
}

func New() *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		routes: make(map[string]string),
	}
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		applyCORS(w)
		WriteError(w, http.StatusNotFound, "not found")
	})
	return s
}

// Handle registers a route. It wraps the handler with CORS headers and a
// method check.
func (s *Server) Handle(route Route) {
	s.routes[route.Path] = route.Method
	method := route.Method
	handler := route.Handler
	s.mux.HandleFunc(route.Path, func(w http.ResponseWriter, r *http.Request) {
		applyCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != method {
			WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		handler(w, r)
	})
}

// HandlePrefix registers a handler for every path under prefix (used for
// /download/{chunk_id}-style routes where the suffix is a path parameter).
func (s *Server) HandlePrefix(method, prefix string, handler http.HandlerFunc) {
	s.mux.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
		applyCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != method {
			WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		handler(w, r)
	})
}

func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

func applyCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Content-Type", "application/json")
}

// WriteJSON writes v as a JSON response body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": message} with the given status code.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
