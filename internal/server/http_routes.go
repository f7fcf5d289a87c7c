package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	rateLimit := s.rateLimitMiddleware()
	limitBody := s.requestSizeLimitMiddleware()

	mux.HandleFunc("GET /api/health", s.healthHandler)
	mux.HandleFunc("GET /api/stats", s.statsHandler)
	mux.HandleFunc("GET /api/presets", s.presetsHandler)
	mux.HandleFunc("POST /api/analyze", rateLimit(limitBody(s.analyzeHandler)))
	mux.HandleFunc("GET /api/analysis/{id}", rateLimit(s.getAnalysisHandler))
	mux.HandleFunc("DELETE /api/analysis/{id}", rateLimit(s.deleteAnalysisHandler))
	mux.HandleFunc("GET /ws/{id}", rateLimit(s.websocketHandler))

	return mux
}

// Handler returns the full handler chain, including tracing
func (s *Server) Handler() http.Handler {
	return s.Observability.HTTPMiddleware()(s.setupRoutes())
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}
