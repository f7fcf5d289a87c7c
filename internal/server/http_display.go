package server

import (
	"fmt"
	"os"
)

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Fprintln(os.Stderr, "Available endpoints:")
	fmt.Fprintln(os.Stderr, "  POST   /api/analyze        - Start a candidate analysis")
	fmt.Fprintln(os.Stderr, "  GET    /api/analysis/{id}  - Poll analysis progress and result")
	fmt.Fprintln(os.Stderr, "  DELETE /api/analysis/{id}  - Forget an analysis")
	fmt.Fprintln(os.Stderr, "  GET    /ws/{id}            - Stream progress over a websocket")
	fmt.Fprintln(os.Stderr, "  GET    /api/presets        - Weight presets")
	fmt.Fprintln(os.Stderr, "  GET    /api/health         - Health check")
	fmt.Fprintln(os.Stderr, "  GET    /api/stats          - Server statistics")
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Fprintf(os.Stderr, "Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Fprintln(os.Stderr, "Request size limit: DISABLED")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Fprintf(os.Stderr, "Rate limiting: ENABLED (%d requests/min per IP, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
	} else {
		fmt.Fprintln(os.Stderr, "Rate limiting: DISABLED")
	}
}
