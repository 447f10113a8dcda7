package http

import "net/http"

// NewRouter wires the loan endpoints behind CORS and the rate limiter.
// Preflight requests are answered before they spend a token.
func NewRouter(
	handler *LoanHandler,
	limiter *RateLimiter,
	allowedOrigins []string,
) http.Handler {
	mux := http.NewServeMux()
	handler.Routes(mux)

	return CORSMiddleware(allowedOrigins, RateLimitMiddleware(limiter, mux))
}
