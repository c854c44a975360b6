package server

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/basakil/brm-chatbot/internal/chat"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// requestContext accepts an incoming request id or generates one, echoes it
// in the response and attaches a logger carrying it to the request context.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		logger := s.logger.With("requestId", requestID)
		ctx := chat.ContextWithLogger(r.Context(), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(r *http.Request, fallback *slog.Logger) *slog.Logger {
	return chat.LoggerFrom(r.Context(), fallback)
}
