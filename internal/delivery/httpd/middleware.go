package httpd

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/RubachokBoss/prepai/internal/service"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	identityKey
)

// RequestLogger пишет строку на каждый запрос и кладет логгер с request_id в контекст.
func RequestLogger(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			reqID := middleware.GetReqID(r.Context())
			if reqID == "" {
				reqID = "unknown"
			}

			requestLog := log.With().Str("request_id", reqID).Logger()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			r = r.WithContext(context.WithValue(r.Context(), loggerKey, requestLog))

			defer func() {
				requestLog.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("query", r.URL.RawQuery).
					Str("ip", r.RemoteAddr).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

func Recovery(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil && rvr != http.ErrAbortHandler {
					log.Error().
						Interface("recover", rvr).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Str("request_id", middleware.GetReqID(r.Context())).
						Msg("Panic recovered")

					writeError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

func LoggerFromContext(ctx context.Context, fallback zerolog.Logger) *zerolog.Logger {
	if l, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return &l
	}
	return &fallback
}

// identityFromRequest читает пользователя, которого уже аутентифицировал шлюз.
func identityFromRequest(r *http.Request) models.Identity {
	if id, ok := r.Context().Value(identityKey).(models.Identity); ok {
		return id
	}
	return models.Identity{
		UID:   strings.TrimSpace(r.Header.Get(HeaderUserID)),
		Email: strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
	}
}

func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := identityFromRequest(r)
		if identity.UID == "" {
			writeError(w, http.StatusUnauthorized, service.MessageUnauthenticated)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	})
}
