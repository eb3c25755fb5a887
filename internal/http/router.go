package http

import (
	"net/http"
	"time"

	"memopad/internal/auth"
	"memopad/internal/config"
	"memopad/internal/http/handler"
	mw "memopad/internal/http/middleware"
	"memopad/internal/memo"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(log))

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	if cfg.JWTSecret != "" {
		r.Use(auth.VerifySubject(auth.NewVerifier(cfg.JWTSecret)))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	memoH := &handler.MemoHandler{
		Svc: &memo.Service{DB: db},
		Log: log.With().Str("component", "memo").Logger(),
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/getMemo", memoH.GetMemo)
		r.Post("/putMemo", memoH.PutMemo)
		r.Patch("/updateMemo", memoH.UpdateMemo)
		r.Delete("/deleteMemo/{id}", memoH.DeleteMemo)
	})

	return r
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
