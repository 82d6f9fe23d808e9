package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type HTTPServer struct {
	srv  *http.Server
	done chan struct{}
}

// StartHTTP запускает сервер и гасит его при отмене ctx.
func StartHTTP(ctx context.Context, addr string, h http.Handler, log *zap.Logger) *HTTPServer {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	log.Info("http server started", zap.String("addr", addr))
	return &HTTPServer{srv: srv, done: done}
}

// Wait блокируется до завершения graceful shutdown.
func (s *HTTPServer) Wait() { <-s.done }
