// Package web serves the OAuth redirect endpoint for the calendar link
// flow. It is a single callback route, not a public API surface.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"remindbot/internal/calendar"
)

type Server struct {
	log      zerolog.Logger
	srv      *http.Server
	calendar *calendar.Service
}

func New(log zerolog.Logger, addr string, cal *calendar.Service) *Server {
	s := &Server{
		log:      log.With().Str("component", "web").Logger(),
		calendar: cal,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/callback", s.handleCallback)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start blocks serving until the context is cancelled, then drains.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("oauth callback server listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errMsg := q.Get("error"); errMsg != "" {
		s.log.Warn().Str("error", errMsg).Msg("oauth consent denied")
		http.Error(w, "Authorization was declined. You can close this page.", http.StatusBadRequest)
		return
	}

	state, code := q.Get("state"), q.Get("code")
	if state == "" || code == "" {
		http.Error(w, "Missing state or code.", http.StatusBadRequest)
		return
	}

	if err := s.calendar.HandleCallback(r.Context(), state, code); err != nil {
		s.log.Error().Err(err).Msg("oauth callback failed")
		http.Error(w, "Linking failed. Please try again from the bot.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<html><body><h3>Google Calendar linked.</h3><p>You can close this page and return to Telegram.</p></body></html>"))
}
