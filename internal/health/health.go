// Package health serves the container health endpoint. The only network
// surface of either binary; the functional surface is the Telegram long poll.
package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Checker reports whether a dependency is reachable. Mongo's Ping and
// redis's Ping both adapt onto it in main.
type Checker func() error

func New(service string, checks map[string]Checker) *http.Server {
	started := time.Now()

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		type status struct {
			OK      bool              `json:"ok"`
			Service string            `json:"service"`
			Uptime  string            `json:"uptime"`
			Deps    map[string]string `json:"deps,omitempty"`
		}
		st := status{OK: true, Service: service, Uptime: time.Since(started).Round(time.Second).String()}
		if len(checks) > 0 {
			st.Deps = make(map[string]string, len(checks))
			for name, check := range checks {
				if err := check(); err != nil {
					st.OK = false
					st.Deps[name] = err.Error()
				} else {
					st.Deps[name] = "ok"
				}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if !st.OK {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(st)
	})

	return &http.Server{
		Addr:              "",
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Serve runs the endpoint in the background.
func Serve(addr, service string, checks map[string]Checker) {
	srv := New(service, checks)
	srv.Addr = addr
	go func() {
		log.Info().Str("addr", addr).Msg("health endpoint up")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health endpoint failed")
		}
	}()
}
