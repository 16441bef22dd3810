// Package server exposes the scene controller over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gogpu/shaderscene"
)

// maxBodySize bounds request bodies.
const maxBodySize = 8 << 20

// Scenes is the part of app.App the server needs.
type Scenes interface {
	Generate(ctx context.Context, prompt string) (shaderscene.State, error)
	Apply(ctx context.Context, payload any) (shaderscene.State, error)
	State(ctx context.Context) (shaderscene.State, error)
	Teardown(ctx context.Context) error
}

type server struct {
	scenes Scenes
}

// NewHandler returns the HTTP API:
//
//	POST   /api/prompt   {"prompt": "..."}  generate and apply a scene
//	POST   /api/scene    scene payload      apply a payload directly
//	GET    /api/state                       controller state
//	DELETE /api/session                     dispose the current session
//	GET    /metrics                         Prometheus metrics from gatherer
//	GET    /healthz
func NewHandler(scenes Scenes, gatherer prometheus.Gatherer) http.Handler {
	s := &server{scenes: scenes}
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/api", func(r chi.Router) {
		r.Post("/prompt", s.prompt)
		r.Post("/scene", s.scene)
		r.Get("/state", s.state)
		r.Delete("/session", s.teardown)
	})
	return r
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

// response is the body of every /api reply.
type response struct {
	State shaderscene.State `json:"state"`
	Error string            `json:"error,omitempty"`
}

func (s *server) prompt(w http.ResponseWriter, r *http.Request) {
	var body promptRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&body); err != nil || body.Prompt == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	st, err := s.scenes.Generate(r.Context(), body.Prompt)
	s.reply(w, st, err)
}

func (s *server) scene(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	st, err := s.scenes.Apply(r.Context(), data)
	s.reply(w, st, err)
}

func (s *server) state(w http.ResponseWriter, r *http.Request) {
	st, err := s.scenes.State(r.Context())
	s.reply(w, st, err)
}

func (s *server) teardown(w http.ResponseWriter, r *http.Request) {
	if err := s.scenes.Teardown(r.Context()); err != nil {
		s.reply(w, shaderscene.State{}, err)
		return
	}
	st, err := s.scenes.State(r.Context())
	s.reply(w, st, err)
}

func (s *server) reply(w http.ResponseWriter, st shaderscene.State, err error) {
	resp := response{State: st}
	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		status = statusFor(err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		shaderscene.Logger().Warn("encode response", slog.Any("error", err))
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shaderscene.ErrMalformedPayload),
		errors.Is(err, shaderscene.ErrInvalidNumericData),
		errors.Is(err, shaderscene.ErrIndexOutOfRange),
		errors.Is(err, shaderscene.ErrShaderCompile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shaderscene.ErrFetchFailed):
		return http.StatusBadGateway
	case errors.Is(err, shaderscene.ErrControllerClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
