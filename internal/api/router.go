package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/play4stakes/play4stakes/internal/services/arena"
)

// NewRouter constructs the router with all API endpoints registered.
func NewRouter(svc *arena.Service) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/session", h.StartSessionHandler)
	r.Get("/wallet/balance", h.GetBalanceHandler)
	r.Post("/wallet/topup", h.TopUpHandler)

	r.Post("/challenges", h.CreateChallengeHandler)
	r.Get("/challenges/{code}", h.GetChallengeHandler)
	r.Get("/challenges/{code}/board", h.GetBoardHandler)
	r.Post("/challenges/{code}/accept", h.AcceptChallengeHandler)
	r.Post("/challenges/{code}/result", h.SubmitResultHandler)

	return r
}
