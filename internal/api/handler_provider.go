package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/play4stakes/play4stakes/internal/challenge"
	"github.com/play4stakes/play4stakes/internal/services/arena"
	"github.com/play4stakes/play4stakes/internal/store"
)

// HandlerProvider wraps the arena service and exposes HTTP handlers.
type HandlerProvider struct {
	svc *arena.Service
}

// NewHandler returns a new Handler provider.
func NewHandler(svc *arena.Service) *HandlerProvider {
	return &HandlerProvider{svc: svc}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		// Headers are already sent at this point; nothing can rewrite the
		// status for the client.
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps service and store errors to HTTP statuses. Anything
// unrecognized is a 500 with the detail kept server-side.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "challenge not found")
	case errors.Is(err, store.ErrWalletNotFound):
		writeError(w, http.StatusNotFound, "wallet not found")
	case errors.Is(err, store.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient funds")
	case errors.Is(err, arena.ErrAlreadyFilled):
		writeError(w, http.StatusConflict, "challenge already filled")
	case errors.Is(err, arena.ErrNotAccepted):
		writeError(w, http.StatusConflict, "challenge not accepted by both sides")
	case errors.Is(err, arena.ErrExpired):
		writeError(w, http.StatusGone, "challenge expired")
	case errors.Is(err, arena.ErrInvalidStake),
		errors.Is(err, arena.ErrInvalidAmount),
		errors.Is(err, arena.ErrUnknownGame),
		errors.Is(err, arena.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("unhandled service error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// userIDFromHeader reads the caller identity from X-User-Id. Identity is an
// opaque id issued upstream; this service only requires it to be present.
func userIDFromHeader(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if id == "" {
		return "", errors.New("missing X-User-Id header")
	}

	return id, nil
}

func codeFromPath(r *http.Request) (string, error) {
	code := challenge.NormalizeCode(chi.URLParam(r, "code"))
	if code == "" {
		return "", errors.New("missing code")
	}

	return code, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB cap
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}

		return errors.New("invalid JSON")
	}

	return nil
}

type balanceResponse struct {
	UserID  string `json:"userId"`
	Balance int64  `json:"balance"`
}

// --- Handlers ---

// StartSessionHandler handles POST /session. It provisions the wallet on
// first contact, granting the starter balance exactly once.
func (h *HandlerProvider) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bal, err := h.svc.EnsureAccount(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{UserID: userID, Balance: bal})
}

// GetBalanceHandler handles GET /wallet/balance.
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bal, err := h.svc.GetBalance(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{UserID: userID, Balance: bal})
}

type topUpRequest struct {
	Amount int64 `json:"amount"`
}

// TopUpHandler handles POST /wallet/topup. An absent or zero amount applies
// the default top-up.
func (h *HandlerProvider) TopUpHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := topUpRequest{Amount: arena.DefaultTopUp}
	if r.ContentLength > 0 {
		err = decodeBody(w, r, &req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Amount == 0 {
			req.Amount = arena.DefaultTopUp
		}
	}

	bal, err := h.svc.TopUp(r.Context(), userID, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{UserID: userID, Balance: bal})
}

type createChallengeRequest struct {
	GameType string `json:"gameType"`
	Stake    int64  `json:"stake"`
}

// CreateChallengeHandler handles POST /challenges.
func (h *HandlerProvider) CreateChallengeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req createChallengeRequest
	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ch, err := h.svc.CreateChallenge(r.Context(), userID, strings.ToUpper(strings.TrimSpace(req.GameType)), req.Stake)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ch)
}

// GetChallengeHandler handles GET /challenges/{code}.
func (h *HandlerProvider) GetChallengeHandler(w http.ResponseWriter, r *http.Request) {
	code, err := codeFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ch, err := h.svc.GetChallenge(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ch)
}

// GetBoardHandler handles GET /challenges/{code}/board. The board is derived
// from the stored seed and only disclosed once both stakes are locked.
func (h *HandlerProvider) GetBoardHandler(w http.ResponseWriter, r *http.Request) {
	code, err := codeFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	layout, err := h.svc.Layout(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, layout)
}

// AcceptChallengeHandler handles POST /challenges/{code}/accept.
func (h *HandlerProvider) AcceptChallengeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	code, err := codeFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ch, err := h.svc.AcceptChallenge(r.Context(), code, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ch)
}

type resultRequest struct {
	Role         string  `json:"role"`
	RawSeconds   float64 `json:"rawSeconds"`
	FinalSeconds float64 `json:"finalSeconds"`
}

// SubmitResultHandler handles POST /challenges/{code}/result.
func (h *HandlerProvider) SubmitResultHandler(w http.ResponseWriter, r *http.Request) {
	code, err := codeFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req resultRequest
	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.FinalSeconds <= 0 {
		writeError(w, http.StatusBadRequest, "finalSeconds must be positive")
		return
	}
	if req.RawSeconds == 0 {
		req.RawSeconds = req.FinalSeconds
	}

	res := challenge.Result{
		RawSeconds:   req.RawSeconds,
		FinalSeconds: req.FinalSeconds,
		FinishedAt:   time.Now().UTC(),
	}

	ch, err := h.svc.SubmitResult(r.Context(), code, challenge.Role(strings.ToLower(strings.TrimSpace(req.Role))), res)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ch)
}
