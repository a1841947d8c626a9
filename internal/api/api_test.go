package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/play4stakes/play4stakes/internal/services/arena"
	"github.com/play4stakes/play4stakes/internal/store/sqlite"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	st, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return NewRouter(arena.New(st))
}

func doRequest(t *testing.T, h http.Handler, method, path, userID string, body any) (int, []byte) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, rd)
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec.Code, rec.Body.Bytes()
}

func startSession(t *testing.T, h http.Handler, userID string) {
	t.Helper()

	code, body := doRequest(t, h, http.MethodPost, "/session", userID, nil)
	if code != http.StatusOK {
		t.Fatalf("session for %s: %d (%s)", userID, code, body)
	}
}

func TestWriteJSONEncodeFailureKeepsStatus(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, make(chan int)) // channels are not encodable

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want the originally written 200", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	code, _ := doRequest(t, h, http.MethodGet, "/healthz", "", nil)
	if code != http.StatusOK {
		t.Fatalf("healthz: %d", code)
	}
}

func TestSessionGrantsStarterBalanceOnce(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)

	var resp struct {
		UserID  string `json:"userId"`
		Balance int64  `json:"balance"`
	}

	code, body := doRequest(t, h, http.MethodPost, "/session", "player-1", nil)
	if code != http.StatusOK {
		t.Fatalf("session: %d (%s)", code, body)
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Balance != arena.StarterBalance || resp.UserID != "player-1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}

	code, body = doRequest(t, h, http.MethodPost, "/session", "player-1", nil)
	if code != http.StatusOK {
		t.Fatalf("second session: %d", code)
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Balance != arena.StarterBalance {
		t.Fatalf("second session balance = %d, want %d", resp.Balance, arena.StarterBalance)
	}
}

func TestIdentityHeaderRequired(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/session"},
		{http.MethodGet, "/wallet/balance"},
		{http.MethodPost, "/wallet/topup"},
		{http.MethodPost, "/challenges"},
		{http.MethodPost, "/challenges/ABCD/accept"},
	}

	for _, p := range paths {
		code, _ := doRequest(t, h, p.method, p.path, "", nil)
		if code != http.StatusBadRequest {
			t.Fatalf("%s %s without identity: %d, want 400", p.method, p.path, code)
		}
	}
}

func TestErrorStatusMapping(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	startSession(t, h, "player-1")

	tests := []struct {
		name   string
		method string
		path   string
		userID string
		body   any
		want   int
	}{
		{
			name:   "unknown game",
			method: http.MethodPost, path: "/challenges", userID: "player-1",
			body: map[string]any{"gameType": "CHESS", "stake": 50},
			want: http.StatusBadRequest,
		},
		{
			name:   "non-positive stake",
			method: http.MethodPost, path: "/challenges", userID: "player-1",
			body: map[string]any{"gameType": "SCOUT", "stake": 0},
			want: http.StatusBadRequest,
		},
		{
			name:   "stake above balance",
			method: http.MethodPost, path: "/challenges", userID: "player-1",
			body: map[string]any{"gameType": "SCOUT", "stake": 99999},
			want: http.StatusConflict,
		},
		{
			name:   "unknown challenge",
			method: http.MethodGet, path: "/challenges/ZZZZ", userID: "",
			want: http.StatusNotFound,
		},
		{
			name:   "accept unknown challenge",
			method: http.MethodPost, path: "/challenges/ZZZZ/accept", userID: "player-1",
			want: http.StatusNotFound,
		},
		{
			name:   "balance of unknown wallet",
			method: http.MethodGet, path: "/wallet/balance", userID: "nobody",
			want: http.StatusNotFound,
		},
		{
			name:   "negative topup",
			method: http.MethodPost, path: "/wallet/topup", userID: "player-1",
			body: map[string]any{"amount": -5},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doRequest(t, h, tt.method, tt.path, tt.userID, tt.body)
			if code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", code, tt.want, body)
			}
		})
	}
}

func TestBoardHiddenUntilFilled(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	startSession(t, h, "creator")
	startSession(t, h, "opponent")

	code, body := doRequest(t, h, http.MethodPost, "/challenges", "creator",
		map[string]any{"gameType": "SCOUT", "stake": 50})
	if code != http.StatusCreated {
		t.Fatalf("create: %d (%s)", code, body)
	}

	var ch struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &ch); err != nil {
		t.Fatalf("decode: %v", err)
	}

	code, _ = doRequest(t, h, http.MethodGet, "/challenges/"+ch.Code+"/board", "", nil)
	if code != http.StatusConflict {
		t.Fatalf("board on OPEN challenge: %d, want 409", code)
	}

	code, body = doRequest(t, h, http.MethodPost, "/challenges/"+ch.Code+"/accept", "opponent", nil)
	if code != http.StatusOK {
		t.Fatalf("accept: %d (%s)", code, body)
	}

	code, body = doRequest(t, h, http.MethodGet, "/challenges/"+ch.Code+"/board", "", nil)
	if code != http.StatusOK {
		t.Fatalf("board after fill: %d", code)
	}

	var layout struct {
		Grid    []int `json:"grid"`
		Targets []int `json:"targets"`
	}
	if err := json.Unmarshal(body, &layout); err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	if len(layout.Grid) != 25 || len(layout.Targets) != 5 {
		t.Fatalf("layout shape: %d cells, %d targets", len(layout.Grid), len(layout.Targets))
	}
}

func TestSubmitResultValidation(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	startSession(t, h, "creator")
	startSession(t, h, "opponent")

	code, body := doRequest(t, h, http.MethodPost, "/challenges", "creator",
		map[string]any{"gameType": "DOWN", "stake": 25})
	if code != http.StatusCreated {
		t.Fatalf("create: %d (%s)", code, body)
	}
	var ch struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &ch); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Results before both stakes are locked are refused.
	code, _ = doRequest(t, h, http.MethodPost, "/challenges/"+ch.Code+"/result", "",
		map[string]any{"role": "creator", "finalSeconds": 9.5})
	if code != http.StatusConflict {
		t.Fatalf("result on OPEN: %d, want 409", code)
	}

	if code, body = doRequest(t, h, http.MethodPost, "/challenges/"+ch.Code+"/accept", "opponent", nil); code != http.StatusOK {
		t.Fatalf("accept: %d (%s)", code, body)
	}

	code, _ = doRequest(t, h, http.MethodPost, "/challenges/"+ch.Code+"/result", "",
		map[string]any{"role": "referee", "finalSeconds": 9.5})
	if code != http.StatusBadRequest {
		t.Fatalf("bad role: %d, want 400", code)
	}

	code, _ = doRequest(t, h, http.MethodPost, "/challenges/"+ch.Code+"/result", "",
		map[string]any{"role": "creator", "finalSeconds": 0})
	if code != http.StatusBadRequest {
		t.Fatalf("zero time: %d, want 400", code)
	}

	code, _ = doRequest(t, h, http.MethodPost, "/challenges/"+ch.Code+"/result", "",
		map[string]any{"role": "creator", "finalSeconds": 9.5})
	if code != http.StatusOK {
		t.Fatalf("valid result: %d", code)
	}
}
