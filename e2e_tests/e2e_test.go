package e2etests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/play4stakes/play4stakes/internal/api"
	"github.com/play4stakes/play4stakes/internal/services/arena"
	"github.com/play4stakes/play4stakes/internal/store/sqlite"
)

const timeout = 5 * time.Second

var httpClient = &http.Client{Timeout: timeout}

type challengePayload struct {
	Code     string `json:"code"`
	GameType string `json:"gameType"`
	Stake    int64  `json:"stake"`
	Status   string `json:"status"`
	Settled  bool   `json:"settled"`
}

func startServer(t *testing.T) string {
	t.Helper()

	st, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	srv := httptest.NewServer(api.NewRouter(arena.New(st)))
	t.Cleanup(srv.Close)

	return srv.URL
}

func TestE2E_ChallengeFlow(t *testing.T) {
	baseURL := startServer(t)

	t.Run("players_start_with_starter_balance", func(t *testing.T) {
		for _, player := range []string{"alice", "bob"} {
			code, body := post(t, baseURL, "/session", player, nil)
			if code != http.StatusOK {
				t.Fatalf("session %s: want 200, got %d (%s)", player, code, body)
			}
			if got := getBalance(t, baseURL, player); got != 1000 {
				t.Fatalf("%s starter balance: want 1000, got %d", player, got)
			}
		}
	})

	var ch challengePayload

	t.Run("create_escrows_creator_stake", func(t *testing.T) {
		code, body := post(t, baseURL, "/challenges", "alice",
			map[string]any{"gameType": "SCOUT", "stake": 50})
		if code != http.StatusCreated {
			t.Fatalf("create: want 201, got %d (%s)", code, body)
		}
		if err := json.Unmarshal([]byte(body), &ch); err != nil {
			t.Fatalf("decode challenge: %v", err)
		}
		if ch.Status != "OPEN" {
			t.Fatalf("status: want OPEN, got %s", ch.Status)
		}
		if got := getBalance(t, baseURL, "alice"); got != 950 {
			t.Fatalf("after create: want 950, got %d", got)
		}
	})

	t.Run("accept_escrows_opponent_stake", func(t *testing.T) {
		code, body := post(t, baseURL, "/challenges/"+ch.Code+"/accept", "bob", nil)
		if code != http.StatusOK {
			t.Fatalf("accept: want 200, got %d (%s)", code, body)
		}
		if got := getBalance(t, baseURL, "bob"); got != 950 {
			t.Fatalf("after accept: want 950, got %d", got)
		}
	})

	t.Run("both_players_see_identical_board", func(t *testing.T) {
		first := getBoard(t, baseURL, ch.Code)
		second := getBoard(t, baseURL, ch.Code)

		if len(first.Grid) != 25 || len(first.Targets) != 5 {
			t.Fatalf("board shape: %d cells, %d targets", len(first.Grid), len(first.Targets))
		}
		for i := range first.Grid {
			if first.Grid[i] != second.Grid[i] {
				t.Fatalf("board not deterministic at cell %d", i)
			}
		}
	})

	t.Run("faster_player_takes_pot", func(t *testing.T) {
		code, body := post(t, baseURL, "/challenges/"+ch.Code+"/result", "",
			map[string]any{"role": "creator", "finalSeconds": 12.345678})
		if code != http.StatusOK {
			t.Fatalf("creator result: want 200, got %d (%s)", code, body)
		}

		code, body = post(t, baseURL, "/challenges/"+ch.Code+"/result", "",
			map[string]any{"role": "opponent", "finalSeconds": 9.0})
		if code != http.StatusOK {
			t.Fatalf("opponent result: want 200, got %d (%s)", code, body)
		}

		var final challengePayload
		if err := json.Unmarshal([]byte(body), &final); err != nil {
			t.Fatalf("decode final: %v", err)
		}
		if final.Status != "COMPLETE" || !final.Settled {
			t.Fatalf("final state: %s settled=%v, want COMPLETE settled=true", final.Status, final.Settled)
		}

		// Bob was faster and takes the 100-coin pot.
		if got := getBalance(t, baseURL, "bob"); got != 1050 {
			t.Fatalf("winner balance: want 1050, got %d", got)
		}
		if got := getBalance(t, baseURL, "alice"); got != 950 {
			t.Fatalf("loser balance: want 950, got %d", got)
		}
	})

	t.Run("resubmission_does_not_resettle", func(t *testing.T) {
		code, body := post(t, baseURL, "/challenges/"+ch.Code+"/result", "",
			map[string]any{"role": "opponent", "finalSeconds": 1.0})
		if code != http.StatusOK {
			t.Fatalf("resubmit: want 200, got %d (%s)", code, body)
		}

		if got := getBalance(t, baseURL, "bob"); got != 1050 {
			t.Fatalf("balance moved on resubmission: %d", got)
		}
	})
}

func TestE2E_TieRefundsBothStakes(t *testing.T) {
	baseURL := startServer(t)

	for _, player := range []string{"carol", "dave"} {
		if code, body := post(t, baseURL, "/session", player, nil); code != http.StatusOK {
			t.Fatalf("session %s: %d (%s)", player, code, body)
		}
	}

	code, body := post(t, baseURL, "/challenges", "carol",
		map[string]any{"gameType": "DOWN", "stake": 75})
	if code != http.StatusCreated {
		t.Fatalf("create: %d (%s)", code, body)
	}
	var ch challengePayload
	if err := json.Unmarshal([]byte(body), &ch); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if code, body = post(t, baseURL, "/challenges/"+ch.Code+"/accept", "dave", nil); code != http.StatusOK {
		t.Fatalf("accept: %d (%s)", code, body)
	}

	for _, role := range []string{"creator", "opponent"} {
		code, body = post(t, baseURL, "/challenges/"+ch.Code+"/result", "",
			map[string]any{"role": role, "finalSeconds": 10.0})
		if code != http.StatusOK {
			t.Fatalf("%s result: %d (%s)", role, code, body)
		}
	}

	if got := getBalance(t, baseURL, "carol"); got != 1000 {
		t.Fatalf("carol after tie: want 1000, got %d", got)
	}
	if got := getBalance(t, baseURL, "dave"); got != 1000 {
		t.Fatalf("dave after tie: want 1000, got %d", got)
	}
}

func TestE2E_TopUpAndInsufficientFunds(t *testing.T) {
	baseURL := startServer(t)

	if code, body := post(t, baseURL, "/session", "eve", nil); code != http.StatusOK {
		t.Fatalf("session: %d (%s)", code, body)
	}

	// A stake beyond the balance is refused and nothing moves.
	code, body := post(t, baseURL, "/challenges", "eve",
		map[string]any{"gameType": "UP", "stake": 1500})
	if code != http.StatusConflict {
		t.Fatalf("overdraw create: want 409, got %d (%s)", code, body)
	}
	if got := getBalance(t, baseURL, "eve"); got != 1000 {
		t.Fatalf("failed create moved funds: %d", got)
	}

	// Default top-up bumps the balance by 500.
	code, body = post(t, baseURL, "/wallet/topup", "eve", nil)
	if code != http.StatusOK {
		t.Fatalf("topup: %d (%s)", code, body)
	}
	if got := getBalance(t, baseURL, "eve"); got != 1500 {
		t.Fatalf("after topup: want 1500, got %d", got)
	}

	code, body = post(t, baseURL, "/challenges", "eve",
		map[string]any{"gameType": "UP", "stake": 1500})
	if code != http.StatusCreated {
		t.Fatalf("create after topup: want 201, got %d (%s)", code, body)
	}
	if got := getBalance(t, baseURL, "eve"); got != 0 {
		t.Fatalf("after full-stake create: want 0, got %d", got)
	}
}

/* -------------------- helpers -------------------- */

func post(t *testing.T, baseURL, path, userID string, payload any) (int, string) {
	t.Helper()

	var rd io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func getBalance(t *testing.T, baseURL, userID string) int64 {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/wallet/balance", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-User-Id", userID)

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET balance for %s: want 200, got %d (%s)", userID, resp.StatusCode, string(b))
	}

	var payload struct {
		UserID  string `json:"userId"`
		Balance int64  `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if payload.UserID != userID {
		t.Fatalf("userId mismatch: want %s, got %s", userID, payload.UserID)
	}

	return payload.Balance
}

type boardPayload struct {
	Grid    []int `json:"grid"`
	Targets []int `json:"targets"`
}

func getBoard(t *testing.T, baseURL, code string) boardPayload {
	t.Helper()

	resp, err := httpClient.Get(fmt.Sprintf("%s/challenges/%s/board", baseURL, code))
	if err != nil {
		t.Fatalf("get board: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET board: want 200, got %d (%s)", resp.StatusCode, string(b))
	}

	var payload boardPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode board: %v", err)
	}

	return payload
}
