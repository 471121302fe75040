package http

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mauv0809/chess-club/internal/batch"
	"github.com/mauv0809/chess-club/internal/club"
	"github.com/mauv0809/chess-club/internal/config"
	"github.com/mauv0809/chess-club/internal/metrics"
	"github.com/mauv0809/chess-club/internal/notifier"
	"github.com/mauv0809/chess-club/internal/pubsub"
	"github.com/mauv0809/chess-club/internal/tournament"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

const testSlackSigningSecret = "test-signing-secret"

// setupTestServer initializes a new server with a temporary data dir and mock clients.
func setupTestServer(t *testing.T) (*Server, *notifier.Mock) {
	t.Helper()

	cfg := config.Config{
		DataDir:           filepath.Join(t.TempDir(), "DB"),
		DefaultMaxMatches: 1,
		Slack:             config.SlackConfig{SigningSecret: testSlackSigningSecret},
	}
	registry := batch.NewRegistry(cfg)
	t.Cleanup(registry.Close)

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	notif := notifier.NewMock()
	ps := pubsub.NewMock()
	svc := tournament.New(registry, notif, metricsSvc, ps).WithSeed(7)

	server := NewServer(registry, svc, metricsSvc, metrics.NewMetricsHandler(reg), cfg, notif, ps)
	return server, notif
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

// createSlackCommandRequest builds a slash command request signed the way
// Slack signs it: v0 HMAC-SHA256 over "v0:<timestamp>:<body>".
func createSlackCommandRequest(t *testing.T, targetURL string, form url.Values, signingSecret string) *http.Request {
	t.Helper()
	body := form.Encode()
	req := httptest.NewRequest(http.MethodPost, targetURL, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("X-Slack-Request-Timestamp", timestamp)

	h := hmac.New(sha256.New, []byte(signingSecret))
	h.Write([]byte("v0:" + timestamp + ":" + body))
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(h.Sum(nil)))
	return req
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

// seedBatch creates batch "spring" with the given students, all paid.
func seedBatch(t *testing.T, s *Server, names ...string) {
	t.Helper()
	rr := do(t, s, http.MethodPost, "/batches?name=Spring", nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	for _, name := range names {
		rr := do(t, s, http.MethodPost, "/students?batch=spring", map[string]string{"name": name, "class": "9"})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}
	rr = do(t, s, http.MethodPost, "/students/mark-all-paid?batch=spring", nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestHealthCheckHandler(t *testing.T) {
	server, _ := setupTestServer(t)

	rr := do(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code, "handler returned wrong status code")
	assert.Equal(t, "OK!", rr.Body.String(), "handler returned unexpected body")
}

func TestBatchHandlers(t *testing.T) {
	server, _ := setupTestServer(t)

	rr := do(t, server, http.MethodPost, "/batches?name=Spring%202024", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, batchResponse{ID: "Spring 2024", Key: "spring-2024"}, decode[batchResponse](t, rr))

	rr = do(t, server, http.MethodPost, "/batches?name=%20", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, server, http.MethodGet, "/batches", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"spring-2024"}, decode[[]string](t, rr))
}

func TestBatchMiddleware(t *testing.T) {
	server, _ := setupTestServer(t)

	rr := do(t, server, http.MethodGet, "/students", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, server, http.MethodGet, "/students?batch=unknown", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, decode[errorResponse](t, rr).Error, "not found")
}

func TestStudentHandlers(t *testing.T) {
	server, _ := setupTestServer(t)
	seedBatch(t, server, "Anna", "Bo")

	t.Run("list and search", func(t *testing.T) {
		rr := do(t, server, http.MethodGet, "/students?batch=spring", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		students := decode[[]club.Student](t, rr)
		require.Len(t, students, 2)
		assert.Equal(t, "00001", students[0].ID)
		assert.True(t, students[0].PaidEntry)

		rr = do(t, server, http.MethodGet, "/students?batch=spring&q=bo", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decode[[]club.Student](t, rr), 1)
	})

	t.Run("name is required", func(t *testing.T) {
		rr := do(t, server, http.MethodPost, "/students?batch=spring", map[string]string{"class": "9"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		rr := do(t, server, http.MethodPost, "/students?batch=spring", map[string]any{"name": "X", "points": 99})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("update", func(t *testing.T) {
		rr := do(t, server, http.MethodPut, "/students/00002?batch=spring", map[string]any{"name": "Bo B", "class": "10", "paid_entry": true})
		require.Equal(t, http.StatusOK, rr.Code)
		s := decode[club.Student](t, rr)
		assert.Equal(t, "Bo B", s.Name)
		assert.Equal(t, "10", s.Class)

		rr = do(t, server, http.MethodPut, "/students/00099?batch=spring", map[string]any{"name": "Ghost"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("toggle paid", func(t *testing.T) {
		rr := do(t, server, http.MethodPost, "/students/00001/toggle-paid?batch=spring", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.False(t, decode[club.Student](t, rr).PaidEntry)

		rr = do(t, server, http.MethodPost, "/students/mark-all-paid?batch=spring", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, map[string]int64{"updated": 1}, decode[map[string]int64](t, rr))
	})
}

func TestMatchFlow(t *testing.T) {
	server, notif := setupTestServer(t)
	seedBatch(t, server, "A", "B", "C", "D")

	rr := do(t, server, http.MethodPost, "/matches/generate?batch=spring&max_matches=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, server, http.MethodPost, "/matches/generate?batch=spring&max_matches=21", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// The configured default of one match per student applies.
	rr = do(t, server, http.MethodPost, "/matches/generate?batch=spring", nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	matches := decode[[]club.Match](t, rr)
	require.Len(t, matches, 2)
	assert.Len(t, notif.SendRoundScheduleCalls, 1)

	rr = do(t, server, http.MethodPost, "/matches/generate?batch=spring", nil)
	assert.Equal(t, http.StatusConflict, rr.Code, "round in progress")

	resultURL := func(id int64) string { return fmt.Sprintf("/matches/%d/result?batch=spring", id) }

	rr = do(t, server, http.MethodPost, resultURL(matches[0].ID), resultRequest{Outcome: "resign"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, server, http.MethodPost, "/matches/x/result?batch=spring", resultRequest{Outcome: "draw"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, server, http.MethodPost, resultURL(999), resultRequest{Outcome: "draw"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, server, http.MethodPost, resultURL(matches[0].ID), resultRequest{Outcome: "student1"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	scored := decode[club.Match](t, rr)
	require.NotNil(t, scored.WinnerID)
	assert.Equal(t, matches[0].Student1ID, *scored.WinnerID)

	rr = do(t, server, http.MethodPost, resultURL(matches[0].ID), resultRequest{Outcome: "draw"})
	assert.Equal(t, http.StatusConflict, rr.Code, "already scored")

	rr = do(t, server, http.MethodPost, resultURL(matches[1].ID), resultRequest{Outcome: "draw"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, server, http.MethodGet, "/leaderboard?batch=spring", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	current := decode[[]club.Standing](t, rr)
	require.Len(t, current, 4)
	assert.Equal(t, 3.0, current[0].Points)

	rr = do(t, server, http.MethodPost, "/matches/archive?batch=spring", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]int64{"archived": 2}, decode[map[string]int64](t, rr))

	rr = do(t, server, http.MethodGet, "/matches?batch=spring", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]club.Match](t, rr))

	rr = do(t, server, http.MethodGet, "/history?batch=spring", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]club.Match](t, rr), 2)

	rr = do(t, server, http.MethodGet, "/leaderboard?batch=spring&scope=history", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, current, decode[[]club.Standing](t, rr))
}

func TestCreateMatchHandler(t *testing.T) {
	server, _ := setupTestServer(t)
	seedBatch(t, server, "A", "B")

	rr := do(t, server, http.MethodPost, "/matches?batch=spring", createMatchRequest{Student1ID: "00001", Student2ID: "00002"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "A", decode[club.Match](t, rr).Student1Name)

	rr = do(t, server, http.MethodPost, "/matches?batch=spring", createMatchRequest{Student1ID: "00001", Student2ID: "00001"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, server, http.MethodPost, "/matches?batch=spring", createMatchRequest{Student1ID: "00001", Student2ID: "00042"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLeaderboardHandlers(t *testing.T) {
	server, notif := setupTestServer(t)
	seedBatch(t, server, "A", "B")

	rr := do(t, server, http.MethodGet, "/leaderboard?batch=spring&scope=weekly", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, server, http.MethodGet, "/leaderboard?batch=spring&month=2024-13", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, server, http.MethodGet, "/leaderboard?batch=spring&month=2024-03&class=9", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]club.Standing](t, rr))

	rr = do(t, server, http.MethodPost, "/leaderboard/notify?batch=spring&scope=history&dry_run=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, notif.SendLeaderboardCalls, 1)
	assert.True(t, notif.SendLeaderboardCalls[0].DryRun)
	assert.Equal(t, club.HistoryScope(), notif.SendLeaderboardCalls[0].Scope)
}

func TestDashboardAndReconcileHandlers(t *testing.T) {
	server, _ := setupTestServer(t)
	seedBatch(t, server, "A", "B", "C")

	rr := do(t, server, http.MethodGet, "/dashboard?batch=spring", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	d := decode[tournament.Dashboard](t, rr)
	assert.Equal(t, 3, d.Students)
	assert.Equal(t, 3, d.Paid)
	assert.Len(t, d.Top, 3)

	rr = do(t, server, http.MethodPost, "/reconcile?batch=spring", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]int{"corrected": 0}, decode[map[string]int](t, rr))
}

func TestLeaderboardCommandHandler(t *testing.T) {
	server, notif := setupTestServer(t)
	seedBatch(t, server, "A", "B")

	var gotScope club.Scope
	notif.FormatLeaderboardResponseFunc = func(batch string, scope club.Scope, standings []club.Standing) (any, error) {
		gotScope = scope
		return map[string]string{"text": "board for " + batch}, nil
	}

	post := func(text string) *httptest.ResponseRecorder {
		req := createSlackCommandRequest(t, "/slack/command/leaderboard", url.Values{"text": {text}}, testSlackSigningSecret)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		return rr
	}

	rr := post("spring 2024-03")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, club.MonthScope("2024-03"), gotScope)
	assert.Equal(t, map[string]string{"text": "board for spring"}, decode[map[string]string](t, rr))

	rr = post("spring")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, club.HistoryScope(), gotScope)

	rr = post("")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = post("autumn")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLeaderboardCommandHandler_Verification(t *testing.T) {
	server, notif := setupTestServer(t)
	seedBatch(t, server, "A", "B")
	form := url.Values{"text": {"spring"}}
	formatted := 0
	notif.FormatLeaderboardResponseFunc = func(string, club.Scope, []club.Standing) (any, error) {
		formatted++
		return map[string]string{"text": "board"}, nil
	}

	send := func(req *http.Request) int {
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		return rr.Code
	}

	t.Run("rejects request with invalid signature", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/leaderboard", form, testSlackSigningSecret)
		req.Header.Set("X-Slack-Signature", "v0=invalid-signature")
		assert.Equal(t, http.StatusUnauthorized, send(req))
	})

	t.Run("rejects request signed with another secret", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/leaderboard", form, "other-secret")
		assert.Equal(t, http.StatusUnauthorized, send(req))
	})

	t.Run("rejects request with missing signature", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/leaderboard", form, testSlackSigningSecret)
		req.Header.Del("X-Slack-Signature")
		assert.Equal(t, http.StatusUnauthorized, send(req))
	})

	t.Run("rejects request with outdated timestamp", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/leaderboard", form, testSlackSigningSecret)
		req.Header.Set("X-Slack-Request-Timestamp", strconv.FormatInt(time.Now().Add(-6*time.Minute).Unix(), 10))
		assert.Equal(t, http.StatusUnauthorized, send(req))
	})

	t.Run("rejects unsigned request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/slack/command/leaderboard", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		assert.Equal(t, http.StatusUnauthorized, send(req))
	})

	assert.Zero(t, formatted, "rejected commands never reach the handler")

	t.Run("accepts signed request", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/leaderboard", form, testSlackSigningSecret)
		assert.Equal(t, http.StatusOK, send(req))
	})
}

func TestArchiveHandler_DryRunSkipsEvent(t *testing.T) {
	server, _ := setupTestServer(t)
	seedBatch(t, server, "A", "B")
	ps, ok := server.pubsub.(*pubsub.MockPubSubClient)
	require.True(t, ok)

	rr := do(t, server, http.MethodPost, "/matches?batch=spring", createMatchRequest{Student1ID: "00001", Student2ID: "00002"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	m := decode[club.Match](t, rr)
	rr = do(t, server, http.MethodPost, fmt.Sprintf("/matches/%d/result?batch=spring&dry_run=true", m.ID), resultRequest{Outcome: "draw"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, server, http.MethodPost, "/matches/archive?batch=spring&dry_run=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]int64{"archived": 1}, decode[map[string]int64](t, rr))
	assert.Empty(t, ps.Topics(), "dry run publishes nothing")

	rr = do(t, server, http.MethodGet, "/history?batch=spring", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]club.Match](t, rr), 1, "the archive itself still runs")
}

func TestEventPushHandler(t *testing.T) {
	server, _ := setupTestServer(t)

	data, err := msgpack.Marshal(pubsub.MatchesArchived{Batch: "spring", Count: 3})
	require.NoError(t, err)

	push := func(event string, payload string) *httptest.ResponseRecorder {
		body := map[string]any{
			"subscription": "projects/p/subscriptions/s",
			"message": map[string]any{
				"data":       payload,
				"attributes": map[string]string{"event": event},
				"messageId":  "1",
			},
		}
		return do(t, server, http.MethodPost, "/pubsub/events", body)
	}

	rr := push(string(pubsub.EventMatchesArchived), base64.StdEncoding.EncodeToString(data))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())

	rr = push("something-else", base64.StdEncoding.EncodeToString(data))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = push(string(pubsub.EventMatchesArchived), "%%%")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)
	seedBatch(t, server, "A", "B")

	rr := do(t, server, http.MethodPost, "/matches/generate?batch=spring", nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, server, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "chess_rounds_generated_total 1")
}
