package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingtools/jobtrack/server/internal/store"
	wsHub "github.com/pingtools/jobtrack/server/internal/ws"
)

const testInterval = 20 * time.Millisecond

// --- helpers ----------------------------------------------------------------

func newStore(tokens ...string) *store.Store {
	st := store.New(nil)
	for _, tok := range tokens {
		if _, err := st.Submit(store.Event{Token: tok, StationName: "PC-" + tok}); err != nil {
			panic(err)
		}
	}
	return st
}

// startHub starts a test HTTP server with the hub as its handler and runs
// the hub loop until the test ends or cancel is called.
func startHub(t *testing.T, st *store.Store) (wsURL string, hub *wsHub.Hub, cancel func()) {
	t.Helper()

	hub = wsHub.New(st, testInterval)
	ctx, cancelFn := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	go hub.Run(ctx)

	t.Cleanup(func() {
		cancelFn()
		srv.Close()
	})

	wsURL = "ws" + strings.TrimPrefix(srv.URL, "http")
	return wsURL, hub, cancelFn
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err, "dial %s", wsURL)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readMessage reads one text message from conn with a short deadline.
func readMessage(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return msg
}

type message struct {
	Event string `json:"event"`
	Data  struct {
		Jobs        map[string]store.Record `json:"jobs"`
		GeneratedAt string                  `json:"generated_at"`
	} `json:"data"`
}

func decodeMessage(t *testing.T, raw []byte) message {
	t.Helper()
	var m message
	require.NoError(t, json.Unmarshal(raw, &m), "body: %s", raw)
	return m
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

// --- tests ------------------------------------------------------------------

func TestHub_SendsListingOnConnect(t *testing.T) {
	wsURL, _, _ := startHub(t, newStore("abc", "def"))
	conn := dial(t, wsURL)

	m := decodeMessage(t, readMessage(t, conn))
	assert.Equal(t, "jobs", m.Event)
	require.Len(t, m.Data.Jobs, 2)
	rec := m.Data.Jobs["abc"]
	assert.Equal(t, "PC-abc", rec.StationName)
	assert.Equal(t, store.StatusInProgress, rec.Status)
	assert.NotEmpty(t, m.Data.GeneratedAt)
}

func TestHub_EmptyStoreSendsEmptyMap(t *testing.T) {
	wsURL, _, _ := startHub(t, newStore())
	conn := dial(t, wsURL)

	m := decodeMessage(t, readMessage(t, conn))
	assert.NotNil(t, m.Data.Jobs, "jobs must encode as {} not null")
	assert.Empty(t, m.Data.Jobs)
}

func TestHub_Count(t *testing.T) {
	wsURL, hub, _ := startHub(t, newStore())

	require.Equal(t, 0, hub.Count())
	c1 := dial(t, wsURL)
	readMessage(t, c1)
	c2 := dial(t, wsURL)
	readMessage(t, c2)

	waitFor(t, func() bool { return hub.Count() == 2 })

	c1.Close()
	waitFor(t, func() bool { return hub.Count() == 1 })
}

func TestHub_BroadcastsChange(t *testing.T) {
	st := newStore("abc")
	wsURL, _, _ := startHub(t, st)
	conn := dial(t, wsURL)
	readMessage(t, conn) // initial listing

	_, err := st.Submit(store.Event{Token: "abc", Status: "Succeeded"})
	require.NoError(t, err)

	// The first tick may carry the pre-change listing; the change must
	// arrive within a few ticks.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m := decodeMessage(t, readMessage(t, conn))
		if m.Data.Jobs["abc"].Status == store.StatusSucceeded {
			return
		}
	}
	t.Fatal("change was not broadcast")
}

func TestHub_SkipsUnchangedListing(t *testing.T) {
	st := newStore("abc")
	wsURL, _, _ := startHub(t, st)
	conn := dial(t, wsURL)
	readMessage(t, conn) // initial listing

	// At most one tick broadcast can follow (the hub's first comparison);
	// after that nothing changes so the connection stays quiet.
	conn.SetReadDeadline(time.Now().Add(10 * testInterval))
	_, _, _ = conn.ReadMessage()

	conn.SetReadDeadline(time.Now().Add(10 * testInterval))
	_, msg, err := conn.ReadMessage()
	assert.Error(t, err, "unexpected broadcast of unchanged listing: %s", msg)
}

func TestHub_AllClientsReceiveBroadcast(t *testing.T) {
	st := newStore("abc")
	wsURL, hub, _ := startHub(t, st)

	conns := []*websocket.Conn{dial(t, wsURL), dial(t, wsURL), dial(t, wsURL)}
	for _, c := range conns {
		readMessage(t, c)
	}
	waitFor(t, func() bool { return hub.Count() == 3 })

	_, err := st.Submit(store.Event{Token: "new", StationName: "PC-new"})
	require.NoError(t, err)

	for i, c := range conns {
		got := false
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) && !got {
			m := decodeMessage(t, readMessage(t, c))
			_, got = m.Data.Jobs["new"]
		}
		assert.True(t, got, "client %d never saw the new job", i)
	}
}

func TestHub_CancelContextClosesConnections(t *testing.T) {
	wsURL, hub, cancel := startHub(t, newStore())
	conn := dial(t, wsURL)
	readMessage(t, conn)
	waitFor(t, func() bool { return hub.Count() == 1 })

	cancel()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	waitFor(t, func() bool { return hub.Count() == 0 })
}

func TestHub_NonWebSocketRequest_Returns400(t *testing.T) {
	hub := wsHub.New(newStore(), testInterval)

	rr := httptest.NewRecorder()
	hub.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ws/stream", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
