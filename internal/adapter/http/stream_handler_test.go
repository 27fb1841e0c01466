package http

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sfd-loan-engine/internal/domain/loan"
	"sfd-loan-engine/internal/notifier"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamServer(t *testing.T) (*httptest.Server, *notifier.Hub) {
	t.Helper()
	hub := notifier.NewHub(8)
	h := NewStreamHandler(hub, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	e := echo.New()
	e.GET("/events", h.AllEvents)
	e.GET("/sfds/:sfd_id/events", h.SfdEvents)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func event(sfdID string, status loan.Status) notifier.Event {
	return notifier.NewEvent(notifier.EventStatusChanged,
		&loan.Loan{LoanID: strings.Repeat("c", 32), SfdID: sfdID, Status: status, Version: 2},
		loan.StatusPending, time.Now())
}

func TestStream_SfdSubscriberOnlySeesItsSfd(t *testing.T) {
	srv, hub := newStreamServer(t)
	sfdConn := dial(t, srv, "/sfds/SFD-A/events")
	allConn := dial(t, srv, "/events")

	require.Eventually(t, func() bool {
		return hub.Subscribers("SFD-A") == 1 && hub.Subscribers(notifier.AllSfds) == 1
	}, 2*time.Second, 10*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, hub.Deliver(ctx, event("SFD-B", loan.StatusApproved)))
	require.NoError(t, hub.Deliver(ctx, event("SFD-A", loan.StatusRejected)))

	_ = sfdConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got notifier.Event
	require.NoError(t, sfdConn.ReadJSON(&got))
	assert.Equal(t, "SFD-A", got.SfdID)
	assert.Equal(t, loan.StatusRejected, got.NewStatus)

	_ = allConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first, second notifier.Event
	require.NoError(t, allConn.ReadJSON(&first))
	require.NoError(t, allConn.ReadJSON(&second))
	assert.Equal(t, "SFD-B", first.SfdID)
	assert.Equal(t, "SFD-A", second.SfdID)
}

func TestStream_ClosingClientUnsubscribes(t *testing.T) {
	srv, hub := newStreamServer(t)
	conn := dial(t, srv, "/sfds/SFD-A/events")

	require.Eventually(t, func() bool { return hub.Subscribers("SFD-A") == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Subscribers("SFD-A") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStream_PlainHTTPIsRejected(t *testing.T) {
	srv, hub := newStreamServer(t)
	resp, err := srv.Client().Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, 0, hub.Subscribers(notifier.AllSfds))
}

func TestStream_WildcardIsNotAnSfd(t *testing.T) {
	srv, hub := newStreamServer(t)
	resp, err := srv.Client().Get(srv.URL + "/sfds/" + notifier.AllSfds + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 400, resp.StatusCode)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sfds/" + notifier.AllSfds + "/events"
	_, wsResp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, wsResp)
	assert.Equal(t, 400, wsResp.StatusCode)
	assert.Equal(t, 0, hub.Subscribers(notifier.AllSfds))
}
