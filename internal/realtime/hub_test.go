package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, userID)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func TestHub_EmitReachesOnlyTheUsersTopic(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	alice := dial(t, hub, "alice")
	bob := dial(t, hub, "bob")
	require.Eventually(t, func() bool {
		return hub.ClientCount("alice") == 1 && hub.ClientCount("bob") == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Emit(context.Background(), "alice", EventNotificationNew, map[string]string{"message": "hi"}))

	f := readFrame(t, alice)
	assert.Equal(t, EventNotificationNew, f.Event)
	assert.JSONEq(t, `{"message":"hi"}`, string(f.Payload))

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err)
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	conn := dial(t, hub, "carol")
	require.Eventually(t, func() bool { return hub.ClientCount("carol") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount("carol") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRelay_HandleForwardsValidMessages(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	relay := NewRelay(nil, hub)

	conn := dial(t, hub, "dave")
	require.Eventually(t, func() bool { return hub.ClientCount("dave") == 1 }, 2*time.Second, 10*time.Millisecond)

	relay.handle("not json")
	relay.handle(`{"userId":"","event":"x","payload":{}}`)
	relay.handle(`{"userId":"dave","event":"notification:new","payload":{"id":"n1"}}`)

	f := readFrame(t, conn)
	assert.Equal(t, EventNotificationNew, f.Event)
	assert.JSONEq(t, `{"id":"n1"}`, string(f.Payload))
}

type failingBroadcaster struct{ calls int }

func (f *failingBroadcaster) Emit(context.Context, string, string, any) error {
	f.calls++
	return errors.New("transport down")
}

func TestEmit_NilAndFailingBroadcasterDoNotPanic(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { Emit(context.Background(), nil, "u", EventNotificationNew, nil) })

	fb := &failingBroadcaster{}
	assert.NotPanics(t, func() { Emit(context.Background(), fb, "u", EventNotificationNew, nil) })
	assert.Equal(t, 1, fb.calls)
}

func TestUserTopic(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "user:abc", UserTopic("abc"))
}
