package ws_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adegaexpress/adega/pkg/sse"
	"github.com/adegaexpress/adega/pkg/ws"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dashboardServer(t *testing.T, b *sse.Broker) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client, err := ws.Upgrade(w, r)
		if err != nil {
			return
		}
		if err := b.Register(client); err != nil {
			client.Close()
			return
		}
		defer b.Unregister(client)
		client.Run(r.Context())
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func read(t *testing.T, conn *websocket.Conn) ws.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var m ws.Message
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestClientReceivesBrokerEvents(t *testing.T) {
	b := sse.NewBroker()
	url := dashboardServer(t, b)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, sse.EventConnected, read(t, conn).Event)
	require.Eventually(t, func() bool { return b.Len() == 1 }, time.Second, 10*time.Millisecond)

	b.Publish("order_status_changed", map[string]interface{}{"orderId": 3, "newStatus": "ready"})
	m := read(t, conn)
	assert.Equal(t, "order_status_changed", m.Event)
	assert.JSONEq(t, `{"orderId":3,"newStatus":"ready"}`, string(m.Data))
}

func TestDisconnectedClientLeavesBroker(t *testing.T) {
	b := sse.NewBroker()
	url := dashboardServer(t, b)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	read(t, conn)
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		b.Heartbeat()
		return b.Len() == 0
	}, 2*time.Second, 20*time.Millisecond)
}
