package load

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"chatlink/internal/core/domain"
	"chatlink/internal/core/ports"
	"chatlink/internal/core/services"
	"chatlink/internal/infrastructure/repositories/memory"
	wsignal "chatlink/internal/infrastructure/signal"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type loadTestClient struct {
	userID domain.UserID
	wsConn *websocket.Conn
}

func newLoadTestClient(userID domain.UserID) *loadTestClient {
	return &loadTestClient{userID: userID}
}

func (c *loadTestClient) connect(signalURL string) error {
	url := fmt.Sprintf("%s?userId=%s", signalURL, c.userID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return err
	}
	c.wsConn = conn
	return nil
}

func (c *loadTestClient) callUser(to domain.UserID) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"from": c.userID,
		"to":   to,
		"type": "video",
	})
	return c.wsConn.WriteJSON(wsignal.ClientMessage{Event: "callUser", Payload: payload})
}

// drain consumes server events until the roster reaches the expected size,
// counting incoming call invites along the way.
func (c *loadTestClient) drain(rosterSize int, deadline time.Time) (invites int, err error) {
	for time.Now().Before(deadline) {
		c.wsConn.SetReadDeadline(deadline)
		var msg wsignal.ClientMessage
		if err := c.wsConn.ReadJSON(&msg); err != nil {
			return invites, err
		}
		switch msg.Event {
		case "incomingCall":
			invites++
		case wsignal.EventOnlineUsers:
			var payload wsignal.OnlineUsersPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				return invites, err
			}
			if len(payload.Users) >= rosterSize {
				return invites, nil
			}
		}
	}
	return invites, fmt.Errorf("roster never reached %d users", rosterSize)
}

func startCoordinator(t *testing.T) *httptest.Server {
	t.Helper()

	log := zap.NewNop().Sugar()
	registry := services.NewConnectionRegistry()
	store := memory.NewMemoryPresenceStore()

	var wsServer *wsignal.WebSocketServer
	broadcaster := ports.BroadcasterFunc(func(online []domain.UserID) {
		wsServer.BroadcastPresence(online)
	})
	presence := services.NewPresenceService(registry, store, broadcaster, nil, log)
	router := services.NewCallSignalRouter(registry, nil, nil, log)
	wsServer = wsignal.NewWebSocketServer(presence, router, nil, wsignal.Options{}, nil, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.HandleWebSocket)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

// TestRealisticSignalingLoad connects a burst of clients, waits for the
// presence roster to converge on every connection, then has each client ring
// a random peer. The assertions are about survival under churn, not exact
// delivery counts: every connection must stay healthy and the total number of
// delivered invites must match the number sent.
func TestRealisticSignalingLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping load test in short mode")
	}

	const numClients = 40

	ts := startCoordinator(t)
	signalURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	clients := make([]*loadTestClient, 0, numClients)
	for i := 0; i < numClients; i++ {
		clients = append(clients, newLoadTestClient(domain.UserID(fmt.Sprintf("load-user-%d", i))))
	}

	var wg sync.WaitGroup
	connectErrs := make(chan error, numClients)
	for _, client := range clients {
		wg.Add(1)
		go func(c *loadTestClient) {
			defer wg.Done()
			connectErrs <- c.connect(signalURL)
		}(client)
	}
	wg.Wait()
	close(connectErrs)
	for err := range connectErrs {
		require.NoError(t, err)
	}
	defer func() {
		for _, c := range clients {
			c.wsConn.Close()
		}
	}()

	// Every client, registered or not, must converge on the full roster.
	deadline := time.Now().Add(10 * time.Second)
	for _, c := range clients {
		_, err := c.drain(numClients, deadline)
		require.NoError(t, err, "client %s never saw full roster", c.userID)
	}

	// Each client rings its ring-neighbour, so every client is the target of
	// exactly one invite.
	for i, c := range clients {
		target := clients[(i+1)%numClients]
		require.NoError(t, c.callUser(target.userID))
	}

	total := 0
	for _, c := range clients {
		c.wsConn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg wsignal.ClientMessage
		if err := c.wsConn.ReadJSON(&msg); err != nil {
			continue
		}
		if msg.Event == "incomingCall" {
			total++
		}
	}
	require.Equal(t, numClients, total, "every invite must reach its target")
}
