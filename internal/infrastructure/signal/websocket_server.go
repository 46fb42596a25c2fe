package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"chatlink/internal/core/domain"
	"chatlink/internal/core/ports"
	"chatlink/internal/core/services"
	"chatlink/pkg/validation"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Client-to-server event names.
const (
	eventCallUser     = "callUser"
	eventCallAccepted = "callAccepted"
	eventCallRejected = "callRejected"
	eventCallEnded    = "callEnded"
)

// EventOnlineUsers is pushed to every live connection after each registry
// change.
const EventOnlineUsers = "getOnlineUsers"

// ClientMessage is the inbound wire envelope.
type ClientMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage is the outbound wire envelope.
type ServerMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

type CallUserPayload struct {
	From domain.UserID   `json:"from"`
	To   domain.UserID   `json:"to"`
	Type domain.CallType `json:"type"`
}

type CallAcceptedPayload struct {
	To   domain.UserID `json:"to"`
	From domain.UserID `json:"from"`
}

type CallRejectedPayload struct {
	To domain.UserID `json:"to"`
}

type CallEndedPayload struct {
	To domain.UserID `json:"to"`
}

type OnlineUsersPayload struct {
	Users []domain.UserID `json:"users"`
}

// ConnMetrics records connection-level coordinator activity.
type ConnMetrics interface {
	ConnectionOpened(registered bool)
	ConnectionClosed()
	PresenceBroadcast(reached int)
}

// Options tunes connection keepalive and abuse limits.
type Options struct {
	PingInterval time.Duration
	PongTimeout  time.Duration
	WriteTimeout time.Duration

	// ConnectionsPerMinute caps websocket upgrades; zero disables the cap.
	ConnectionsPerMinute int
	// MessagesPerSecond and MessageBurst cap per-connection inbound events;
	// zero disables the cap.
	MessagesPerSecond float64
	MessageBurst      int
	// MaxMessageSizeBytes caps one inbound frame; zero leaves the gorilla
	// default in place.
	MaxMessageSizeBytes int64

	// RequireToken rejects identified connections without a valid session
	// token whose subject matches the claimed identity.
	RequireToken bool
}

// WebSocketServer is the presence and call-signaling coordinator. It owns
// the set of live connections (registered and anonymous) and implements the
// presence fan-out; identity-to-connection mapping lives in the registry
// behind the presence service.
type WebSocketServer struct {
	presence ports.PresenceService
	router   ports.SignalRouter
	auth     services.AuthService

	conns map[domain.ConnectionID]*wsClientConn
	mu    sync.RWMutex

	opts        Options
	connLimiter *rate.Limiter

	metrics ConnMetrics
	logger  *zap.SugaredLogger
}

func NewWebSocketServer(
	presence ports.PresenceService,
	router ports.SignalRouter,
	auth services.AuthService, // used only when opts.RequireToken
	opts Options,
	metrics ConnMetrics, // may be nil
	logger *zap.SugaredLogger,
) *WebSocketServer {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.PongTimeout <= 0 {
		opts.PongTimeout = 60 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}

	s := &WebSocketServer{
		presence: presence,
		router:   router,
		auth:     auth,
		conns:    make(map[domain.ConnectionID]*wsClientConn),
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
	}
	if opts.ConnectionsPerMinute > 0 {
		s.connLimiter = rate.NewLimiter(rate.Limit(float64(opts.ConnectionsPerMinute)/60.0), opts.ConnectionsPerMinute)
	}
	return s
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.connLimiter != nil && !s.connLimiter.Allow() {
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	identity, err := s.handshakeIdentity(r)
	if err != nil {
		s.logger.Warnw("rejected websocket handshake", "error", err)
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if s.opts.MaxMessageSizeBytes > 0 {
		conn.SetReadLimit(s.opts.MaxMessageSizeBytes)
	}

	wsc := newWSClientConn(conn, s.opts.WriteTimeout)

	s.mu.Lock()
	s.conns[wsc.ID()] = wsc
	s.mu.Unlock()

	registered := identity != ""
	ctx := r.Context()
	if registered {
		// Register replaces any previous connection for this identity
		// (last-writer-wins) and fans presence out to everyone.
		s.presence.Connected(ctx, identity, wsc)
	} else {
		// Anonymous viewers still receive the presence broadcast that the
		// original fires on every connect.
		s.BroadcastPresence(s.presence.Online(ctx))
	}
	if s.metrics != nil {
		s.metrics.ConnectionOpened(registered)
	}

	s.logger.Infow("client connected",
		"conn_id", wsc.ID(), "user_id", identity, "registered", registered)

	s.serve(ctx, identity, wsc)

	// Clean up on disconnect. Unregister is a no-op when a newer connection
	// has already replaced this one.
	s.mu.Lock()
	delete(s.conns, wsc.ID())
	s.mu.Unlock()

	if registered {
		s.presence.Disconnected(context.Background(), identity, wsc)
	}
	if s.metrics != nil {
		s.metrics.ConnectionClosed()
	}

	s.logger.Infow("client disconnected", "conn_id", wsc.ID(), "user_id", identity)
}

// handshakeIdentity extracts and validates the optional userId handshake
// parameter. An absent userId means the connection stays anonymous; it will
// receive presence broadcasts but cannot be called.
func (s *WebSocketServer) handshakeIdentity(r *http.Request) (domain.UserID, error) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		return "", nil
	}
	if err := validation.ValidateUserID(userID); err != nil {
		return "", err
	}

	if s.opts.RequireToken {
		token := r.URL.Query().Get("token")
		if token == "" {
			return "", fmt.Errorf("missing handshake token")
		}
		claims, err := s.auth.ValidateToken(token)
		if err != nil {
			return "", fmt.Errorf("invalid handshake token: %w", err)
		}
		if claims.UserID != domain.UserID(userID) {
			return "", fmt.Errorf("handshake token subject mismatch")
		}
	}

	return domain.UserID(userID), nil
}

func (s *WebSocketServer) serve(ctx context.Context, identity domain.UserID, wsc *wsClientConn) {
	conn := wsc.conn

	conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
		return nil
	})

	pingTicker := time.NewTicker(s.opts.PingInterval)
	defer pingTicker.Stop()

	var msgLimiter *rate.Limiter
	if s.opts.MessagesPerSecond > 0 {
		burst := s.opts.MessageBurst
		if burst <= 0 {
			burst = 1
		}
		msgLimiter = rate.NewLimiter(rate.Limit(s.opts.MessagesPerSecond), burst)
	}

	messageChan := make(chan ClientMessage, 10)
	errorChan := make(chan error, 1)

	// done releases the reader goroutine when serve returns with the message
	// buffer full; otherwise the send below would block forever.
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			var msg ClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				errorChan <- err
				return
			}
			conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
			select {
			case messageChan <- msg:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case msg := <-messageChan:
			if msgLimiter != nil && !msgLimiter.Allow() {
				s.logger.Warnw("dropping message over rate limit",
					"conn_id", wsc.ID(), "user_id", identity, "event", msg.Event)
				continue
			}
			if err := s.handleMessage(ctx, identity, msg); err != nil {
				s.logger.Infow("error handling client message",
					"conn_id", wsc.ID(), "user_id", identity, "event", msg.Event, "error", err)
			}

		case <-pingTicker.C:
			if err := wsc.Ping(); err != nil {
				s.logger.Infow("error sending ping", "conn_id", wsc.ID(), "error", err)
				return
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Infow("error reading client message", "conn_id", wsc.ID(), "error", err)
			}
			return
		}
	}
}

// handleMessage turns an inbound wire event into a tagged signal and hands
// it to the router. Routing failures (target offline) are not errors: the
// signal is dropped silently per the forwarding contract.
func (s *WebSocketServer) handleMessage(ctx context.Context, identity domain.UserID, msg ClientMessage) error {
	switch msg.Event {
	case eventCallUser:
		var p CallUserPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid callUser payload: %w", err)
		}
		if p.To == "" {
			return fmt.Errorf("callUser requires a target identity")
		}
		if !p.Type.Valid() {
			return domain.ErrInvalidCallType
		}
		s.router.Route(ctx, domain.InviteSignal{From: p.From, To: p.To, Type: p.Type})
		return nil

	case eventCallAccepted:
		var p CallAcceptedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid callAccepted payload: %w", err)
		}
		s.router.Route(ctx, domain.AcceptSignal{From: p.From, To: p.To})
		return nil

	case eventCallRejected:
		var p CallRejectedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid callRejected payload: %w", err)
		}
		s.router.Route(ctx, domain.RejectSignal{To: p.To})
		return nil

	case eventCallEnded:
		var p CallEndedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid callEnded payload: %w", err)
		}
		s.router.Route(ctx, domain.EndSignal{To: p.To})
		return nil

	default:
		return fmt.Errorf("unknown event: %s", msg.Event)
	}
}

// BroadcastPresence pushes the full online set to every live connection,
// anonymous ones included. Fired after every registry change; failures on
// individual connections are ignored, their read loops will clean them up.
func (s *WebSocketServer) BroadcastPresence(online []domain.UserID) {
	if online == nil {
		online = []domain.UserID{}
	}
	payload := OnlineUsersPayload{Users: online}

	s.mu.RLock()
	targets := make([]*wsClientConn, 0, len(s.conns))
	for _, c := range s.conns {
		targets = append(targets, c)
	}
	s.mu.RUnlock()

	for _, c := range targets {
		if err := c.Send(EventOnlineUsers, payload); err != nil {
			s.logger.Debugw("presence broadcast failed for connection",
				"conn_id", c.ID(), "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.PresenceBroadcast(len(targets))
	}
}

// ConnectionCount reports all live connections, anonymous included.
func (s *WebSocketServer) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

func (s *WebSocketServer) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().Unix(),
		"connections": s.ConnectionCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// wsClientConn adapts a gorilla connection to ports.ClientConn. A write
// mutex serializes frames from the router, the presence broadcaster and the
// keepalive ticker, which preserves per-pair signal ordering.
type wsClientConn struct {
	id           domain.ConnectionID
	conn         *websocket.Conn
	writeTimeout time.Duration
	writeMu      sync.Mutex
}

func newWSClientConn(conn *websocket.Conn, writeTimeout time.Duration) *wsClientConn {
	return &wsClientConn{
		id:           domain.ConnectionID(uuid.New().String()),
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (c *wsClientConn) ID() domain.ConnectionID {
	return c.id
}

func (c *wsClientConn) Send(event string, payload interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteJSON(ServerMessage{Event: event, Payload: payload})
}

func (c *wsClientConn) Ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *wsClientConn) Close() error {
	return c.conn.Close()
}
