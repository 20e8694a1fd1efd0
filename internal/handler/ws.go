package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"eventgraph/internal/auth"
	"eventgraph/pkg/logger"
)

// Subscriptions speak the graphql-transport-ws protocol: the client opens
// with connection_init, the server acks, then each subscribe starts an
// operation that streams next messages until complete.
const (
	wsSubprotocol    = "graphql-transport-ws"
	connInitTimeout  = 10 * time.Second
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 512 * 1024
	wsSendBuffer     = 256
)

const (
	gqlConnectionInit = "connection_init"
	gqlConnectionAck  = "connection_ack"
	gqlPing           = "ping"
	gqlPong           = "pong"
	gqlSubscribe      = "subscribe"
	gqlNext           = "next"
	gqlError          = "error"
	gqlComplete       = "complete"
)

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	Subprotocols:    []string{wsSubprotocol},
	// Access control happens via the token in connection_init, not the
	// Origin header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsSession owns one websocket connection and its active operations.
// All frames go out through the send channel so a single goroutine writes.
type wsSession struct {
	conn   *websocket.Conn
	schema graphql.Schema
	ctx    context.Context
	cancel context.CancelFunc
	send   chan wsMessage
	log    *zap.Logger

	mu  sync.Mutex
	ops map[string]context.CancelFunc
}

func (h *GraphQLHandler) Websocket(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &wsSession{
		conn:   conn,
		schema: h.schema,
		ctx:    ctx,
		cancel: cancel,
		send:   make(chan wsMessage, wsSendBuffer),
		log:    logger.WithComponent("ws"),
		ops:    make(map[string]context.CancelFunc),
	}

	if !s.handshake(h.tokens) {
		return
	}

	go s.writePump()
	s.readPump()
}

// handshake waits for connection_init, resolves the identity carried in
// its payload and acks. The identity becomes the root context for every
// operation on this connection.
func (s *wsSession) handshake(tokens *auth.TokenManager) bool {
	s.conn.SetReadLimit(wsMaxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(connInitTimeout)); err != nil {
		return false
	}

	var msg wsMessage
	if err := s.conn.ReadJSON(&msg); err != nil {
		s.closeWith(4408, "Connection initialisation timeout")
		return false
	}
	if msg.Type != gqlConnectionInit {
		s.closeWith(4401, "Unauthorized")
		return false
	}

	identity := auth.Anonymous()
	if len(msg.Payload) > 0 {
		var payload struct {
			Authorization string `json:"authorization"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err == nil {
			if raw := auth.BearerToken(payload.Authorization); raw != "" {
				if verified, err := tokens.Verify(raw); err == nil {
					identity = verified
				}
			}
		}
	}
	s.ctx = auth.WithIdentity(s.ctx, identity)

	if err := s.write(wsMessage{Type: gqlConnectionAck}); err != nil {
		return false
	}
	return true
}

func (s *wsSession) readPump() {
	defer s.cancel()

	if err := s.conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg wsMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket closed", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case gqlPing:
			s.enqueue(wsMessage{Type: gqlPong, Payload: msg.Payload})
		case gqlPong:
			// Keepalive from the client, nothing to do.
		case gqlSubscribe:
			if !s.startOperation(msg) {
				return
			}
		case gqlComplete:
			s.stopOperation(msg.ID)
		case gqlConnectionInit:
			s.closeWith(4429, "Too many initialisation requests")
			return
		default:
			s.closeWith(4400, "Invalid message type")
			return
		}
	}
}

func (s *wsSession) startOperation(msg wsMessage) bool {
	if msg.ID == "" {
		s.closeWith(4400, "Subscribe requires an id")
		return false
	}

	var req graphqlRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		s.closeWith(4400, "Invalid subscribe payload")
		return false
	}

	opCtx, opCancel := context.WithCancel(s.ctx)

	s.mu.Lock()
	if _, exists := s.ops[msg.ID]; exists {
		s.mu.Unlock()
		opCancel()
		s.closeWith(4409, "Subscriber for "+msg.ID+" already exists")
		return false
	}
	s.ops[msg.ID] = opCancel
	s.mu.Unlock()

	go s.runOperation(opCtx, msg.ID, req)
	return true
}

func (s *wsSession) stopOperation(id string) {
	s.mu.Lock()
	cancel, ok := s.ops[id]
	if ok {
		delete(s.ops, id)
	}
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

// runOperation executes one subscription and forwards its results until
// the source closes or the operation is cancelled.
func (s *wsSession) runOperation(ctx context.Context, id string, req graphqlRequest) {
	defer s.stopOperation(id)

	results := graphql.Subscribe(graphql.Params{
		Schema:         s.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	for {
		select {
		case <-ctx.Done():
			return
		case result, ok := <-results:
			if !ok {
				s.enqueue(wsMessage{ID: id, Type: gqlComplete})
				return
			}
			if result.Data == nil && len(result.Errors) > 0 {
				s.enqueuePayload(id, gqlError, result.Errors)
				return
			}
			s.enqueuePayload(id, gqlNext, result)
		}
	}
}

func (s *wsSession) enqueuePayload(id, msgType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("marshal websocket payload", zap.Error(err))
		return
	}
	s.enqueue(wsMessage{ID: id, Type: msgType, Payload: raw})
}

func (s *wsSession) enqueue(msg wsMessage) {
	select {
	case s.send <- msg:
	case <-s.ctx.Done():
	}
}

func (s *wsSession) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			deadline := time.Now().Add(wsWriteWait)
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		case msg := <-s.send:
			if err := s.write(msg); err != nil {
				s.cancel()
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(wsWriteWait)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.cancel()
				return
			}
		}
	}
}

func (s *wsSession) write(msg wsMessage) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

// closeWith sends a protocol close frame. Control frames may be written
// concurrently with the write pump.
func (s *wsSession) closeWith(code int, reason string) {
	deadline := time.Now().Add(wsWriteWait)
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	s.cancel()
}
