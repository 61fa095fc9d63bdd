package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Poker/internal/app"
	"github.com/dkeye/Poker/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// WSConn is an indirection over *websocket.Conn to ease testing.
type WSConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetReadLimit(limit int64)
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Controller terminates websocket connections and translates the JSON
// envelope protocol into orchestrator calls.
type Controller struct {
	Orch    *app.Orchestrator
	Limiter *RateLimiter

	ReadLimit    int64
	SendBuffer   int
	WriteTimeout time.Duration
	PingPeriod   time.Duration
}

func NewController(orch *app.Orchestrator, limiter *RateLimiter) *Controller {
	return &Controller{
		Orch:         orch,
		Limiter:      limiter,
		ReadLimit:    32768,
		SendBuffer:   32,
		WriteTimeout: 5 * time.Second,
		PingPeriod:   54 * time.Second,
	}
}

// Conn wraps a websocket with a buffered outbound queue. TrySend never
// blocks; a full queue is reported as backpressure instead.
type Conn struct {
	conn WSConn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newConn(ws WSConn, buffer int) *Conn {
	return &Conn{
		conn: ws,
		send: make(chan core.Frame, buffer),
	}
}

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the request and runs the connection's pumps. Each
// connection gets a fresh session id; identity lives and dies with the
// socket.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws.SetReadLimit(ctl.ReadLimit)
	conn := newConn(ws, ctl.SendBuffer)

	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.Bind(sid, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}

func (ctl *Controller) sendJSON(c *Conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
