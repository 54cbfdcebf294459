package signal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/Rendezvous/internal/app/orch"
	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// Options tunes the per-connection transport.
type Options struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	JoinTimeout    time.Duration
	MessagesPerSec float64
	MessageBurst   int
	AllowedOrigins []string
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 32768
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.JoinTimeout <= 0 {
		o.JoinTimeout = 10 * time.Second
	}
	if o.MessagesPerSec <= 0 {
		o.MessagesPerSec = 50
	}
	if o.MessageBurst <= 0 {
		o.MessageBurst = 100
	}
	return o
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	opts     Options
	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	opts = opts.withDefaults()
	ctl := &SignalWSController{
		Orch: o,
		opts: opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: NewOriginChecker(opts.AllowedOrigins),
		},
	}
	o.Notify = ctl
	return ctl
}

var _ orch.Notifier = (*SignalWSController)(nil)

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
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

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	addr := c.ClientIP()

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("addr", addr).Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.opts.ReadLimit)

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	peer := domain.NewPeer(addr)
	log.Info().Str("module", "signal").Str("sid", string(peer.ID)).Str("client", c.GetString("client_token")).Msg("new WS connection")

	sess := core.NewMemberSession(peer, conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.OnConnect(sess, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, peer.ID, conn)
}

func (ctl *SignalWSController) newMessageLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(ctl.opts.MessagesPerSec), ctl.opts.MessageBurst)
}
