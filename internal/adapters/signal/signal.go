package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Conference/internal/app/orch"
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

// Options tunes the WebSocket transport.
type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	PongWait   time.Duration
	WriteWait  time.Duration
	SendBuffer int
	// RateLimit is the sustained inbound messages per second; zero disables limiting.
	RateLimit float64
	RateBurst int
}

func DefaultOptions() Options {
	return Options{
		ReadLimit:  32768,
		PingPeriod: 54 * time.Second,
		PongWait:   60 * time.Second,
		WriteWait:  10 * time.Second,
		SendBuffer: 64,
		RateLimit:  50,
		RateBurst:  100,
	}
}

type SignalWSController struct {
	Orch    *orch.Orchestrator
	opts    Options
	limiter *RateLimiter
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	def := DefaultOptions()
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = def.PingPeriod
	}
	if opts.PongWait <= 0 {
		opts.PongWait = def.PongWait
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = def.WriteWait
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = def.ReadLimit
	}
	return &SignalWSController{
		Orch:    o,
		opts:    opts,
		limiter: NewRateLimiter(opts.RateLimit, opts.RateBurst),
	}
}

// WsSignalConn is the core.SignalConnection over a WebSocket. Frames are
// queued on a bounded channel drained by the write pump.
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
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
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

// wsSession is the per-connection state handed to message handlers.
type wsSession struct {
	ctx   context.Context
	id    core.ConnID
	token domain.ParticipantID
	conn  *WsSignalConn
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and serves the connection until it
// closes. The client token becomes the default participant id.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := domain.ParticipantID(c.GetString("client_token"))
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, max(ctl.opts.SendBuffer, 1)),
	}
	id := core.ConnID(uuid.NewString())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctl.Orch.Attach(id, conn, cancel)
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("token", string(token)).Msg("new WS connection")

	s := &wsSession{ctx: ctx, id: id, token: token, conn: conn}
	var wg conc.WaitGroup
	wg.Go(func() { ctl.writePump(ctx, conn) })
	wg.Go(func() { ctl.readPump(s) })
	if r := wg.WaitAndRecover(); r != nil {
		log.Error().Str("module", "signal").Str("conn", string(id)).Str("panic", r.String()).Msg("connection pump panicked")
		ctl.Orch.Disconnect(context.WithoutCancel(ctx), id)
	}
	ctl.limiter.Forget(id)
	log.Info().Str("module", "signal").Str("conn", string(id)).Msg("WS connection done")
}
