package transport

import (
	"net"
	"sync"
	"time"

	"github.com/dcsommer/vldmgo/errors"
	"github.com/dcsommer/vldmgo/future"
	"github.com/dcsommer/vldmgo/logging"
	"github.com/dcsommer/vldmgo/wire"
)

// Config bundles the per-connection tunables. Zero values are replaced with
// the defaults documented on each field.
type Config struct {
	// ProtocolTag is the 3-byte ASCII tag sent immediately after connecting.
	// Defaults to "pb0".
	ProtocolTag string
	// DialTimeout bounds a single connect attempt. Defaults to 5s.
	DialTimeout time.Duration
	// RequestTimeout is how long a request may sit in-flight before the
	// socket is closed. Defaults to 5s.
	RequestTimeout time.Duration
	// TickInterval is the health-check cadence. Defaults to 5s.
	TickInterval time.Duration
	// Dialer is the connect strategy. Defaults to DefaultDialer.
	Dialer Dialer
	// Logger receives connection lifecycle events. Defaults to a no-op
	// discard logger; callers running a shared logging setup should inject
	// their own instance rather than rely on a package-level singleton.
	Logger logging.ILogger
}

func (c Config) withDefaults() Config {
	if c.ProtocolTag == "" {
		c.ProtocolTag = "pb0"
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 5 * time.Second
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 5 * time.Second
	}
	if c.Dialer == nil {
		c.Dialer = DefaultDialer
	}
	if c.Logger == nil {
		c.Logger = logging.Noop()
	}
	return c
}

// Connection is one TCP connection to a cluster node, implementing the
// Connecting -> ProtocolProposal -> Idle -> Request -> Disconnected state
// machine described for this client. Every field below mu is only ever
// touched while holding mu; the two background goroutines (tickLoop and
// readLoop) communicate with the rest of the type exclusively through
// locked methods.
type Connection struct {
	addr string
	cfg  Config

	mu          sync.Mutex
	state       State
	conn        net.Conn
	inbound     []byte
	negotiating *future.Future[[]byte]
	inFlight    *PendingRequest
	queue       []*PendingRequest
	lastSend    time.Time
	closeReason error
	shutdown    bool
	readGen     uint64

	stopTicker chan struct{}
}

// New creates a Connection to addr. Call Start to begin dialing.
func New(addr string, cfg Config) *Connection {
	return &Connection{
		addr:       addr,
		cfg:        cfg.withDefaults(),
		state:      Disconnected,
		stopTicker: make(chan struct{}),
	}
}

// Addr returns the connection's target address.
func (c *Connection) Addr() string {
	return c.addr
}

// Start begins the connect/negotiate cycle and the periodic health tick.
// It returns immediately; dialing happens on a background goroutine. The
// state is already Connecting when Start returns, so a request submitted
// right after it is queued rather than failed.
func (c *Connection) Start() {
	c.mu.Lock()
	if !c.shutdown && c.state == Disconnected {
		c.state = Connecting
	}
	c.mu.Unlock()
	go c.tickLoop()
	go c.connect()
}

// State returns the connection's current state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Health reports "good" for every state but Disconnected, per the client's
// coarse-grained replica-health check.
func (c *Connection) Health() Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Idle, Request, Connecting, ProtocolProposal:
		return HealthGood
	default:
		return HealthBad
	}
}

// Submit enqueues a request frame for dispatch and returns a Future that
// resolves with the raw response body. A Connection in Disconnected state
// fails the request immediately; Connecting/ProtocolProposal/Idle/Request
// all queue it (Idle dispatches it right away).
func (c *Connection) Submit(frame []byte) *future.Future[[]byte] {
	result := future.New[[]byte]()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shutdown {
		result.Fail(errors.NewServer(errors.CodeShutdownRequested, "connection to %s is shutting down", c.addr))
		return result
	}
	if c.state == Disconnected {
		result.Fail(errors.WrapServer(errors.CodeConnectionClosed, c.closeReason, "connection to %s is disconnected", c.addr))
		return result
	}

	c.queue = append(c.queue, &PendingRequest{Frame: frame, Result: result})
	c.dispatchLocked()
	return result
}

// Shutdown requests a graceful stop: the socket is closed, every in-flight
// and queued request fails, and the health tick stops. Shutdown is
// idempotent.
func (c *Connection) Shutdown() {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return
	}
	c.shutdown = true
	reason := errors.NewServer(errors.CodeShutdownRequested, "connection to %s shut down", c.addr)

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	if c.negotiating != nil {
		c.negotiating.Fail(reason)
		c.negotiating = nil
	}
	if c.inFlight != nil {
		c.inFlight.Result.Fail(reason)
		c.inFlight = nil
	}
	for _, pr := range c.queue {
		pr.Result.Fail(reason)
	}
	c.queue = nil
	c.state = Disconnected
	c.closeReason = reason
	c.mu.Unlock()

	close(c.stopTicker)
}

// --------------------------------------------------------------------------
// connect / negotiate
// --------------------------------------------------------------------------

func (c *Connection) connect() {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return
	}
	c.state = Connecting
	c.mu.Unlock()

	conn, err := c.cfg.Dialer.Dial(c.addr, c.cfg.DialTimeout)
	if err != nil {
		c.mu.Lock()
		if !c.shutdown {
			c.closeLocked(errors.WrapServer(errors.CodeConnectionRefused, err, "dial %s failed", c.addr))
		}
		c.mu.Unlock()
		c.cfg.Logger.Warningf("dial %s failed: %v", c.addr, err)
		return
	}

	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.inbound = c.inbound[:0]
	c.readGen++
	gen := c.readGen
	c.negotiating = future.New[[]byte]()
	c.state = ProtocolProposal
	c.lastSend = time.Now()
	c.mu.Unlock()
	_, werr := conn.Write([]byte(c.cfg.ProtocolTag))
	if werr != nil {
		reason := errors.WrapServer(errors.CodeConnectionClosed, werr, "writing protocol tag to %s failed", c.addr)
		c.mu.Lock()
		if c.conn == conn {
			c.closeLocked(reason)
		}
		c.mu.Unlock()
		return
	}

	go c.readLoop(conn, gen)
}

// readLoop is the sole reader of conn. It runs until Read returns an error
// (including one triggered by Close from another goroutine).
func (c *Connection) readLoop(conn net.Conn, gen uint64) {
	buf := make([]byte, 64*1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			c.onData(append([]byte(nil), buf[:n]...), gen)
		}
		if err != nil {
			c.onReadError(err, gen)
			return
		}
	}
}

func (c *Connection) onData(data []byte, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.readGen || c.shutdown {
		return
	}
	c.inbound = append(c.inbound, data...)
	c.drainLocked()
}

func (c *Connection) onReadError(err error, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.readGen || c.shutdown {
		return
	}
	c.closeLocked(errors.WrapServer(errors.CodeConnectionClosed, err, "connection to %s closed", c.addr))
}

// drainLocked consumes as many complete protocol units (the negotiation
// reply, then framed responses) as inbound currently holds.
func (c *Connection) drainLocked() {
	for {
		switch c.state {
		case ProtocolProposal:
			if len(c.inbound) < 2 {
				return
			}
			reply := string(c.inbound[:2])
			c.inbound = c.inbound[2:]
			neg := c.negotiating
			c.negotiating = nil
			if reply == "ok" {
				c.state = Idle
				if neg != nil {
					neg.Succeed(nil)
				}
				c.dispatchLocked()
				continue
			}
			err := errors.NewClient(errors.CodeProtocolRejected, "server rejected protocol tag %q", c.cfg.ProtocolTag)
			if neg != nil {
				neg.Fail(err)
			}
			c.closeLocked(err)
			return

		case Request:
			body, consumed, ok, err := wire.TryReadFrame(c.inbound)
			if err != nil {
				c.closeLocked(err)
				return
			}
			if !ok {
				return
			}
			c.inbound = c.inbound[consumed:]
			pr := c.inFlight
			c.inFlight = nil
			c.state = Idle
			if pr != nil {
				pr.Result.Succeed(body)
			}
			c.dispatchLocked()

		default:
			return
		}
	}
}

// dispatchLocked sends the next queued request if idle. The frame is written
// on its own goroutine, so neither the caller nor mu waits on the peer; a
// failed write closes the connection if it is still the one the request
// went out on.
func (c *Connection) dispatchLocked() {
	if c.state != Idle || len(c.queue) == 0 {
		return
	}
	pr := c.queue[0]
	c.queue = c.queue[1:]
	c.state = Request
	c.inFlight = pr
	c.lastSend = time.Now()

	if c.conn == nil {
		c.inFlight = nil
		c.state = Disconnected
		pr.Result.Fail(errors.NewServer(errors.CodeConnectionClosed, "connection to %s has no live socket", c.addr))
		return
	}
	conn := c.conn
	go func() {
		if _, err := conn.Write(pr.Frame); err != nil {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.conn == conn && c.inFlight == pr {
				c.closeLocked(errors.WrapServer(errors.CodeConnectionClosed, err, "writing request to %s failed", c.addr))
			}
		}
	}()
}

// closeLocked tears the socket down and fails the in-flight request, every
// queued-but-unsent request, and the in-progress negotiation, if any. A
// request stuck in a dead connection's queue never resolves on its own, so
// leaving it queued would hang the caller even when the replica retry
// policy in cluster.GetWithRetry has healthy connections left to try.
func (c *Connection) closeLocked(reason error) {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = Disconnected
	c.closeReason = reason
	c.inbound = nil
	if c.negotiating != nil {
		c.negotiating.Fail(reason)
		c.negotiating = nil
	}
	if c.inFlight != nil {
		pr := c.inFlight
		c.inFlight = nil
		pr.Result.Fail(reason)
	}
	for _, pr := range c.queue {
		pr.Result.Fail(reason)
	}
	c.queue = nil
}

// --------------------------------------------------------------------------
// health tick
// --------------------------------------------------------------------------

func (c *Connection) tickLoop() {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.tick()
		case <-c.stopTicker:
			return
		}
	}
}

func (c *Connection) tick() {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return
	}
	if c.state == Request && time.Since(c.lastSend) >= c.cfg.RequestTimeout {
		c.closeLocked(errors.NewServer(errors.CodeRequestTimeout, "request to %s exceeded %s", c.addr, c.cfg.RequestTimeout))
	}
	needsDial := c.state == Disconnected
	c.mu.Unlock()

	if needsDial {
		c.connect()
	}
}
