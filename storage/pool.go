package storage

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julea-project/julea-go/jerrors"
)

// conn is one pooled connection to a remote julea-go server.
type conn struct {
	netConn net.Conn
	addr    string
}

func (c *conn) closed() bool {
	// A best-effort liveness probe: a one-byte read with a one-millisecond
	// deadline distinguishes a dead socket (any non-timeout error) from
	// an idle one (a timeout). If a byte is already waiting, it is read
	// and discarded and the connection counts as alive.
	one := make([]byte, 1)
	_ = c.netConn.SetReadDeadline(time.Now().Add(time.Millisecond))
	_, err := c.netConn.Read(one)
	_ = c.netConn.SetReadDeadline(time.Time{})
	if err == nil {
		return false
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return false
	}
	return true
}

func (c *conn) close() error {
	return c.netConn.Close()
}

// Pool is a pop/push connection pool to a single remote server address,
// grounded on backend/smb/connpool.go's getConnection/putConnection/
// drainPool discipline: connections are popped under lock, used outside
// the lock, and pushed back (or discarded on error) by the caller.
type Pool struct {
	addr   string
	dialFn func(ctx context.Context, addr string) (net.Conn, error)

	mu   sync.Mutex
	idle []*conn
}

// NewPool creates a connection pool for addr, using dial to establish new
// connections when the idle list is empty.
func NewPool(addr string, dial func(ctx context.Context, addr string) (net.Conn, error)) *Pool {
	return &Pool{addr: addr, dialFn: dial}
}

// Get pops an idle connection if one is alive, or dials a new one.
func (p *Pool) Get(ctx context.Context) (*conn, error) {
	p.mu.Lock()
	for len(p.idle) > 0 {
		c := p.idle[0]
		p.idle = p.idle[1:]
		if !c.closed() {
			p.mu.Unlock()
			return c, nil
		}
	}
	p.mu.Unlock()

	nc, err := p.dialFn(ctx, p.addr)
	if err != nil {
		return nil, jerrors.New(jerrors.KindBackend, "Pool.Get", err)
	}
	return &conn{netConn: nc, addr: p.addr}, nil
}

// Put returns c to the pool, or discards it if err indicates the
// connection itself is unusable rather than just the last operation
// having failed at the application level.
func (p *Pool) Put(c *conn, err error) {
	if c == nil {
		return
	}
	if err != nil && jerrors.Is(err, jerrors.KindWire) {
		_ = c.close()
		return
	}
	p.mu.Lock()
	p.idle = append(p.idle, c)
	p.mu.Unlock()
}

// Drain closes every idle connection concurrently, same shape as
// drainPool's errgroup fan-out in backend/smb/connpool.go.
func (p *Pool) Drain(ctx context.Context) error {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, c := range idle {
		c := c
		g.Go(func() error {
			return c.close()
		})
	}
	if err := g.Wait(); err != nil {
		return jerrors.New(jerrors.KindBackend, "Pool.Drain", err)
	}
	return nil
}
