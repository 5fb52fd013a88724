package server

import (
	"context"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/julea-project/julea-go/jerrors"
	"github.com/julea-project/julea-go/julog"
	"github.com/julea-project/julea-go/wire"
)

// Daemon is the server-side accept loop: one goroutine accepts
// connections, handing each off to its own worker goroutine drawn
// implicitly from the Go scheduler's own pool, turning
// backend/smb/connpool.go's client-side dial-then-pool shape inside out
// into accept-then-serve.
type Daemon struct {
	listener net.Listener
	handler  *Handler

	wg sync.WaitGroup
}

// Listen binds addr and returns a Daemon ready to Serve.
func Listen(addr string, handler *Handler) (*Daemon, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, jerrors.New(jerrors.KindBackend, "Listen", err)
	}
	return &Daemon{listener: l, handler: handler}, nil
}

// Serve accepts connections until ctx is cancelled or a SIGHUP, SIGINT or
// SIGTERM is received, matching spec.md section 6's signal contract: a
// clean shutdown waits for in-flight connections to finish.
func (d *Daemon) Serve(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case sig := <-sigCh:
			julog.Infof(d, "received %v, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		<-ctx.Done()
		_ = d.listener.Close()
	}()

	for {
		conn, err := d.listener.Accept()
		if err != nil {
			d.wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return jerrors.New(jerrors.KindBackend, "Serve", err)
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.serveConn(conn)
		}()
	}
}

func (d *Daemon) serveConn(conn net.Conn) {
	defer conn.Close()
	for {
		hdr, payload, err := wire.ReadFrame(conn)
		if err != nil {
			return
		}
		replyHdr, replyPayload, err := d.handler.HandleFrame(hdr, payload)
		if err != nil {
			julog.Errorf(d, "handle frame: %v", err)
			return
		}
		safety := hdr.SafetyOf()
		serverMode := hdr.ServerModeOf()
		if err := wire.WriteFrame(conn, replyHdr.Type, replyHdr.OpCount, safety, serverMode, replyPayload); err != nil {
			julog.Errorf(d, "write reply: %v", err)
			return
		}
	}
}

// Addr returns the daemon's bound listen address.
func (d *Daemon) Addr() net.Addr { return d.listener.Addr() }

func (d *Daemon) String() string { return "server.Daemon(" + d.listener.Addr().String() + ")" }
