// Package control runs the connection-oriented listener: one request and
// one reply per accepted connection, then close.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gabriel-milan/card-game-server/protocol"
)

const (
	maxRequestSize = 4096
	ioTimeout      = 5 * time.Second
)

// Listener accepts control connections and handles them one at a time.
type Listener struct {
	handler *protocol.ControlHandler
	ln      net.Listener
	wg      sync.WaitGroup
}

func New(handler *protocol.ControlHandler) *Listener {
	return &Listener{handler: handler}
}

// Start binds addr and begins accepting in a background goroutine.
func (l *Listener) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	l.ln = ln
	slog.Info("control listener started", "addr", ln.Addr())

	l.wg.Add(1)
	go l.acceptLoop()
	return nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Error("accept failed", "error", err)
			continue
		}
		// Requests are handled to completion before the next accept.
		l.handleConn(conn)
	}
}

func (l *Listener) handleConn(conn net.Conn) {
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(ioTimeout))

	// A request may arrive split across segments; the decoder reads until
	// one complete JSON value is in. A decode failure leaves raw nil, which
	// the dispatcher answers with the generic failure reply.
	var raw json.RawMessage
	if err := json.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		slog.Warn("control read failed", "remote", conn.RemoteAddr(), "error", err)
	}
	slog.Debug("control request", "remote", conn.RemoteAddr(), "bytes", len(raw))

	reply := l.handler.Handle(conn.RemoteAddr(), raw)
	if _, err := conn.Write(protocol.EncodeReply(reply)); err != nil {
		slog.Warn("control write failed", "remote", conn.RemoteAddr(), "error", err)
	}
}

// Stop closes the listener and waits for the in-flight request, if any, to
// finish or for ctx to expire.
func (l *Listener) Stop(ctx context.Context) error {
	if l.ln != nil {
		l.ln.Close()
	}
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
