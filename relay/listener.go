// Package relay runs the connectionless listener and the outbound datagram
// sender. The channel is one-way: datagrams in, fan-out datagrams to room
// members out, never a reply to the sender.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/gabriel-milan/card-game-server/protocol"
)

const maxDatagramSize = 2048

// Listener reads datagrams one at a time and hands them to the dispatcher.
type Listener struct {
	handler *protocol.RelayHandler
	conn    *net.UDPConn
	wg      sync.WaitGroup
}

func New(handler *protocol.RelayHandler) *Listener {
	return &Listener{handler: handler}
}

// Start binds addr and begins reading in a background goroutine.
func (l *Listener) Start(addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	l.conn = conn
	slog.Info("relay listener started", "addr", conn.LocalAddr())

	l.wg.Add(1)
	go l.readLoop()
	return nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

func (l *Listener) readLoop() {
	defer l.wg.Done()
	buf := make([]byte, maxDatagramSize)
	for {
		n, remote, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Error("relay read failed", "error", err)
			continue
		}
		// Single consumer: the datagram is fully handled before the next
		// read reuses buf.
		l.handler.Handle(remote, buf[:n])
	}
}

// Stop closes the socket and waits for the in-flight datagram, if any, to
// finish or for ctx to expire.
func (l *Listener) Stop(ctx context.Context) error {
	if l.conn != nil {
		l.conn.Close()
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
