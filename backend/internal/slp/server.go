package slp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	mcnet "github.com/Tnze/go-mc/net"
	pk "github.com/Tnze/go-mc/net/packet"
	"go.uber.org/zap"
)

const (
	packetHandshake = 0x00
	packetStatus    = 0x00
	packetPing      = 0x01

	nextStateStatus = 1

	// fakeProtocolVersion is reported by StaticStatus.
	fakeProtocolVersion = 765

	serverConnDeadline = 5 * time.Second
)

// Server answers status exchanges with whatever its status func returns.
type Server struct {
	status func() Response
	logger *zap.Logger

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// NewServer creates a Server. A nil logger discards output.
func NewServer(status func() Response, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{status: status, logger: logger}
}

// StaticStatus returns a status func that always reports the same values.
func StaticStatus(motd string, online, slots int) func() Response {
	return func() Response {
		return Response{
			Version:     Version{Name: "craftwatch-fake", Protocol: fakeProtocolVersion},
			Players:     Players{Online: online, Max: slots},
			Description: Description{Text: motd},
		}
	}
}

// Listen binds the TCP listener. Pass "127.0.0.1:0" to pick a free port.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

// Addr reports the bound address, or "" before Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Serve accepts connections until ctx is done, then waits for in-flight
// exchanges to finish.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("slp: Serve called before Listen")
	}

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	s.logger.Info("🚀 status server listening", zap.String("addr", ln.Addr().String()))
	defer s.wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.logger.Info("status server stopped", zap.String("addr", ln.Addr().String()))
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(raw net.Conn) {
	_ = raw.SetDeadline(time.Now().Add(serverConnDeadline))
	conn := mcnet.WrapConn(raw)
	defer conn.Close()

	log := s.logger.With(zap.String("remote", raw.RemoteAddr().String()))

	if err := readHandshake(conn); err != nil {
		log.Debug("handshake rejected", zap.Error(err))
		return
	}

	var p pk.Packet
	if err := conn.ReadPacket(&p); err != nil || p.ID != packetStatus {
		log.Debug("status request missing", zap.Error(err))
		return
	}

	body, err := json.Marshal(s.status())
	if err != nil {
		log.Error("encode status", zap.Error(err))
		return
	}
	if err := conn.WritePacket(pk.Marshal(packetStatus, pk.String(body))); err != nil {
		log.Debug("write status failed", zap.Error(err))
		return
	}

	// Optional ping; clients that only want status close here.
	if err := conn.ReadPacket(&p); err != nil || p.ID != packetPing {
		return
	}
	var payload pk.Long
	if err := p.Scan(&payload); err != nil {
		log.Debug("malformed ping", zap.Error(err))
		return
	}
	_ = conn.WritePacket(pk.Marshal(packetPing, payload))
}

// readHandshake accepts only a handshake asking for the status state.
func readHandshake(conn *mcnet.Conn) error {
	var p pk.Packet
	if err := conn.ReadPacket(&p); err != nil {
		return err
	}
	if p.ID != packetHandshake {
		return fmt.Errorf("unexpected packet 0x%02x", p.ID)
	}
	var (
		protocol pk.VarInt
		host     pk.String
		port     pk.UnsignedShort
		next     pk.VarInt
	)
	if err := p.Scan(&protocol, &host, &port, &next); err != nil {
		return fmt.Errorf("decode handshake: %w", err)
	}
	if next != nextStateStatus {
		return fmt.Errorf("next state %d is not status", next)
	}
	return nil
}
