// Package server provides the TCP server loop: one goroutine per
// connection, each reading one request at a time, decoding it with
// pkg/kmsg, dispatching it to internal/handler, and writing back the
// framed response.
package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/ashutoshpw/kbroker/internal/handler"
	"github.com/ashutoshpw/kbroker/pkg/kmsg"
	"github.com/ashutoshpw/kbroker/pkg/logger"
)

// Server is a Kafka-wire-protocol broker façade: it accepts connections,
// decodes requests, and serves them off a fixed, immutable metadata index.
type Server struct {
	addr     string
	log      *logger.Logger
	handler  *handler.Handler
	listener net.Listener
	wg       sync.WaitGroup
	conns    map[net.Conn]struct{}
	connsMu  sync.Mutex
	shutdown chan struct{}
}

// New creates a Server that will listen on addr once Start is called.
func New(addr string, h *handler.Handler, log *logger.Logger) *Server {
	return &Server{
		addr:     addr,
		log:      log,
		handler:  h,
		conns:    make(map[net.Conn]struct{}),
		shutdown: make(chan struct{}),
	}
}

// Start binds the listener and begins accepting connections in the
// background. It returns once the listener is bound.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.addr, err)
	}
	s.listener = listener
	s.log.Info("listening on %s", s.addr)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and every open connection, then waits for all
// connection goroutines to exit.
func (s *Server) Stop() error {
	close(s.shutdown)

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.log.Error("closing listener: %s", err)
		}
	}

	s.connsMu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	s.log.Info("server stopped")
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				s.log.Error("accept: %s", err)
				continue
			}
		}

		s.registerConn(conn)
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) registerConn(c net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[c] = struct{}{}
	s.log.Debug("accepted connection from %s", c.RemoteAddr())
}

func (s *Server) unregisterConn(c net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, c)
}

// headerVersionToFramer picks the response-framing function matching the
// request header layout: ApiVersions replies without a trailing tag
// buffer on the header, every other API key replies with one.
func headerVersionToFramer(headerVersion int) func(int32, kmsg.Response) []byte {
	if headerVersion == 0 {
		return kmsg.EncodeResponseV0
	}
	return kmsg.EncodeResponseV1
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() {
		conn.Close()
		s.unregisterConn(conn)
		s.wg.Done()
	}()

	remote := conn.RemoteAddr().String()
	clog := s.log.With("peer", remote)

	// 4-byte length prefix, then the message itself, read one at a time.
	// This core never pipelines: at most one request is outstanding per
	// connection.
	var sizeBuf [4]byte
	for {
		if _, err := io.ReadFull(conn, sizeBuf[:]); err != nil {
			if !errors.Is(err, io.EOF) {
				clog.Debug("read size prefix: %s", err)
			}
			return
		}
		size := int32(sizeBuf[0])<<24 | int32(sizeBuf[1])<<16 | int32(sizeBuf[2])<<8 | int32(sizeBuf[3])
		if size < 0 {
			clog.Warn("negative message size %d, closing connection", size)
			return
		}

		body := make([]byte, size)
		if _, err := io.ReadFull(conn, body); err != nil {
			clog.Debug("read message body: %s", err)
			return
		}

		framed := append(sizeBuf[:], body...)
		decoded, _, err := kmsg.Decode(framed)
		if err != nil {
			var unsupported *kmsg.ErrUnsupportedAPIKey
			if errors.As(err, &unsupported) {
				clog.Warn("unsupported API key %d, closing connection", unsupported.Key)
			} else {
				clog.Warn("decode request: %s", err)
			}
			return
		}

		headerVersion, resp := s.handler.Handle(decoded)
		out := headerVersionToFramer(headerVersion)(decoded.Header.CorrelationID, resp)
		if _, err := conn.Write(out); err != nil {
			clog.Debug("write response: %s", err)
			return
		}
	}
}
