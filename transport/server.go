// Package transport implements the control channel: a length-prefixed SV
// framing over a net.Listener (unix or tcp), a single framed
// request/response loop serialized per connection.
package transport

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/softnic/softnicd/sv"
	"github.com/softnic/softnicd/switchcore"
)

const maxMessageSize = 64 << 20

// Server accepts connections on a single net.Listener and dispatches every
// framed request it receives to a Switch's Dispatcher.
type Server struct {
	log *logrus.Entry
	sw  *switchcore.Switch

	mu  sync.Mutex
	lis net.Listener
}

func NewServer(log *logrus.Entry, sw *switchcore.Switch) *Server {
	return &Server{log: log, sw: sw}
}

// Serve binds network/address and accepts connections until ctx is
// cancelled or the listener is closed.
func (s *Server) Serve(ctx context.Context, network, address string) error {
	lis, err := net.Listen(network, address)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lis = lis
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		lis.Close()
	}()

	for {
		conn, err := lis.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handleConn(ctx, conn)
	}
}

// Close shuts down the listener, if bound.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	return s.lis.Close()
}

// handleConn serves one connection: requests are read and dispatched in
// arrival order, matching per-channel ordering guarantee, with no
// ordering promised across connections.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	for {
		req, err := ReadFrame(conn)
		if err != nil {
			if err != io.EOF {
				s.log.WithError(err).Debug("control channel read failed")
			}
			return
		}

		reply := s.sw.Dispatch.Dispatch(ctx, req)

		if err := WriteFrame(conn, reply); err != nil {
			s.log.WithError(err).Debug("control channel write failed")
			return
		}
	}
}

// ReadFrame reads one 4-byte big-endian length prefix followed by that many
// bytes of msgpack-encoded SV payload.
func ReadFrame(r io.Reader) (sv.Value, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return sv.Value{}, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxMessageSize {
		return sv.Value{}, switchcore.NewError(switchcore.E2BIG, "frame of %d bytes exceeds max %d", n, maxMessageSize)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return sv.Value{}, err
	}
	return sv.Unmarshal(payload)
}

// WriteFrame writes v as a length-prefixed msgpack payload.
func WriteFrame(w io.Writer, v sv.Value) error {
	payload, err := sv.Marshal(v)
	if err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}
