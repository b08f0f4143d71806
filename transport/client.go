package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/softnic/softnicd/sv"
)

// Client is a thin synchronous client for the control channel.
type Client struct {
	conn net.Conn
}

// Dial connects to network/address with a 5 second timeout.
func Dial(network, address string) (*Client, error) {
	conn, err := net.DialTimeout(network, address, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s (%s): %w", address, network, err)
	}
	return &Client{conn: conn}, nil
}

// Call sends req and returns the single reply.
func (c *Client) Call(req sv.Value) (sv.Value, error) {
	if err := WriteFrame(c.conn, req); err != nil {
		return sv.Value{}, err
	}
	return ReadFrame(c.conn)
}

func (c *Client) Close() error {
	return c.conn.Close()
}
