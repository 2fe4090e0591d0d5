package slp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/Tnze/go-mc/bot"
)

// DefaultTimeout bounds the whole exchange, connect included.
const DefaultTimeout = 3 * time.Second

// ErrInvalidPort is returned for ports outside 1-65535.
var ErrInvalidPort = errors.New("slp: invalid port")

// pingFunc matches bot.PingAndListContext: the raw status JSON and the
// ping round trip.
type pingFunc func(ctx context.Context, addr string) ([]byte, time.Duration, error)

// Client queries a server's status.
type Client struct {
	Timeout time.Duration

	ping pingFunc
}

// NewClient returns a Client with the default timeout.
func NewClient() *Client {
	return &Client{
		Timeout: DefaultTimeout,
		ping:    bot.PingAndListContext,
	}
}

// Query connects to host:port and performs one status and ping exchange.
func (c *Client) Query(ctx context.Context, host string, port int) (Response, error) {
	if port <= 0 || port > 65535 {
		return Response{}, fmt.Errorf("%w %d", ErrInvalidPort, port)
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ping := c.ping
	if ping == nil {
		ping = bot.PingAndListContext
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	body, delay, err := ping(ctx, addr)
	if err != nil {
		return Response{}, fmt.Errorf("query %s: %w", addr, err)
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, fmt.Errorf("decode status json: %w", err)
	}
	resp.Latency = delay
	return resp, nil
}
