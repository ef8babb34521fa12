// Package remote implements the connection state machine for the plume
// host's remote-control channel. The wire transport is stubbed out; the
// states, retry accounting and error surface are what the host commands
// program against.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// State is the connection state of a [Client].
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Failed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrOffline is returned by Connect when offline mode is forced.
	ErrOffline = errors.New("connection refused: offline mode is forced")

	// ErrNoEndpoint is returned by Connect when no endpoint is configured.
	ErrNoEndpoint = errors.New("no endpoint configured")
)

// Config carries the client settings.
type Config struct {
	// Endpoint is the server address. An empty endpoint fails Connect.
	Endpoint string

	// ConnectTimeout bounds one connection attempt. A real transport
	// honors it; the stub only carries it.
	ConnectTimeout time.Duration

	// MaxRetries caps consecutive failed attempts before Connect stops
	// trying and reports exhaustion.
	MaxRetries int

	// ForceOffline refuses every connection attempt.
	ForceOffline bool
}

// Info describes the connected server.
type Info struct {
	Name    string
	Version string
	State   State
}

// Client walks the Disconnected → Connecting → Connected state machine.
// Not safe for concurrent use.
type Client struct {
	cfg      Config
	state    State
	attempts int
	lastErr  error
	log      *slog.Logger
}

// NewClient creates a client in the Disconnected state. Zero config
// fields get defaults: 5s timeout, 3 retries.
func NewClient(cfg Config) *Client {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &Client{cfg: cfg, log: slog.Default()}
}

// Connect attempts to reach the configured endpoint. Connecting while
// already connected is a no-op. After MaxRetries consecutive failures
// further attempts return an exhaustion error without touching the state.
func (c *Client) Connect(ctx context.Context) error {
	if c.state == Connected {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.state == Failed && c.attempts >= c.cfg.MaxRetries {
		return fmt.Errorf("%d connection attempts exhausted: %w", c.attempts, c.lastErr)
	}
	c.attempts++
	c.setState(Connecting)
	if c.cfg.ForceOffline {
		return c.fail(ErrOffline)
	}
	if c.cfg.Endpoint == "" {
		return c.fail(ErrNoEndpoint)
	}
	c.setState(Connected)
	c.attempts = 0
	c.log.Info("remote connected", "endpoint", c.cfg.Endpoint)
	return nil
}

// Disconnect drops back to Disconnected and resets the retry counter.
func (c *Client) Disconnect() {
	if c.state == Connected {
		c.log.Info("remote disconnected", "endpoint", c.cfg.Endpoint)
	}
	c.setState(Disconnected)
	c.attempts = 0
	c.lastErr = nil
}

// State returns the current connection state.
func (c *Client) State() State {
	return c.state
}

// LastError returns the error of the most recent failed attempt.
func (c *Client) LastError() error {
	return c.lastErr
}

// Info returns the server description. Name and version are placeholders
// until a real transport fills them during the handshake.
func (c *Client) Info() Info {
	return Info{Name: "plume-remote", Version: "0.1.0", State: c.state}
}

func (c *Client) fail(err error) error {
	c.lastErr = err
	c.setState(Failed)
	return err
}

func (c *Client) setState(s State) {
	if c.state == s {
		return
	}
	c.log.Debug("remote state change", "from", c.state.String(), "to", s.String())
	c.state = s
}
