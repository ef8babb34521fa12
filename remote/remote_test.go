package remote

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestStateString(t *testing.T) {
	cases := []struct {
		state State
		want  string
	}{
		{Disconnected, "disconnected"},
		{Connecting, "connecting"},
		{Connected, "connected"},
		{Failed, "failed"},
		{State(9), "state(9)"},
	}
	for _, tc := range cases {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("State(%d).String(): expected %q, got %q", int(tc.state), tc.want, got)
		}
	}
}

func TestDefaultsApplied(t *testing.T) {
	c := NewClient(Config{})
	if c.cfg.ConnectTimeout != 5*time.Second {
		t.Errorf("default timeout: expected 5s, got %v", c.cfg.ConnectTimeout)
	}
	if c.cfg.MaxRetries != 3 {
		t.Errorf("default retries: expected 3, got %d", c.cfg.MaxRetries)
	}
	if c.State() != Disconnected {
		t.Errorf("new client should start disconnected, got %v", c.State())
	}
}

func TestConnectLifecycle(t *testing.T) {
	ctx := context.Background()
	c := NewClient(Config{Endpoint: "plume.example:7070"})

	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if c.State() != Connected {
		t.Fatalf("expected connected, got %v", c.State())
	}
	// connecting again is a no-op
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("reconnect should be a no-op, got %v", err)
	}

	info := c.Info()
	if info.Name != "plume-remote" {
		t.Errorf("Info.Name: expected %q, got %q", "plume-remote", info.Name)
	}
	if info.State != Connected {
		t.Errorf("Info.State: expected connected, got %v", info.State)
	}

	c.Disconnect()
	if c.State() != Disconnected {
		t.Errorf("expected disconnected after Disconnect, got %v", c.State())
	}
	if c.LastError() != nil {
		t.Errorf("Disconnect should clear the last error, got %v", c.LastError())
	}
}

func TestConnectForcedOffline(t *testing.T) {
	c := NewClient(Config{Endpoint: "plume.example:7070", ForceOffline: true})

	err := c.Connect(context.Background())
	if !errors.Is(err, ErrOffline) {
		t.Fatalf("expected ErrOffline, got %v", err)
	}
	if c.State() != Failed {
		t.Errorf("expected failed state, got %v", c.State())
	}
	if !errors.Is(c.LastError(), ErrOffline) {
		t.Errorf("LastError: expected ErrOffline, got %v", c.LastError())
	}
}

func TestConnectNoEndpoint(t *testing.T) {
	c := NewClient(Config{})

	err := c.Connect(context.Background())
	if !errors.Is(err, ErrNoEndpoint) {
		t.Fatalf("expected ErrNoEndpoint, got %v", err)
	}
	if c.State() != Failed {
		t.Errorf("expected failed state, got %v", c.State())
	}
}

func TestRetryExhaustion(t *testing.T) {
	ctx := context.Background()
	c := NewClient(Config{MaxRetries: 2})

	for i := 0; i < 2; i++ {
		if err := c.Connect(ctx); !errors.Is(err, ErrNoEndpoint) {
			t.Fatalf("attempt %d: expected ErrNoEndpoint, got %v", i+1, err)
		}
	}

	err := c.Connect(ctx)
	if err == nil {
		t.Fatal("expected an exhaustion error")
	}
	if !strings.Contains(err.Error(), "2 connection attempts exhausted") {
		t.Errorf("exhaustion message: got %q", err)
	}
	if !errors.Is(err, ErrNoEndpoint) {
		t.Errorf("exhaustion error should wrap the last failure, got %v", err)
	}
	if c.State() != Failed {
		t.Errorf("exhaustion should leave the state failed, got %v", c.State())
	}

	// Disconnect resets the counter and attempts flow again
	c.Disconnect()
	if err := c.Connect(ctx); !errors.Is(err, ErrNoEndpoint) {
		t.Fatalf("retry after reset: expected ErrNoEndpoint, got %v", err)
	}
}

func TestConnectCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(Config{Endpoint: "plume.example:7070"})
	if err := c.Connect(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if c.State() != Disconnected {
		t.Errorf("a cancelled attempt should not change the state, got %v", c.State())
	}
}
