package retry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shrtyk/raft-failover/api"
	"github.com/shrtyk/raft-failover/failover"
	"github.com/shrtyk/raft-failover/internal/cbreaker"
	"github.com/shrtyk/raft-failover/pkg/logger"
)

type conn struct{ addr string }

type dialer struct{}

func (dialer) Dial(_ context.Context, addr string) (*conn, error) { return &conn{addr: addr}, nil }
func (dialer) Undial(*conn) error                                 { return nil }

func addr(id string) string { return id + ".local:9000" }

func newProxy(t *testing.T, ids ...string) *failover.Provider[*conn] {
	t.Helper()
	nodes := make(api.StaticNodes, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, api.NodeConfig{NodeID: id, ServiceID: "svc", Address: addr(id)})
	}
	_, log := logger.NewTestLogger()
	p, err := failover.New[*conn](nodes, dialer{}, failover.TestsConfig(), log)
	if err != nil {
		t.Fatalf("failed to build provider: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// recorder remembers which node served every attempt.
type recorder struct {
	mu    sync.Mutex
	nodes []string
}

func (r *recorder) record(h *api.Handle[*conn]) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = append(r.nodes, h.NodeID())
	return len(r.nodes)
}

func TestInvoke(t *testing.T) {
	t.Run("success on first try", func(t *testing.T) {
		p := newProxy(t, "a", "b", "c")
		rec := &recorder{}

		got, err := Invoke(context.Background(), p, func(_ context.Context, h *api.Handle[*conn]) (string, error) {
			rec.record(h)
			return "ok", nil
		})
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if got != "ok" {
			t.Errorf("expected %q, got %q", "ok", got)
		}
		if len(rec.nodes) != 1 {
			t.Errorf("expected 1 attempt, but got: %d", len(rec.nodes))
		}
	})

	t.Run("follows leader redirect", func(t *testing.T) {
		p := newProxy(t, "a", "b", "c")
		rec := &recorder{}

		_, err := Invoke(context.Background(), p, func(_ context.Context, h *api.Handle[*conn]) (int, error) {
			rec.record(h)
			if h.NodeID() != "c" {
				return 0, &api.NotLeaderError{NodeID: h.NodeID(), SuggestedLeader: addr("c")}
			}
			return 1, nil
		})
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if fmt.Sprint(rec.nodes) != "[a c]" {
			t.Errorf("expected attempts on [a c], got %v", rec.nodes)
		}
		if p.CurrentNodeID() != "c" {
			t.Errorf("expected leader c to be remembered, got %s", p.CurrentNodeID())
		}
	})

	t.Run("retries busy node in place", func(t *testing.T) {
		p := newProxy(t, "a", "b")
		rec := &recorder{}

		_, err := Invoke(context.Background(), p, func(_ context.Context, h *api.Handle[*conn]) (int, error) {
			if rec.record(h) < 3 {
				return 0, &api.RetriableError{NodeID: h.NodeID(), Reason: "leader not ready"}
			}
			return 1, nil
		})
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if fmt.Sprint(rec.nodes) != "[a a a]" {
			t.Errorf("expected attempts on [a a a], got %v", rec.nodes)
		}
	})

	t.Run("failure after budget", func(t *testing.T) {
		p := newProxy(t, "a", "b", "c")
		rec := &recorder{}
		callErr := errors.New("connection refused")

		_, err := Invoke(context.Background(), p, func(_ context.Context, h *api.Handle[*conn]) (int, error) {
			rec.record(h)
			return 0, callErr
		})

		var exhausted *api.ExhaustedError
		if !errors.As(err, &exhausted) {
			t.Fatalf("expected ExhaustedError, got: %v", err)
		}
		if !errors.Is(err, callErr) {
			t.Errorf("expected error to wrap %v", callErr)
		}
		if exhausted.Failovers != 3 {
			t.Errorf("expected 3 failovers, got %d", exhausted.Failovers)
		}
		if fmt.Sprint(rec.nodes) != "[a b c a]" {
			t.Errorf("expected attempts on [a b c a], got %v", rec.nodes)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		p := newProxy(t, "a", "b")
		ctx, cancel := context.WithCancel(context.Background())

		attempts := 0
		_, err := Invoke(ctx, p, func(context.Context, *api.Handle[*conn]) (int, error) {
			attempts++
			cancel()
			return 0, errors.New("error")
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled error, but got: %v", err)
		}
		if attempts != 1 {
			t.Errorf("expected 1 attempt, but got: %d", attempts)
		}
	})

	t.Run("closed provider", func(t *testing.T) {
		p := newProxy(t, "a")
		_ = p.Close()

		_, err := Invoke(context.Background(), p, func(context.Context, *api.Handle[*conn]) (int, error) {
			t.Error("call must not run on a closed provider")
			return 0, nil
		})
		if !errors.Is(err, api.ErrProviderClosed) {
			t.Errorf("expected ErrProviderClosed, got: %v", err)
		}
	})
}

func TestInvokeCallTimeout(t *testing.T) {
	p := newProxy(t, "a", "b")
	rec := &recorder{}

	_, err := Invoke(context.Background(), p, func(ctx context.Context, h *api.Handle[*conn]) (int, error) {
		if rec.record(h) == 1 {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return 1, nil
	}, WithCallTimeout(5*time.Millisecond))
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if fmt.Sprint(rec.nodes) != "[a b]" {
		t.Errorf("expected timed out node to be failed over, got %v", rec.nodes)
	}
}

func TestInvokeSkipsOpenBreaker(t *testing.T) {
	p := newProxy(t, "a", "b")
	breakers := cbreaker.NewSet(1, 1, time.Minute)
	rec := &recorder{}
	fn := func(_ context.Context, h *api.Handle[*conn]) (int, error) {
		rec.record(h)
		if h.NodeID() == "a" {
			return 0, errors.New("connection refused")
		}
		return 1, nil
	}

	if _, err := Invoke(context.Background(), p, fn, WithBreakers(breakers)); err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	p.PerformFailover(nil)
	if p.CurrentNodeID() != "a" {
		t.Fatalf("expected to be back on a, got %s", p.CurrentNodeID())
	}

	if _, err := Invoke(context.Background(), p, fn, WithBreakers(breakers)); err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if fmt.Sprint(rec.nodes) != "[a b b]" {
		t.Errorf("expected open breaker to skip a, got %v", rec.nodes)
	}
}
