package bastion

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xraph/bastion/id"
)

// chanNotifier is an in-process Notifier shared by several engines.
type chanNotifier struct {
	mu        sync.Mutex
	listeners []chan []string
	published [][]string
}

func (n *chanNotifier) Publish(_ context.Context, roleIDs []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, roleIDs)
	for _, l := range n.listeners {
		l <- roleIDs
	}
	return nil
}

func (n *chanNotifier) Listen(ctx context.Context, fn func([]string)) error {
	ch := make(chan []string, 16)
	n.mu.Lock()
	n.listeners = append(n.listeners, ch)
	n.mu.Unlock()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ids := <-ch:
			fn(ids)
		}
	}
}

func (n *chanNotifier) listenerCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners)
}

func TestNotifierPropagatesInvalidation(t *testing.T) {
	ctx := context.Background()
	bus := &chanNotifier{}

	writer, s := newTestEngine(t, WithNotifier(bus))
	reader, err := NewEngine(WithStore(s), WithNotifier(bus))
	if err != nil {
		t.Fatal(err)
	}
	if err := reader.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = reader.Stop(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for bus.listenerCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("listener did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	r := mustRole(t, writer, "viewer", nil)
	roles := []id.RoleID{r.ID}
	if ok, _ := reader.HasSchemaPermission(ctx, roles, "posts", ScopeRead); ok {
		t.Fatal("expected deny before grant")
	}

	p := mustPerm(t, writer, "content:posts:read", ScopeRead, schema("posts"))
	if _, err := writer.AssignPermissions(ctx, r.ID, []id.PermissionID{p.ID}); err != nil {
		t.Fatal(err)
	}

	deadline = time.Now().Add(2 * time.Second)
	for {
		ok, err := reader.HasSchemaPermission(ctx, roles, "posts", ScopeRead)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("reader cache was never invalidated")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStartStopWithoutNotifier(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	if err := eng.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := eng.Stop(ctx); err != nil {
		t.Fatal(err)
	}
}
