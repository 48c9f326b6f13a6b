package chat

import (
	"fmt"
	"sync"
	"testing"

	"echochat/internal/app/user"
)

// fakeConn is a Conn implementation that records every event sent to it.
type fakeConn struct {
	mu     sync.Mutex
	events []fakeEvent
	kicked bool
	reason string

	// failSend makes Send return an error, simulating a stale handle.
	failSend bool
}

type fakeEvent struct {
	Type    EventType
	Payload any
}

func (f *fakeConn) Send(eventType EventType, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failSend {
		return fmt.Errorf("connection gone")
	}

	f.events = append(f.events, fakeEvent{Type: eventType, Payload: payload})
	return nil
}

func (f *fakeConn) Kick(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.kicked = true
	f.reason = reason
}

func (f *fakeConn) sent(eventType EventType) []fakeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []fakeEvent
	for _, e := range f.events {
		if e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func (f *fakeConn) wasKicked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kicked
}

func identity(id string) user.Identity {
	return user.Identity{ID: id, Username: "user-" + id}
}

func TestRegistryPresenceConsistency(t *testing.T) {
	registry := NewRegistry()

	registry.Register(identity("a"), &fakeConn{})
	registry.Register(identity("b"), &fakeConn{})
	registry.Register(identity("c"), &fakeConn{})
	registry.Deregister("b")

	snapshot := registry.Presence()
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 presence entries, got %d", len(snapshot))
	}

	if snapshot[0].ID != "a" || snapshot[1].ID != "c" {
		t.Errorf("expected presence [a c] in registration order, got [%s %s]", snapshot[0].ID, snapshot[1].ID)
	}

	for _, entry := range snapshot {
		if !entry.IsOnline {
			t.Errorf("presence entry %s should be marked online", entry.ID)
		}
	}
}

func TestRegistryDeregisterIdempotent(t *testing.T) {
	registry := NewRegistry()

	registry.Register(identity("a"), &fakeConn{})

	registry.Deregister("ghost")
	registry.Deregister("ghost")

	if registry.Count() != 1 {
		t.Errorf("deregister of unknown user altered presence: count = %d", registry.Count())
	}
}

func TestRegistryLastWriteWins(t *testing.T) {
	registry := NewRegistry()

	h1 := &fakeConn{}
	h2 := &fakeConn{}

	if superseded := registry.Register(identity("a"), h1); superseded != nil {
		t.Fatal("first register should not supersede anything")
	}

	superseded := registry.Register(identity("a"), h2)
	if superseded != Conn(h1) {
		t.Fatal("second register should return the first handle as superseded")
	}

	conn, ok := registry.Lookup("a")
	if !ok || conn != Conn(h2) {
		t.Fatal("lookup should resolve to the newest handle")
	}

	snapshot := registry.Presence()
	if len(snapshot) != 1 {
		t.Fatalf("expected a single presence entry after reconnect, got %d", len(snapshot))
	}
}

func TestRegistryDeregisterConnIgnoresStaleHandle(t *testing.T) {
	registry := NewRegistry()

	h1 := &fakeConn{}
	h2 := &fakeConn{}

	registry.Register(identity("a"), h1)
	registry.Register(identity("a"), h2)

	// Late disconnect from the superseded connection must not evict the new session.
	if removed := registry.DeregisterConn("a", h1); removed {
		t.Fatal("stale handle should not deregister the newer session")
	}

	if _, ok := registry.Lookup("a"); !ok {
		t.Fatal("session should still be live after stale deregister")
	}

	if removed := registry.DeregisterConn("a", h2); !removed {
		t.Fatal("current handle should deregister the session")
	}

	if registry.Count() != 0 {
		t.Errorf("expected empty registry, got %d sessions", registry.Count())
	}
}

func TestRegistryLookupOffline(t *testing.T) {
	registry := NewRegistry()

	if _, ok := registry.Lookup("nobody"); ok {
		t.Error("lookup of unregistered user should report offline")
	}
}

func TestRegistryConcurrentChurn(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			id := fmt.Sprintf("user-%d", n)
			conn := &fakeConn{}

			registry.Register(identity(id), conn)
			registry.Presence()
			registry.Lookup(id)

			if n%2 == 0 {
				registry.DeregisterConn(id, conn)
			}
		}(i)
	}
	wg.Wait()

	if registry.Count() != 25 {
		t.Errorf("expected 25 sessions after churn, got %d", registry.Count())
	}

	if len(registry.Presence()) != 25 {
		t.Errorf("presence snapshot diverged from session count")
	}
}
