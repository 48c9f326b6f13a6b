package chat

import (
	"context"
	"testing"
	"time"

	"echochat/internal/app/group"
	"echochat/internal/pkg/auth/jwt"
	"echochat/internal/pkg/errs"
)

const testSecret = "test-secret"

func testToken(t *testing.T, userID, username string) string {
	t.Helper()

	token, err := jwt.GenerateToken(&jwt.Payload{
		UserID:   userID,
		Username: username,
	}, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

func newTestHub() (*Hub, *fakeRecorder) {
	groups := group.NewStore()
	registry := NewRegistry()
	recorder := &fakeRecorder{}
	router := NewRouter(registry, groups, recorder, group.PublicGroupID)
	return NewHub(registry, router, groups, testSecret, group.PublicGroupID), recorder
}

func TestHubRejectsInvalidCredential(t *testing.T) {
	hub, _ := newTestHub()

	conn := &fakeConn{}
	_, customErr := hub.Connect("not-a-token", conn)
	if customErr == nil || customErr.Code != errs.ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid, got %v", customErr)
	}

	if hub.Registry().Count() != 0 {
		t.Error("rejected connection must not mutate the registry")
	}
}

func TestHubRejectsExpiredCredential(t *testing.T) {
	hub, _ := newTestHub()

	token, err := jwt.GenerateToken(&jwt.Payload{UserID: "a", Username: "alice"}, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("failed to generate expired token: %v", err)
	}

	if _, customErr := hub.Connect(token, &fakeConn{}); customErr == nil {
		t.Fatal("expired credential must be rejected")
	}
}

func TestHubConnectRegistersAndAnnounces(t *testing.T) {
	hub, _ := newTestHub()

	connA := &fakeConn{}
	identityA, customErr := hub.Connect(testToken(t, "a", "alice"), connA)
	if customErr != nil {
		t.Fatalf("connect failed: %v", customErr)
	}

	if identityA.ID != "a" || identityA.Username != "alice" {
		t.Errorf("verified identity mismatch: %+v", identityA)
	}

	snapshot := hub.Registry().Presence()
	if len(snapshot) != 1 || snapshot[0].ID != "a" {
		t.Fatalf("presence should contain exactly A, got %+v", snapshot)
	}

	if len(connA.sent(EventOnlineUsers)) != 1 {
		t.Error("A should receive a presence update on connect")
	}
}

func TestHubReconnectKicksSupersededConnection(t *testing.T) {
	hub, _ := newTestHub()

	oldConn := &fakeConn{}
	newConn := &fakeConn{}

	if _, customErr := hub.Connect(testToken(t, "a", "alice"), oldConn); customErr != nil {
		t.Fatalf("first connect failed: %v", customErr)
	}
	if _, customErr := hub.Connect(testToken(t, "a", "alice"), newConn); customErr != nil {
		t.Fatalf("second connect failed: %v", customErr)
	}

	if !oldConn.wasKicked() {
		t.Error("superseded connection should be force-closed")
	}

	if hub.Registry().Count() != 1 {
		t.Errorf("reconnect should leave a single session, got %d", hub.Registry().Count())
	}

	conn, ok := hub.Registry().Lookup("a")
	if !ok || conn != Conn(newConn) {
		t.Error("registry should resolve to the newest handle after reconnect")
	}

	// Late disconnect from the kicked connection must not evict the new session.
	hub.Disconnect("a", oldConn)
	if hub.Registry().Count() != 1 {
		t.Error("stale disconnect evicted the newer session")
	}
}

func TestHubEndToEndScenario(t *testing.T) {
	hub, recorder := newTestHub()

	// Connect A.
	connA := &fakeConn{}
	if _, customErr := hub.Connect(testToken(t, "a", "alice"), connA); customErr != nil {
		t.Fatalf("connect A failed: %v", customErr)
	}

	snapshot := hub.Registry().Presence()
	if len(snapshot) != 1 || snapshot[0].ID != "a" {
		t.Fatalf("presence should contain A, got %+v", snapshot)
	}

	// Connect B.
	connB := &fakeConn{}
	if _, customErr := hub.Connect(testToken(t, "b", "bob"), connB); customErr != nil {
		t.Fatalf("connect B failed: %v", customErr)
	}

	snapshot = hub.Registry().Presence()
	if len(snapshot) != 2 || snapshot[0].ID != "a" || snapshot[1].ID != "b" {
		t.Fatalf("presence should contain [a b], got %+v", snapshot)
	}

	// A sends a direct message to B.
	msg := NewDirectMessage("a", "b", "hi bob", TypeText)
	result, customErr := hub.Router().Dispatch(context.Background(), msg)
	if customErr != nil {
		t.Fatalf("dispatch failed: %v", customErr)
	}
	if !result.Delivered {
		t.Fatal("direct message to online B should be delivered")
	}

	delivered := connB.sent(EventPrivateMessage)
	if len(delivered) != 1 {
		t.Fatalf("B should have received the message, got %d deliveries", len(delivered))
	}
	if got := delivered[0].Payload.(Message); got.Content != "hi bob" {
		t.Errorf("message content mangled: %q", got.Content)
	}

	if recorder.count() != 1 {
		t.Errorf("expected one recorded message, got %d", recorder.count())
	}

	// B disconnects.
	hub.Disconnect("b", connB)

	snapshot = hub.Registry().Presence()
	if len(snapshot) != 1 || snapshot[0].ID != "a" {
		t.Fatalf("presence should contain only A after B disconnects, got %+v", snapshot)
	}

	// A was told about both presence changes plus its own connect.
	if updates := connA.sent(EventOnlineUsers); len(updates) != 3 {
		t.Errorf("A should have received 3 presence updates, got %d", len(updates))
	}
}

func TestHubConnectJoinsDefaultRoom(t *testing.T) {
	hub, _ := newTestHub()

	connA := &fakeConn{}
	connB := &fakeConn{}

	if _, customErr := hub.Connect(testToken(t, "a", "alice"), connA); customErr != nil {
		t.Fatalf("connect A failed: %v", customErr)
	}
	if _, customErr := hub.Connect(testToken(t, "b", "bob"), connB); customErr != nil {
		t.Fatalf("connect B failed: %v", customErr)
	}

	// An unaddressed message lands in the default public room both users joined at connect.
	result, customErr := hub.Router().Dispatch(context.Background(), NewGroupMessage("a", "", "hello room", TypeText))
	if customErr != nil {
		t.Fatalf("default-room dispatch failed: %v", customErr)
	}

	if result.Recipients != 1 {
		t.Errorf("expected B to receive the default-room message, got %+v", result)
	}
	if len(connB.sent(EventGroupMessage)) != 1 {
		t.Error("B should have received the default-room message")
	}
}
