package chat

import (
	"context"
	"sync"
	"testing"

	"echochat/internal/pkg/errs"
)

// fakeGroupStore serves fixed membership snapshots.
type fakeGroupStore struct {
	groups map[string]map[string]struct{}
}

func (f *fakeGroupStore) MembersOf(groupID string) (map[string]struct{}, *errs.CustomError) {
	members, ok := f.groups[groupID]
	if !ok {
		return nil, errs.NewError(errs.ErrGroupNotFound)
	}

	snapshot := make(map[string]struct{}, len(members))
	for id := range members {
		snapshot[id] = struct{}{}
	}
	return snapshot, nil
}

// fakeRecorder collects recorded messages.
type fakeRecorder struct {
	mu       sync.Mutex
	recorded []Message
}

func (f *fakeRecorder) Record(_ context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.recorded = append(f.recorded, msg)
	return nil
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recorded)
}

func newTestRouter(groups *fakeGroupStore) (*Router, *Registry, *fakeRecorder) {
	registry := NewRegistry()
	recorder := &fakeRecorder{}
	if groups == nil {
		groups = &fakeGroupStore{groups: map[string]map[string]struct{}{}}
	}
	return NewRouter(registry, groups, recorder, "public"), registry, recorder
}

func TestDispatchDirectDelivery(t *testing.T) {
	router, registry, recorder := newTestRouter(nil)

	hA := &fakeConn{}
	hB := &fakeConn{}
	registry.Register(identity("A"), hA)
	registry.Register(identity("B"), hB)

	msg := NewDirectMessage("A", "B", "hi", TypeText)

	result, customErr := router.Dispatch(context.Background(), msg)
	if customErr != nil {
		t.Fatalf("dispatch failed: %v", customErr)
	}

	if !result.Delivered || result.Recipients != 1 {
		t.Errorf("expected delivered=true recipients=1, got %+v", result)
	}

	delivered := hB.sent(EventPrivateMessage)
	if len(delivered) != 1 {
		t.Fatalf("expected exactly one delivery on B's handle, got %d", len(delivered))
	}

	got, ok := delivered[0].Payload.(Message)
	if !ok {
		t.Fatalf("unexpected payload type %T", delivered[0].Payload)
	}
	if got.Content != "hi" || got.SenderID != "A" {
		t.Errorf("message content mangled in transit: %+v", got)
	}

	if len(hA.sent(EventPrivateMessage)) != 0 {
		t.Error("sender should not receive its own direct message")
	}

	if recorder.count() != 1 {
		t.Errorf("expected message recorded once, got %d", recorder.count())
	}
}

func TestDispatchDirectOffline(t *testing.T) {
	router, registry, recorder := newTestRouter(nil)

	registry.Register(identity("A"), &fakeConn{})

	result, customErr := router.Dispatch(context.Background(), NewDirectMessage("A", "B", "hello?", TypeText))
	if customErr != nil {
		t.Fatalf("offline dispatch should not fail: %v", customErr)
	}

	if result.Delivered {
		t.Error("delivery to an offline recipient should report delivered=false")
	}

	if recorder.count() != 1 {
		t.Error("message to offline recipient should still be recorded")
	}
}

func TestDispatchDirectStaleHandle(t *testing.T) {
	router, registry, recorder := newTestRouter(nil)

	registry.Register(identity("B"), &fakeConn{failSend: true})

	result, customErr := router.Dispatch(context.Background(), NewDirectMessage("A", "B", "hi", TypeText))
	if customErr != nil {
		t.Fatalf("stale-handle dispatch should not fail hard: %v", customErr)
	}

	if result.Delivered {
		t.Error("send failure on a stale handle should be a delivery miss")
	}

	if recorder.count() != 1 {
		t.Error("message should be recorded despite the delivery miss")
	}
}

func TestDispatchGroupMembershipEnforced(t *testing.T) {
	groups := &fakeGroupStore{groups: map[string]map[string]struct{}{
		"g1": {"B": {}, "C": {}},
	}}
	router, registry, recorder := newTestRouter(groups)

	hB := &fakeConn{}
	registry.Register(identity("A"), &fakeConn{})
	registry.Register(identity("B"), hB)

	_, customErr := router.Dispatch(context.Background(), NewGroupMessage("A", "g1", "intruding", TypeText))
	if customErr == nil || customErr.Code != errs.ErrNotGroupMember {
		t.Fatalf("expected ErrNotGroupMember, got %v", customErr)
	}

	if len(hB.sent(EventGroupMessage)) != 0 {
		t.Error("rejected group send must produce zero deliveries")
	}

	if recorder.count() != 0 {
		t.Error("rejected group send must not be recorded")
	}
}

func TestDispatchGroupNotFound(t *testing.T) {
	router, _, recorder := newTestRouter(nil)

	_, customErr := router.Dispatch(context.Background(), NewGroupMessage("A", "missing", "hi", TypeText))
	if customErr == nil || customErr.Code != errs.ErrGroupNotFound {
		t.Fatalf("expected ErrGroupNotFound, got %v", customErr)
	}

	if recorder.count() != 0 {
		t.Error("send to a missing group must not be recorded")
	}
}

func TestDispatchGroupFanOut(t *testing.T) {
	groups := &fakeGroupStore{groups: map[string]map[string]struct{}{
		"g1": {"A": {}, "B": {}, "C": {}},
	}}
	router, registry, recorder := newTestRouter(groups)

	hA := &fakeConn{}
	hB := &fakeConn{}
	hC := &fakeConn{}
	registry.Register(identity("A"), hA)
	registry.Register(identity("B"), hB)
	registry.Register(identity("C"), hC)

	result, customErr := router.Dispatch(context.Background(), NewGroupMessage("A", "g1", "hello group", TypeText))
	if customErr != nil {
		t.Fatalf("group dispatch failed: %v", customErr)
	}

	if result.Recipients != 2 || !result.Delivered {
		t.Errorf("expected 2 recipients, got %+v", result)
	}

	if len(hB.sent(EventGroupMessage)) != 1 {
		t.Error("B should receive the group message exactly once")
	}
	if len(hC.sent(EventGroupMessage)) != 1 {
		t.Error("C should receive the group message exactly once")
	}
	if len(hA.sent(EventGroupMessage)) != 0 {
		t.Error("sender should not receive a self-echo")
	}

	if recorder.count() != 1 {
		t.Errorf("expected one recorded message, got %d", recorder.count())
	}
}

func TestDispatchGroupOfflineMembersSkipped(t *testing.T) {
	groups := &fakeGroupStore{groups: map[string]map[string]struct{}{
		"g1": {"A": {}, "B": {}, "C": {}},
	}}
	router, registry, _ := newTestRouter(groups)

	hB := &fakeConn{}
	registry.Register(identity("A"), &fakeConn{})
	registry.Register(identity("B"), hB)
	// C stays offline.

	result, customErr := router.Dispatch(context.Background(), NewGroupMessage("A", "g1", "hi", TypeText))
	if customErr != nil {
		t.Fatalf("group dispatch failed: %v", customErr)
	}

	if result.Recipients != 1 {
		t.Errorf("expected fan-out to the single online member, got %d", result.Recipients)
	}
}

func TestDispatchUnaddressedGoesToDefaultRoom(t *testing.T) {
	groups := &fakeGroupStore{groups: map[string]map[string]struct{}{
		"public": {"A": {}, "B": {}},
	}}
	router, registry, recorder := newTestRouter(groups)

	hB := &fakeConn{}
	registry.Register(identity("A"), &fakeConn{})
	registry.Register(identity("B"), hB)

	msg := NewGroupMessage("A", "", "to everyone", TypeText)

	result, customErr := router.Dispatch(context.Background(), msg)
	if customErr != nil {
		t.Fatalf("default-room dispatch failed: %v", customErr)
	}

	if result.Recipients != 1 {
		t.Errorf("expected default-room delivery to B, got %+v", result)
	}

	delivered := hB.sent(EventGroupMessage)
	if len(delivered) != 1 {
		t.Fatalf("B should receive the default-room message, got %d deliveries", len(delivered))
	}

	got := delivered[0].Payload.(Message)
	if got.GroupID != "public" {
		t.Errorf("unaddressed message should be routed to the public room, got group %q", got.GroupID)
	}

	if recorder.count() != 1 {
		t.Error("default-room message should be recorded")
	}
}

func TestDispatchRejectsDualTarget(t *testing.T) {
	router, _, recorder := newTestRouter(nil)

	msg := NewDirectMessage("A", "B", "hi", TypeText)
	msg.GroupID = "g1"

	_, customErr := router.Dispatch(context.Background(), msg)
	if customErr == nil || customErr.Code != errs.ErrInvalidParams {
		t.Fatalf("message addressed to both a user and a group must be rejected, got %v", customErr)
	}

	if recorder.count() != 0 {
		t.Error("rejected message must not be recorded")
	}
}

func TestBroadcastPresence(t *testing.T) {
	router, registry, _ := newTestRouter(nil)

	hA := &fakeConn{}
	hB := &fakeConn{}
	registry.Register(identity("A"), hA)
	registry.Register(identity("B"), hB)

	router.BroadcastPresence()

	for name, conn := range map[string]*fakeConn{"A": hA, "B": hB} {
		updates := conn.sent(EventOnlineUsers)
		if len(updates) != 1 {
			t.Fatalf("%s should receive one presence update, got %d", name, len(updates))
		}

		payload := updates[0].Payload.(PresencePayload)
		if len(payload.Users) != 2 {
			t.Errorf("%s's presence update should list 2 users, got %d", name, len(payload.Users))
		}
	}
}
