package group

import (
	"testing"

	"echochat/internal/pkg/errs"
)

func TestStoreSeedsPublicGroup(t *testing.T) {
	s := NewStore()

	info, customErr := s.Get(PublicGroupID)
	if customErr != nil {
		t.Fatalf("public group should exist: %v", customErr)
	}

	if !info.IsPublic {
		t.Error("seeded default group should be public")
	}
}

func TestStoreCreateAndMembership(t *testing.T) {
	s := NewStore()

	info, customErr := s.Create("devs", "dev chat", "owner-1", false)
	if customErr != nil {
		t.Fatalf("create failed: %v", customErr)
	}

	member, customErr := s.IsMember(info.ID, "owner-1")
	if customErr != nil || !member {
		t.Error("owner should be a member of the created group")
	}

	if customErr := s.AddMember(info.ID, "u2"); customErr != nil {
		t.Fatalf("add member failed: %v", customErr)
	}

	if customErr := s.AddMember(info.ID, "u2"); customErr == nil || customErr.Code != errs.ErrAlreadyGroupMember {
		t.Error("adding an existing member should fail with ErrAlreadyGroupMember")
	}

	if customErr := s.RemoveMember(info.ID, "u2"); customErr != nil {
		t.Fatalf("remove member failed: %v", customErr)
	}

	member, _ = s.IsMember(info.ID, "u2")
	if member {
		t.Error("removed user should no longer be a member")
	}
}

func TestStoreCreateRejectsEmptyName(t *testing.T) {
	s := NewStore()

	if _, customErr := s.Create("", "", "owner-1", false); customErr == nil || customErr.Code != errs.ErrGroupNameInvalid {
		t.Error("empty group name should be rejected")
	}
}

func TestStoreMembersOfReturnsSnapshot(t *testing.T) {
	s := NewStore()

	info, _ := s.Create("devs", "", "owner-1", false)

	snapshot, customErr := s.MembersOf(info.ID)
	if customErr != nil {
		t.Fatalf("membersOf failed: %v", customErr)
	}

	// Mutating the store after the snapshot must not change the snapshot.
	if customErr := s.AddMember(info.ID, "u2"); customErr != nil {
		t.Fatalf("add member failed: %v", customErr)
	}

	if len(snapshot) != 1 {
		t.Errorf("snapshot should be a momentary copy, got %d members", len(snapshot))
	}
}

func TestStoreUnknownGroup(t *testing.T) {
	s := NewStore()

	if _, customErr := s.MembersOf("missing"); customErr == nil || customErr.Code != errs.ErrGroupNotFound {
		t.Error("membersOf for a missing group should fail with ErrGroupNotFound")
	}

	if customErr := s.AddMember("missing", "u1"); customErr == nil || customErr.Code != errs.ErrGroupNotFound {
		t.Error("addMember for a missing group should fail with ErrGroupNotFound")
	}
}

func TestStoreEnsureMemberIdempotent(t *testing.T) {
	s := NewStore()

	if customErr := s.EnsureMember(PublicGroupID, "u1"); customErr != nil {
		t.Fatalf("ensure member failed: %v", customErr)
	}
	if customErr := s.EnsureMember(PublicGroupID, "u1"); customErr != nil {
		t.Fatalf("ensure member should be idempotent: %v", customErr)
	}

	members, _ := s.MembersOf(PublicGroupID)
	if len(members) != 1 {
		t.Errorf("expected a single member, got %d", len(members))
	}
}

func TestStoreRemoveUserEverywhere(t *testing.T) {
	s := NewStore()

	g1, _ := s.Create("one", "", "owner", false)
	g2, _ := s.Create("two", "", "owner", false)
	s.EnsureMember(g1.ID, "u1")
	s.EnsureMember(g2.ID, "u1")
	s.EnsureMember(PublicGroupID, "u1")

	s.RemoveUser("u1")

	for _, groupID := range []string{g1.ID, g2.ID, PublicGroupID} {
		member, _ := s.IsMember(groupID, "u1")
		if member {
			t.Errorf("user should have been removed from group %s", groupID)
		}
	}
}
