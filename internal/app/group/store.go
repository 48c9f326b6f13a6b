/*
Package group implements the group membership store: the authoritative mapping
of group id to member set.

The router only ever reads momentary membership snapshots from it; mutations
are owned by the admin surface and the connection handshake (default room join).
*/
package group

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"echochat/internal/pkg/errs"
	"echochat/internal/pkg/logx"
	"echochat/internal/pkg/randx"
)

// PublicGroupID is the id of the seeded default public room every
// authenticated user joins at connect time.
const PublicGroupID = "public"

// Group is the stored record for a chat group.
type Group struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	IsPublic    bool
	CreatedAt   time.Time

	members map[string]struct{}
}

// Info is the read-only projection of a group returned to callers.
type Info struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"ownerId"`
	IsPublic    bool      `json:"isPublic"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store holds all groups behind a single mutex. It is read-mostly from the
// router's perspective; admin mutations are comparatively rare.
type Store struct {
	// groups maps group ID to the group record.
	groups map[string]*Group

	// mu protects the groups map and every member set inside it.
	mu sync.RWMutex

	// structured logger with GroupStore context.
	logger zerolog.Logger
}

// NewStore constructs a Store seeded with the default public room.
func NewStore() *Store {
	s := &Store{
		groups: make(map[string]*Group),
		logger: logx.Logger().With().Str("component", "GroupStore").Logger(),
	}

	s.groups[PublicGroupID] = &Group{
		ID:        PublicGroupID,
		Name:      "Public Room",
		IsPublic:  true,
		CreatedAt: time.Now(),
		members:   make(map[string]struct{}),
	}

	return s
}

// Create adds a new group owned by ownerID, who becomes its first member.
func (s *Store) Create(name, description, ownerID string, isPublic bool) (Info, *errs.CustomError) {
	if name == "" {
		return Info{}, errs.NewError(errs.ErrGroupNameInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := &Group{
		ID:          randx.NewID(),
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		IsPublic:    isPublic,
		CreatedAt:   time.Now(),
		members:     map[string]struct{}{ownerID: {}},
	}
	s.groups[g.ID] = g

	s.logger.Info().
		Str("group_id", g.ID).
		Str("name", name).
		Str("owner_id", ownerID).
		Msg("Group created.")

	return g.info(), nil
}

// Get returns the group projection for the given id.
func (s *Store) Get(groupID string) (Info, *errs.CustomError) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return Info{}, errs.NewError(errs.ErrGroupNotFound)
	}
	return g.info(), nil
}

// List returns projections of every group.
func (s *Store) List() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]Info, 0, len(s.groups))
	for _, g := range s.groups {
		infos = append(infos, g.info())
	}
	return infos
}

// MembersOf returns a momentary snapshot of the member set of the given group.
// The returned map is a copy; concurrent mutations never affect it.
func (s *Store) MembersOf(groupID string) (map[string]struct{}, *errs.CustomError) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return nil, errs.NewError(errs.ErrGroupNotFound)
	}

	members := make(map[string]struct{}, len(g.members))
	for id := range g.members {
		members[id] = struct{}{}
	}
	return members, nil
}

// IsMember reports whether the user belongs to the group.
func (s *Store) IsMember(groupID, userID string) (bool, *errs.CustomError) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return false, errs.NewError(errs.ErrGroupNotFound)
	}

	_, member := g.members[userID]
	return member, nil
}

// EnsureMember adds the user to the group if not already a member.
// Used by the connection handshake to join the default room; joining twice is a no-op.
func (s *Store) EnsureMember(groupID, userID string) *errs.CustomError {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return errs.NewError(errs.ErrGroupNotFound)
	}

	g.members[userID] = struct{}{}
	return nil
}

// AddMember adds the user to the group, failing if already a member.
func (s *Store) AddMember(groupID, userID string) *errs.CustomError {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return errs.NewError(errs.ErrGroupNotFound)
	}

	if _, exists := g.members[userID]; exists {
		return errs.NewError(errs.ErrAlreadyGroupMember)
	}

	g.members[userID] = struct{}{}

	s.logger.Info().
		Str("group_id", groupID).
		Str("user_id", userID).
		Msg("Member added to group.")

	return nil
}

// RemoveMember removes the user from the group. Removing an absent member is a no-op.
func (s *Store) RemoveMember(groupID, userID string) *errs.CustomError {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return errs.NewError(errs.ErrGroupNotFound)
	}

	delete(g.members, userID)
	return nil
}

// RemoveUser removes the user from every group. Called when an account is deleted.
func (s *Store) RemoveUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.groups {
		delete(g.members, userID)
	}
}

// info builds the read-only projection. Caller must hold mu.
func (g *Group) info() Info {
	members := make([]string, 0, len(g.members))
	for id := range g.members {
		members = append(members, id)
	}

	return Info{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		OwnerID:     g.OwnerID,
		IsPublic:    g.IsPublic,
		Members:     members,
		CreatedAt:   g.CreatedAt,
	}
}
