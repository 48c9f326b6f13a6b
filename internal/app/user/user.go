/*
Package user contains the core data structures related to user identity.

It defines the Identity struct, the verified representation of a chat participant
carried through the session registry, the router, and outbound payloads.
*/
package user

// Identity represents the verified identity of a chat participant.
// It is immutable for the lifetime of a session once the credential has been
// validated; mutable profile fields live in the database, not here.
type Identity struct {

	// ID is the unique identifier for the user account.
	ID string `json:"id"`

	// Username is the login/display name of the user.
	Username string `json:"username"`

	// IsAdmin marks the user as an administrator.
	IsAdmin bool `json:"isAdmin"`

	// IsVIP marks the user as a VIP member.
	IsVIP bool `json:"isVIP"`
}

// PresenceEntry is the read-only projection of an online user, recomputed
// fresh from the session registry each time presence changes.
type PresenceEntry struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsOnline bool   `json:"isOnline"`
}
