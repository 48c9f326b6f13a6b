package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the JSON Web Token (JWT) claims for Echo Chat.
// It includes standard claims required by the JWT specification and the custom
// identity claims necessary for authorizing users within the chat system.
type Payload struct {
	// StandardClaims embeds the necessary JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These are crucial for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the unique identifier of the authenticated user account.
	UserID string `json:"userId"`

	// Username is the login name of the user, carried so that presence views
	// and delivered messages can be labeled without a database round trip.
	Username string `json:"username"`

	// IsAdmin marks the holder as an administrator, granting access to the admin surface.
	IsAdmin bool `json:"isAdmin"`

	// IsVIP marks the holder as a VIP member.
	IsVIP bool `json:"isVIP"`
}
