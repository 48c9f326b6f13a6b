/*
Package randx provides functions for generating cryptographically secure random identifiers.

It is primarily used to generate standard UUID identifiers for users, groups, and messages,
and fixed-length Base62 invitation codes for the registration flow.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// InviteCodeLength is the fixed length of generated invitation codes.
	InviteCodeLength = 8
)

// NewID generates a standard UUID v4 string, used as the unique identifier
// for users, groups, messages, and invitation records.
func NewID() string {
	return uuid.New().String()
}

// InviteCode generates a Base62 encoded invitation code using a cryptographically
// secure random number generator (crypto/rand).
// It returns a string of length InviteCodeLength and any error encountered.
func InviteCode() (string, error) {
	result := make([]byte, InviteCodeLength)

	for i := 0; i < InviteCodeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for invite code: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return strings.ToUpper(string(result)), nil
}

// IsValidInviteCode checks if the given string has the shape of a generated invitation code.
func IsValidInviteCode(code string) bool {
	if len(code) != InviteCodeLength {
		return false
	}

	for _, char := range code {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}
