package randx

import "testing"

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestInviteCodeShape(t *testing.T) {
	code, err := InviteCode()
	if err != nil {
		t.Fatalf("failed to generate invite code: %v", err)
	}

	if len(code) != InviteCodeLength {
		t.Errorf("expected code length %d, got %d", InviteCodeLength, len(code))
	}

	if !IsValidInviteCode(code) {
		t.Errorf("generated code failed its own validation: %s", code)
	}
}

func TestIsValidInviteCode(t *testing.T) {
	cases := []struct {
		code  string
		valid bool
	}{
		{"ABCD1234", true},
		{"abcd1234", true},
		{"short", false},
		{"TOOLONGCODE", false},
		{"ABC 1234", false},
		{"", false},
	}

	for _, c := range cases {
		if got := IsValidInviteCode(c.code); got != c.valid {
			t.Errorf("IsValidInviteCode(%q) = %v, want %v", c.code, got, c.valid)
		}
	}
}
