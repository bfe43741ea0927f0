package internal

import "testing"

func TestNewConfirmationCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		code, err := NewConfirmationCode()
		if err != nil {
			t.Fatalf("NewConfirmationCode: %v", err)
		}
		if len(code) != 6 || code[0] == '0' {
			t.Fatalf("bad code %q", code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("non-digit in %q", code)
			}
		}
		seen[code] = struct{}{}
	}
	if len(seen) < 400 {
		t.Fatalf("only %d distinct codes out of 500", len(seen))
	}
}
