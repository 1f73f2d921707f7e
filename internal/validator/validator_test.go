package validator

import "testing"

func TestValidatorAccumulatesErrors(t *testing.T) {
	v := New()
	if !v.Valid() {
		t.Fatal("fresh validator should be valid")
	}

	v.Check(false, "title", "must be provided")
	v.Check(true, "price", "must not be negative")

	if v.Valid() {
		t.Fatal("validator with a failed check should be invalid")
	}
	if _, ok := v.Errors["title"]; !ok {
		t.Error("failed check for title was not recorded")
	}
	if _, ok := v.Errors["price"]; ok {
		t.Error("passing check for price was recorded as an error")
	}
}

func TestFirstErrorPerFieldWins(t *testing.T) {
	v := New()
	v.AddError("upc", "must be provided")
	v.AddError("upc", "must not be more than 32 bytes long")

	if got := v.Errors["upc"]; got != "must be provided" {
		t.Errorf("got %q, want the first recorded error", got)
	}
}

func TestMaxChars(t *testing.T) {
	tests := []struct {
		value string
		n     int
		want  bool
	}{
		{"", 0, true},
		{"abc", 3, true},
		{"abcd", 3, false},
		{"héllo", 5, true}, // counts runes, not bytes
	}

	for _, tt := range tests {
		if got := MaxChars(tt.value, tt.n); got != tt.want {
			t.Errorf("MaxChars(%q, %d) = %v, want %v", tt.value, tt.n, got, tt.want)
		}
	}
}
