package ingest

import "testing"

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"a@b.c", true},
		{"jordan.brooks@example.com", true},
		{"user+tag@mail.example.co.uk", true},
		{"", false},
		{"plainaddress", false},
		{"no-at-sign.example.com", false},
		{"@example.com", false},
		{"user@", false},
		{"user@nodot", false},
		{"user@.com", false},
		{"user@domain.", false},
		{"a@.b.c", true},
		{"a@b..c", true},
		{"a@b.c.", true},
		{"two@@example.com", false},
		{"a@b@c.com", false},
		{"has space@example.com", false},
		{"user@exa mple.com", false},
		{"user@example.com ", false},
		{"\tuser@example.com", false},
		{"user@example\n.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := ValidEmail(tt.email); got != tt.want {
				t.Errorf("ValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestPositiveDecimal(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"699.99", true},
		{"0.01", true},
		{"1", true},
		{" 12.5 ", true},
		{"1e3", true},
		{"0", false},
		{"0.0", false},
		{"-5", false},
		{"-0.01", false},
		{"", false},
		{"abc", false},
		{"12.5.3", false},
		{"NaN", false},
		{"+Inf", false},
		{"Inf", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := PositiveDecimal(tt.value); got != tt.want {
				t.Errorf("PositiveDecimal(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestPositiveInteger(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"42", true},
		{" 7 ", true},
		{"0", false},
		{"-3", false},
		{"3.5", false},
		{"", false},
		{"abc", false},
		{"1e3", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := PositiveInteger(tt.value); got != tt.want {
				t.Errorf("PositiveInteger(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
