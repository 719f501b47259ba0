package normalize

import "testing"

func TestText_Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{name: "identity ascii", in: "hello world", out: "hello world"},
		{name: "utf8 repair drops invalid bytes", in: string([]byte{0xff, 'a', 'n', 'a', 0x80, ' ', 'b'}), out: "ana b"},
		{name: "case fold", in: "ZoË", out: "zoe"},
		{name: "strip accents", in: "José Müller", out: "jose muller"},
		{name: "combining marks", in: "cafe\u0301", out: "cafe"},
		{name: "zero widths", in: "an\u200Bna", out: "anna"},
		{name: "fullwidth", in: "\uFF21\uFF22\uFF23", out: "abc"},
		{name: "whitespace runs", in: "  ana \t\n  maria  ", out: "ana maria"},
		{name: "nbsp", in: "ana\u00A0maria", out: "ana maria"},
		{name: "empty", in: "", out: ""},
	}
	for _, tc := range tests {
		if got := Text(tc.in); got != tc.out {
			t.Fatalf("%s: Text(%q) = %q, want %q", tc.name, tc.in, got, tc.out)
		}
	}
}

func TestSearchKey_SkipsEmptyParts(t *testing.T) {
	got := SearchKey("Ana  Pérez", "", "  ", "ANA@Example.com", "+15550102030")
	want := "ana perez ana@example.com +15550102030"
	if got != want {
		t.Fatalf("SearchKey = %q, want %q", got, want)
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"+1 (555) 010-2030", "+15550102030", true},
		{"0044 20 7946 0958", "+442079460958", true},
		{"0171 234 5678", "01712345678", true},
		{"555.0102", "5550102", true},
		{"12345", "", false},
		{"+0123456789", "", false},
		{"call me", "", false},
		{"555+0102030", "", false},
		{"1234567890123456", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := Phone(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Phone(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEmail(t *testing.T) {
	if got := Email("  Ana@Example.COM "); got != "ana@example.com" {
		t.Fatalf("Email = %q", got)
	}
}
