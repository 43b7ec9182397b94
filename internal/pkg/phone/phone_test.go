package phone

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain e164", in: "+6281234567890", want: "+6281234567890"},
		{name: "spaces and dashes", in: "+62 812-3456-7890", want: "+6281234567890"},
		{name: "parentheses and dots", in: "+1 (415) 555.0100", want: "+14155550100"},
		{name: "double zero prefix", in: "0062812345678", want: "+62812345678"},
		{name: "surrounding whitespace", in: "  +4915123456789  ", want: "+4915123456789"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.in)
			if err != nil {
				t.Fatalf("normalize %q: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("normalize %q = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "whitespace only", in: "   "},
		{name: "no plus or zeros", in: "81234567890"},
		{name: "letters", in: "+62abc4567890"},
		{name: "plus in the middle", in: "62+81234567890"},
		{name: "leading zero after plus", in: "+0812345678"},
		{name: "too short", in: "+1234567"},
		{name: "too long", in: "+1234567890123456"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Normalize(tc.in); !errors.Is(err, ErrInvalid) {
				t.Fatalf("normalize %q: expected ErrInvalid, got %v", tc.in, err)
			}
			if Valid(tc.in) {
				t.Fatalf("valid %q: expected false", tc.in)
			}
		})
	}
}
