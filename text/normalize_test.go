package text

import (
	"regexp"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "url and punctuation", in: "Check this out http://spam.example FREE!!!", want: "check this out free"},
		{name: "https url", in: "see https://a.b/c?d=1 now", want: "see now"},
		{name: "www token", in: "visit www.shop.example today", want: "visit today"},
		{name: "html tags", in: "<p>Great <b>food</b></p>", want: "great food"},
		{name: "non greedy tag", in: "a <x> b <y> c", want: "a b c"},
		{name: "digits kept", in: "5 stars, 10/10", want: "5 stars 10 10"},
		{name: "whitespace collapse", in: "  too\t\tmany \n spaces  ", want: "too many spaces"},
		{name: "only noise", in: "!!! ??? ...", want: ""},
		{name: "unicode letters stripped", in: "café naïve", want: "caf na ve"},
		{name: "uppercase url", in: "HTTP://SPAM.EXAMPLE buy", want: "buy"},
		{name: "url stops at unicode space", in: "http://x.example　next", want: "next"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Check this out http://spam.example FREE!!!",
		"<div>Hello</div> www.x.y World",
		"  MiXeD   CaSe\t123 ",
		"a<b>c</b>d",
		"<<nested>> tags>",
		"日本語のレビュー 5/5",
		"http://",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestNormalize_OutputAlphabet(t *testing.T) {
	valid := regexp.MustCompile(`^([a-z0-9]+( [a-z0-9]+)*)?$`)
	inputs := []string{"Hello, World!", "\x00\x01 ctrl", "tabs\tand\nnewlines", "émoji 🎉 ok", "<a href='x'>y</a>"}
	for _, in := range inputs {
		if out := Normalize(in); !valid.MatchString(out) {
			t.Errorf("Normalize(%q) = %q contains characters outside [a-z0-9 ]", in, out)
		}
	}
}

func TestNormalize_TagsAndTrailingURL(t *testing.T) {
	a := Normalize("Great service, would come back")
	b := Normalize("<p>Great service,</p> would <i>come</i> back https://tracker.example/x")
	if a != b {
		t.Errorf("expected equal normalization, got %q and %q", a, b)
	}
}

func TestNormalizeAny(t *testing.T) {
	s := "Hi!"
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: ""},
		{name: "string", in: "Hi!", want: "hi"},
		{name: "nil string pointer", in: (*string)(nil), want: ""},
		{name: "string pointer", in: &s, want: "hi"},
		{name: "number", in: 42, want: "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeAny(tt.in); got != tt.want {
				t.Errorf("NormalizeAny(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	got := Tokens(Normalize("One, two  THREE"))
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("Tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tokens[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
