package slug

import "testing"

func TestMake(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "simple", title: "City of Solitude", want: "city-of-solitude"},
		{name: "already slug", title: "already-a-slug", want: "already-a-slug"},
		{name: "punctuation collapsed", title: "Hello,   World!!", want: "hello-world"},
		{name: "leading and trailing junk", title: "  --Track #1--  ", want: "track-1"},
		{name: "digits kept", title: "Symphony No 9", want: "symphony-no-9"},
		{name: "unicode stripped", title: "Träume", want: "tr-ume"},
		{name: "empty", title: "", want: ""},
		{name: "only punctuation", title: "!!! ???", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Make(tt.title); got != tt.want {
				t.Errorf("Make(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestMake_Deterministic(t *testing.T) {
	// Case and punctuation variants of a title map to the same class ID.
	variants := []string{"City of Solitude", "city OF solitude", "City, of Solitude."}
	want := Make(variants[0])
	for _, v := range variants[1:] {
		if got := Make(v); got != want {
			t.Errorf("Make(%q) = %q, want %q", v, got, want)
		}
	}
}
