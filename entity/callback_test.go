package entity

import "testing"

func TestCallback_PackParseRoundTrip(t *testing.T) {
	cb := Callback{Action: ActionGetLink, LinkId: 42}
	data := cb.Pack()
	if data != "g:42" {
		t.Fatalf("packed %q", data)
	}

	parsed, err := ParseCallback(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != cb {
		t.Fatalf("parsed %+v, want %+v", parsed, cb)
	}
}

func TestParseCallback_Rejects(t *testing.T) {
	for _, data := range []string{"", "g", "g:", "g:abc", "x:42", "42"} {
		if _, err := ParseCallback(data); err == nil {
			t.Fatalf("expected error for %q", data)
		}
	}
}
