package cache

import (
	"crypto/sha256"
	"testing"
)

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint("print(x)")
	b := Fingerprint("print(x)")
	if a != b {
		t.Errorf("Fingerprint not deterministic: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("len(Fingerprint) = %d, want 16", len(a))
	}
}

func TestFingerprint_ContentSensitive(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"print(x)", "x = 1\nprint(x)"},
		{"", " "},
		{"a\n", "a"},
		{"--- main.py\nx\n", "--- util.py\nx\n"},
	}
	for _, tt := range tests {
		if Fingerprint(tt.a) == Fingerprint(tt.b) {
			t.Errorf("Fingerprint(%q) == Fingerprint(%q)", tt.a, tt.b)
		}
	}
}

func TestFingerprint_Empty(t *testing.T) {
	if got := Fingerprint(""); got != "ef46db3751d8e999" {
		t.Errorf("Fingerprint(\"\") = %s, want xxh64 of empty input", got)
	}
}

func TestFingerprintWith(t *testing.T) {
	if got, want := FingerprintWith(nil, "abc"), Fingerprint("abc"); got != want {
		t.Errorf("nil hash: got %s, want %s", got, want)
	}
	if got, want := FingerprintWith(DefaultHashFunc, "abc"), Fingerprint("abc"); got != want {
		t.Errorf("DefaultHashFunc: got %s, want %s", got, want)
	}
	got := FingerprintWith(sha256.New, "abc")
	if len(got) != 64 {
		t.Errorf("sha256 digest len = %d, want 64", len(got))
	}
	if got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("sha256 digest = %s", got)
	}
}
