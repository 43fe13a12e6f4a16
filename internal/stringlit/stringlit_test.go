package stringlit

import "testing"

func TestDecodeRegular(t *testing.T) {
	got, err := Decode(`"a b"`)
	if err != nil {
		t.Fatalf("decode regular: %v", err)
	}
	if got != "a b" {
		t.Fatalf("unexpected decoded regular: %q", got)
	}
}

func TestDecodeDoubledQuotes(t *testing.T) {
	got, err := Decode(`"say ""hi"""`)
	if err != nil {
		t.Fatalf("decode doubled: %v", err)
	}
	if got != `say "hi"` {
		t.Fatalf("unexpected decoded doubled: %q", got)
	}
}

func TestDecodeNormalizesNewlines(t *testing.T) {
	got, err := Decode("\"a\r\nb\"")
	if err != nil {
		t.Fatalf("decode newline: %v", err)
	}
	if got != "a\nb" {
		t.Fatalf("unexpected decoded newline: %q", got)
	}
}

func TestDecodeRejectsLoneQuote(t *testing.T) {
	if _, err := Decode(`"a"b"`); err == nil {
		t.Fatalf("expected lone quote error")
	}
	if _, err := Decode(`abc`); err == nil {
		t.Fatalf("expected missing quotes error")
	}
}
