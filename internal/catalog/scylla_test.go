package catalog

import (
	"bytes"
	"errors"
	"testing"
)

func TestCursorRoundTrip(t *testing.T) {
	state := []byte{0x00, 0x10, 0xff, 0x42, 0x7f}
	cursor := encodeCursor(state)
	got, err := decodeCursor(cursor)
	if err != nil {
		t.Fatalf("decodeCursor: %v", err)
	}
	if !bytes.Equal(got, state) {
		t.Fatalf("state: got=%x want=%x", got, state)
	}

	if got, err := decodeCursor(""); err != nil || got != nil {
		t.Fatalf("empty cursor: got=%x err=%v", got, err)
	}
	if _, err := decodeCursor("%%%"); !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("malformed cursor: got err=%v want ErrInvalidCursor", err)
	}
}

func TestScyllaNormalizeID(t *testing.T) {
	s := &Scylla{}
	if got := s.NormalizeID(" 5A3C9B2E-0000-4000-8000-00000000000A "); got != "5a3c9b2e-0000-4000-8000-00000000000a" {
		t.Fatalf("got=%q", got)
	}
}
