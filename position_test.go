package wal

import "testing"

func TestLogPositionOrder(t *testing.T) {
	a := LogPosition{Version: 1, Offset: 500}
	b := LogPosition{Version: 2, Offset: 0}
	c := LogPosition{Version: 2, Offset: 16}

	if !a.Before(b) || !b.Before(c) || !a.Before(c) {
		t.Error("positions are not ordered by version, then offset")
	}
	if !c.After(a) || c.After(c) || c.Before(c) {
		t.Error("After/Before disagree with ordering")
	}
	if c.Compare(c) != 0 || !c.Equal(LogPosition{Version: 2, Offset: 16}) {
		t.Error("position not equal to itself")
	}
	if b != StartOf(2) {
		t.Errorf("wrong start of version 2: %s", StartOf(2))
	}
}

func TestParsePosition(t *testing.T) {
	for _, want := range []LogPosition{{}, {Version: 3, Offset: 1024}} {
		got, err := ParsePosition(want.String())
		if err != nil {
			t.Error(err)
		}
		if got != want {
			t.Errorf("wanted=%s got=%s", want, got)
		}
	}

	for _, s := range []string{"", "12", "a:1", "1:b", "-1:0", "1:-5"} {
		if _, err := ParsePosition(s); err == nil {
			t.Errorf("expected error parsing %q", s)
		}
	}
}
