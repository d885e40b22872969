package wal

import (
	"bytes"
	"testing"
)

func TestEntryReader(t *testing.T) {
	var (
		buf     []byte
		offsets []int64
		err     error
	)
	for i := int64(1); i <= 5; i++ {
		offsets = append(offsets, int64(len(buf)))
		buf, err = AppendRecord(buf, CommitEntry{Format: CurrentFormat, TxID: i})
		if err != nil {
			t.Fatal(err)
		}
	}

	t.Run("All", func(t *testing.T) {
		r := NewEntryReader(bytes.NewReader(buf), 4)
		var n int
		for r.Next() {
			want := LogPosition{Version: 4, Offset: offsets[n]}
			if r.Position() != want {
				t.Errorf("wrong position: wanted=%s got=%s", want, r.Position())
			}
			if c := r.Entry().(CommitEntry); c.TxID != int64(n+1) {
				t.Errorf("wrong tx id: wanted=%d got=%d", n+1, c.TxID)
			}
			n++
		}
		if err := r.Error(); err != nil {
			t.Error(err)
		}
		if n != 5 {
			t.Errorf("wrong number of entries: wanted=5 got=%d", n)
		}
		if r.NextPosition().Offset != int64(len(buf)) {
			t.Errorf("wrong end position: %s", r.NextPosition())
		}
		if r.Next() {
			t.Error("Next returned true after the end")
		}
	})

	t.Run("FromPosition", func(t *testing.T) {
		pos := LogPosition{Version: 4, Offset: offsets[3]}
		r := NewEntryReaderPosition(bytes.NewReader(buf[offsets[3]:]), pos)
		if !r.Next() {
			t.Fatal(r.Error())
		}
		if r.Position() != pos || r.Entry().(CommitEntry).TxID != 4 {
			t.Errorf("unexpected entry %+v at %s", r.Entry(), r.Position())
		}
	})

	t.Run("StopsOnCorruption", func(t *testing.T) {
		bad := append([]byte{}, buf...)
		bad[offsets[2]+recordHeaderSize+payloadHeaderSize] ^= 0xff

		r := NewEntryReader(bytes.NewReader(bad), 0)
		var n int
		for r.Next() {
			n++
		}
		if n != 2 {
			t.Errorf("wrong number of entries before corruption: wanted=2 got=%d", n)
		}
		err := r.Error()
		if !IsCorruptRecord(err) {
			t.Fatalf("expected corrupt record error, got %v", err)
		}
		if r.NextPosition().Offset != offsets[2] {
			t.Errorf("reader stopped at %s, wanted offset %d", r.NextPosition(), offsets[2])
		}
		if r.Next() {
			t.Error("Next returned true after an error")
		}
	})
}
