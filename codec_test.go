package wal

import (
	"bytes"
	"encoding/binary"
	"io"
	"reflect"
	"testing"
	"time"
)

func TestEntryMarshalUnmarshal(t *testing.T) {
	now := time.Now().UnixMilli()
	entries := []Entry{
		StartEntry{Format: FormatV2, StartPosition: LogPosition{Version: 3, Offset: 120}, TimeWritten: now, LastCommittedTxID: 41},
		CommitEntry{Format: FormatV2, TxID: 42, TimeWritten: now},
		CheckpointEntry{Format: FormatV2, Position: LogPosition{Version: 2, Offset: 64}},
		OtherEntry{Format: FormatV2, Kind: KindCommand, Data: []byte("create node")},
		OtherEntry{Format: FormatV1, Kind: 77, Data: []byte{}},
	}

	for _, a := range entries {
		p, err := MarshalEntry(a)
		if err != nil {
			t.Error(err)
			continue
		}
		b, err := UnmarshalEntry(p)
		if err != nil {
			t.Error(err)
			continue
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("a and b are not equal: a=%+v b=%+v", a, b)
		}
	}
}

func TestEntryFormatV1(t *testing.T) {
	t.Run("Start", func(t *testing.T) {
		p, err := MarshalEntry(StartEntry{Format: FormatV1, LastCommittedTxID: 99})
		if err != nil {
			t.Fatal(err)
		}
		if n := len(p) - payloadHeaderSize; n != startBodyV1 {
			t.Errorf("wrong body size: wanted=%d got=%d", startBodyV1, n)
		}
		e, err := UnmarshalEntry(p)
		if err != nil {
			t.Fatal(err)
		}
		// Version 1 start entries do not carry the last committed
		// transaction.
		if got := e.(StartEntry).LastCommittedTxID; got != NoTransactionID {
			t.Errorf("wrong last committed tx: wanted=%d got=%d", NoTransactionID, got)
		}
	})

	t.Run("Commit", func(t *testing.T) {
		p, err := MarshalEntry(CommitEntry{Format: FormatV1, TxID: 5, TimeWritten: 1000})
		if err != nil {
			t.Fatal(err)
		}
		e, err := UnmarshalEntry(p)
		if err != nil {
			t.Fatal(err)
		}
		if c := e.(CommitEntry); c.TxID != 5 || c.TimeWritten != 0 {
			t.Errorf("unexpected commit entry: %+v", c)
		}
	})
}

func TestMarshalEntryErrors(t *testing.T) {
	if _, err := MarshalEntry(CommitEntry{Format: NoFormat}); !IsUnsupportedFormat(err) {
		t.Errorf("expected unsupported format error, got %v", err)
	}
	if _, err := MarshalEntry(OtherEntry{Format: CurrentFormat, Kind: KindCommit}); err == nil {
		t.Error("expected error for other entry with a reserved kind")
	}
}

func TestReadRecord(t *testing.T) {
	rec, err := AppendRecord(nil, CommitEntry{Format: CurrentFormat, TxID: 12})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("OK", func(t *testing.T) {
		e, n, err := readRecord(bytes.NewReader(rec))
		if err != nil {
			t.Fatal(err)
		}
		if n != len(rec) {
			t.Errorf("wrong record size: wanted=%d got=%d", len(rec), n)
		}
		if c, ok := e.(CommitEntry); !ok || c.TxID != 12 {
			t.Errorf("unexpected entry: %+v", e)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if _, _, err := readRecord(bytes.NewReader(nil)); err != io.EOF {
			t.Errorf("expected io.EOF, got %v", err)
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		for _, n := range []int{3, recordHeaderSize, len(rec) - 1} {
			if _, _, err := readRecord(bytes.NewReader(rec[:n])); err != io.EOF {
				t.Errorf("cut at %d: expected io.EOF, got %v", n, err)
			}
		}
	})

	t.Run("Checksum", func(t *testing.T) {
		bad := append([]byte{}, rec...)
		bad[len(bad)-1] ^= 0x01
		if _, _, err := readRecord(bytes.NewReader(bad)); !IsCorruptRecord(err) {
			t.Errorf("expected corrupt record error, got %v", err)
		}
	})

	t.Run("Length", func(t *testing.T) {
		for _, length := range []uint32{0, 1, MaxRecordSize + 1} {
			bad := append([]byte{}, rec...)
			binary.LittleEndian.PutUint32(bad[0:4], length)
			if _, _, err := readRecord(bytes.NewReader(bad)); !IsCorruptRecord(err) {
				t.Errorf("length %d: expected corrupt record error, got %v", length, err)
			}
		}
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		for _, format := range []byte{0, byte(CurrentFormat) + 1, 255} {
			raw := appendFrame(nil, []byte{format, byte(KindCommit), 0, 0, 0, 0, 0, 0, 0, 0})
			_, _, err := readRecord(bytes.NewReader(raw))
			if !IsUnsupportedFormat(err) {
				t.Errorf("format %d: expected unsupported format error, got %v", format, err)
			}
			if IsCorruptRecord(err) {
				t.Errorf("format %d: unsupported format reported as corruption", format)
			}
		}
	})

	t.Run("BadBody", func(t *testing.T) {
		raw := appendFrame(nil, []byte{byte(FormatV2), byte(KindCheckpoint), 1, 2, 3})
		if _, _, err := readRecord(bytes.NewReader(raw)); !IsCorruptRecord(err) {
			t.Errorf("expected corrupt record error, got %v", err)
		}
	})
}
