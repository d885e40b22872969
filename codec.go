package wal

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"
)

// On-disk record layout, all integers little endian:
//
//	[length uint32][checksum uint32][payload]
//
// where checksum is the CRC-32C of payload, and payload is:
//
//	[format uint8][kind uint8][body]
//
// The body layout depends on kind and format; see MarshalEntry.
const (
	recordHeaderSize  = 8
	payloadHeaderSize = 2

	// MaxRecordSize is the largest payload a single record may carry (16MB).
	// Larger length fields are treated as corruption.
	MaxRecordSize = 16777216
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// Body sizes, per kind and format.
const (
	startBodyV1      = 24 // position (16), time written (8)
	startBodyV2      = 32 // + last committed tx id (8)
	commitBodyV1     = 8  // tx id
	commitBodyV2     = 16 // + time written
	checkpointBodyV1 = 16 // position
)

// MarshalEntry encodes e into a record payload (without the record header).
func MarshalEntry(e Entry) ([]byte, error) {
	format := e.FormatVersion()
	if !format.supported() {
		return nil, &UnsupportedFormatError{Version: format}
	}

	var (
		kind EntryKind
		body []byte
	)
	switch e := e.(type) {
	case StartEntry:
		kind = KindStart
		body = make([]byte, startBodyV1, startBodyV2)
		putPosition(body[0:16], e.StartPosition)
		binary.LittleEndian.PutUint64(body[16:24], uint64(e.TimeWritten))
		if format >= FormatV2 {
			body = binary.LittleEndian.AppendUint64(body, uint64(e.LastCommittedTxID))
		}
	case CommitEntry:
		kind = KindCommit
		body = make([]byte, commitBodyV1, commitBodyV2)
		binary.LittleEndian.PutUint64(body[0:8], uint64(e.TxID))
		if format >= FormatV2 {
			body = binary.LittleEndian.AppendUint64(body, uint64(e.TimeWritten))
		}
	case CheckpointEntry:
		kind = KindCheckpoint
		body = make([]byte, checkpointBodyV1)
		putPosition(body, e.Position)
	case OtherEntry:
		if e.Kind == 0 || e.Kind == KindStart || e.Kind == KindCommit || e.Kind == KindCheckpoint {
			return nil, errors.Errorf("invalid kind %d for other entry", e.Kind)
		}
		kind = e.Kind
		body = e.Data
	default:
		return nil, errors.Errorf("unknown entry type %T", e)
	}

	p := make([]byte, payloadHeaderSize+len(body))
	p[0] = byte(format)
	p[1] = byte(kind)
	copy(p[payloadHeaderSize:], body)
	return p, nil
}

// UnmarshalEntry decodes a record payload produced by MarshalEntry.
//
// An entry encoded with an unknown format version yields an
// *UnsupportedFormatError. Any other malformed payload yields a
// *CorruptRecordError.
func UnmarshalEntry(p []byte) (Entry, error) {
	if len(p) < payloadHeaderSize {
		return nil, corruptf("payload too short (%d bytes)", len(p))
	}
	format, kind, body := FormatVersion(p[0]), EntryKind(p[1]), p[payloadHeaderSize:]
	if !format.supported() {
		return nil, &UnsupportedFormatError{Version: format}
	}

	switch kind {
	case 0:
		return nil, corruptf("zero entry kind")
	case KindStart:
		want := startBodyV1
		if format >= FormatV2 {
			want = startBodyV2
		}
		if len(body) != want {
			return nil, corruptf("start entry body is %d bytes, want %d", len(body), want)
		}
		e := StartEntry{
			Format:            format,
			StartPosition:     getPosition(body[0:16]),
			TimeWritten:       int64(binary.LittleEndian.Uint64(body[16:24])),
			LastCommittedTxID: NoTransactionID,
		}
		if format >= FormatV2 {
			e.LastCommittedTxID = int64(binary.LittleEndian.Uint64(body[24:32]))
		}
		return e, nil
	case KindCommit:
		want := commitBodyV1
		if format >= FormatV2 {
			want = commitBodyV2
		}
		if len(body) != want {
			return nil, corruptf("commit entry body is %d bytes, want %d", len(body), want)
		}
		e := CommitEntry{
			Format: format,
			TxID:   int64(binary.LittleEndian.Uint64(body[0:8])),
		}
		if format >= FormatV2 {
			e.TimeWritten = int64(binary.LittleEndian.Uint64(body[8:16]))
		}
		return e, nil
	case KindCheckpoint:
		if len(body) != checkpointBodyV1 {
			return nil, corruptf("checkpoint entry body is %d bytes, want %d", len(body), checkpointBodyV1)
		}
		return CheckpointEntry{Format: format, Position: getPosition(body)}, nil
	}

	data := make([]byte, len(body))
	copy(data, body)
	return OtherEntry{Format: format, Kind: kind, Data: data}, nil
}

// AppendRecord appends the framed record for e to dst, and returns the
// extended slice.
func AppendRecord(dst []byte, e Entry) ([]byte, error) {
	p, err := MarshalEntry(e)
	if err != nil {
		return dst, errors.Wrap(err, "marshal entry")
	}
	if len(p) > MaxRecordSize {
		return dst, ErrTooBig
	}
	return appendFrame(dst, p), nil
}

func appendFrame(dst, p []byte) []byte {
	var hdr [recordHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(p)))
	binary.LittleEndian.PutUint32(hdr[4:8], crc32.Checksum(p, crcTable))
	dst = append(dst, hdr[:]...)
	return append(dst, p...)
}

// readRecord reads the next framed record from r, and returns the decoded
// entry along with the number of bytes consumed.
//
// io.EOF is returned at the end of the log. A record cut short by the end of
// the stream is also reported as io.EOF: it is the remains of a write that
// never completed. Errors from r other than io.EOF are returned as-is.
func readRecord(r io.Reader) (Entry, int, error) {
	var hdr [recordHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, 0, io.EOF
	} else if err != nil {
		return nil, 0, err
	}

	length := binary.LittleEndian.Uint32(hdr[0:4])
	if length < payloadHeaderSize || length > MaxRecordSize {
		return nil, 0, corruptf("invalid record length %d", length)
	}

	p := make([]byte, length)
	if _, err := io.ReadFull(r, p); err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, 0, io.EOF
	} else if err != nil {
		return nil, 0, err
	}
	if got, want := crc32.Checksum(p, crcTable), binary.LittleEndian.Uint32(hdr[4:8]); got != want {
		return nil, 0, corruptf("checksum mismatch (want=%08x got=%08x)", want, got)
	}

	e, err := UnmarshalEntry(p)
	if err != nil {
		return nil, 0, err
	}
	return e, recordHeaderSize + int(length), nil
}

func putPosition(b []byte, pos LogPosition) {
	binary.LittleEndian.PutUint64(b[0:8], uint64(pos.Version))
	binary.LittleEndian.PutUint64(b[8:16], uint64(pos.Offset))
}

func getPosition(b []byte) LogPosition {
	return LogPosition{
		Version: int64(binary.LittleEndian.Uint64(b[0:8])),
		Offset:  int64(binary.LittleEndian.Uint64(b[8:16])),
	}
}
