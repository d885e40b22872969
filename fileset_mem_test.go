package wal

import (
	"bytes"
	"io"
	"testing"

	"github.com/pkg/errors"
)

func TestMemoryFileSet(t *testing.T) {
	fs := NewMemoryFileSet()

	t.Run("Empty", func(t *testing.T) {
		v, err := fs.HighestVersion()
		if err != nil {
			t.Error(err)
		}
		if v != NoVersion {
			t.Errorf("wrong highest version: wanted=%d got=%d", NoVersion, v)
		}
		if _, err := fs.Open(InitialVersion); !errors.Is(err, ErrVersionNotFound) {
			t.Errorf("expected ErrVersionNotFound, got %v", err)
		}
	})

	t.Run("Append", func(t *testing.T) {
		for version := int64(0); version < 3; version++ {
			app, size, err := fs.Append(version)
			if err != nil {
				t.Fatal(err)
			}
			if size != 0 {
				t.Errorf("version %d: wrong initial size: wanted=0 got=%d", version, size)
			}
			if _, err := app.Write([]byte("hello, log")); err != nil {
				t.Error(err)
			}
			if err := app.Close(); err != nil {
				t.Error(err)
			}
			if _, err := app.Write([]byte("late")); err == nil {
				t.Error("expected error writing to a closed appender")
			}
		}

		_, size, err := fs.Append(1)
		if err != nil {
			t.Fatal(err)
		}
		if size != int64(len("hello, log")) {
			t.Errorf("wrong size on reopen: wanted=%d got=%d", len("hello, log"), size)
		}
	})

	t.Run("Versions", func(t *testing.T) {
		got := fs.Versions()
		want := []int64{0, 1, 2}
		if len(got) != len(want) {
			t.Fatalf("wrong versions: wanted=%v got=%v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("wrong versions: wanted=%v got=%v", want, got)
			}
		}
		if v, _ := fs.HighestVersion(); v != 2 {
			t.Errorf("wrong highest version: wanted=2 got=%d", v)
		}
	})

	t.Run("OpenSnapshot", func(t *testing.T) {
		ch, err := fs.Open(2)
		if err != nil {
			t.Fatal(err)
		}
		defer ch.Close()

		app, _, err := fs.Append(2)
		if err != nil {
			t.Fatal(err)
		}
		app.Write([]byte("!"))

		p, err := io.ReadAll(ch)
		if err != nil {
			t.Error(err)
		}
		if !bytes.Equal(p, []byte("hello, log")) {
			t.Errorf("channel saw later writes: %q", p)
		}

		if _, err := ch.Seek(7, io.SeekStart); err != nil {
			t.Error(err)
		}
		p, _ = io.ReadAll(ch)
		if string(p) != "log" {
			t.Errorf("wrong data after seek: %q", p)
		}
	})

	t.Run("PutBytesRemove", func(t *testing.T) {
		in := []byte("replaced")
		fs.Put(1, in)
		in[0] = 'X'

		p, ok := fs.Bytes(1)
		if !ok || string(p) != "replaced" {
			t.Errorf("wrong bytes: %q %t", p, ok)
		}
		p[0] = 'Y'
		if p, _ := fs.Bytes(1); string(p) != "replaced" {
			t.Errorf("Bytes returned shared storage: %q", p)
		}

		fs.Remove(1)
		if _, ok := fs.Bytes(1); ok {
			t.Error("version 1 still present after Remove")
		}
	})

	t.Run("InvalidVersion", func(t *testing.T) {
		if _, _, err := fs.Append(-1); err == nil {
			t.Error("expected error appending to a negative version")
		}
	})
}
