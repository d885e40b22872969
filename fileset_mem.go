package wal

import (
	"bytes"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// MemoryFileSet is a WritableFileSet implementation that only stores log
// files in memory.
type MemoryFileSet struct {
	mu    sync.RWMutex
	files map[int64][]byte
}

// NewMemoryFileSet returns a WritableFileSet that stores log files in memory.
func NewMemoryFileSet() *MemoryFileSet {
	return &MemoryFileSet{
		files: make(map[int64][]byte),
	}
}

// HighestVersion implements the VersionLister interface.
func (s *MemoryFileSet) HighestVersion() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	highest := NoVersion
	for v := range s.files {
		if v > highest {
			highest = v
		}
	}
	return highest, nil
}

// Versions returns all versions held, in ascending order.
func (s *MemoryFileSet) Versions() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := make([]int64, 0, len(s.files))
	for v := range s.files {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}

// Open implements the ChannelOpener interface.
//
// The returned channel reads a snapshot of the version's contents; bytes
// appended afterwards are not visible through it.
func (s *MemoryFileSet) Open(version int64) (Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.files[version]
	if !ok {
		return nil, errors.Wrapf(ErrVersionNotFound, "version %d", version)
	}
	return memChannel{bytes.NewReader(p)}, nil
}

// Append implements the WritableFileSet interface.
func (s *MemoryFileSet) Append(version int64) (Appender, int64, error) {
	if version < InitialVersion {
		return nil, 0, errors.Errorf("invalid log version %d", version)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[version]; !ok {
		s.files[version] = []byte{}
	}
	return &memAppender{set: s, version: version}, int64(len(s.files[version])), nil
}

// Put replaces the contents of a log version with a copy of p.
func (s *MemoryFileSet) Put(version int64, p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[version] = append([]byte{}, p...)
}

// Bytes returns a copy of the contents of a log version, and whether or not
// the version exists.
func (s *MemoryFileSet) Bytes(version int64) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.files[version]
	if !ok {
		return nil, false
	}
	return append([]byte{}, p...), true
}

// Remove deletes a log version.
func (s *MemoryFileSet) Remove(version int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, version)
}

type memChannel struct {
	*bytes.Reader
}

func (memChannel) Close() error { return nil }

type memAppender struct {
	set     *MemoryFileSet
	version int64
	closed  bool
}

func (a *memAppender) Write(p []byte) (int, error) {
	if a.closed {
		return 0, errors.New("write to closed appender")
	}
	a.set.mu.Lock()
	defer a.set.mu.Unlock()
	a.set.files[a.version] = append(a.set.files[a.version], p...)
	return len(p), nil
}

func (a *memAppender) Sync() error { return nil }

func (a *memAppender) Close() error {
	a.closed = true
	return nil
}
