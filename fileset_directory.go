package wal

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// DefaultPrefix is the file name prefix used by NewDirectoryFileSet.
const DefaultPrefix = "txlog"

// archiveExt is the file extension of a zstd-compressed log version.
const archiveExt = ".zst"

// DirectoryFileSet implements a WritableFileSet that keeps log files in a
// directory.
//
// The nomenclature of the on-disk log files is:
//
//	<prefix>.<version>
//
// so with the default prefix, the first three versions of a log would be
// stored as:
//
//	txlog.0
//	txlog.1
//	txlog.2
//
// Rotated versions can be compressed with Archive, after which they are
// stored as <prefix>.<version>.zst. Archived versions remain readable through
// Open, and are transparently decompressed.
type DirectoryFileSet struct {
	dir      string
	prefix   string
	readOnly bool
}

// NewDirectoryFileSet returns a *DirectoryFileSet for the log files in dir,
// using DefaultPrefix.
//
// The permissions of dir will be checked to ensure the *DirectoryFileSet
// can read and write to dir. If the directory does not exist, it will be
// created with mode 0777 (before umask).
func NewDirectoryFileSet(dir string) (*DirectoryFileSet, error) {
	return NewDirectoryFileSetPrefix(dir, DefaultPrefix)
}

// NewDirectoryFileSetPrefix is like NewDirectoryFileSet, but log file names
// start with prefix.
func NewDirectoryFileSetPrefix(dir, prefix string) (*DirectoryFileSet, error) {
	if prefix == "" || strings.ContainsAny(prefix, `/\`) {
		return nil, errors.Errorf("invalid log file prefix %q", prefix)
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, "new directory file set")
	}
	if err := checkDirPerms(dir, true); err != nil && os.IsNotExist(errors.Cause(err)) {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return nil, errors.Wrap(err, "mkdir all")
		}
	} else if err != nil {
		return nil, errors.Wrap(err, "new directory file set")
	}
	return &DirectoryFileSet{dir: dir, prefix: prefix}, nil
}

// OpenDirectoryFileSet returns a read-only *DirectoryFileSet for the log
// files in dir, such as a mounted backup. Only read permission on dir is
// required, and dir must already exist. Append and Archive return
// ErrReadOnly.
func OpenDirectoryFileSet(dir, prefix string) (*DirectoryFileSet, error) {
	if prefix == "" || strings.ContainsAny(prefix, `/\`) {
		return nil, errors.Errorf("invalid log file prefix %q", prefix)
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, "open directory file set")
	}
	if err := checkDirPerms(dir, false); err != nil {
		return nil, errors.Wrap(err, "open directory file set")
	}
	return &DirectoryFileSet{dir: dir, prefix: prefix, readOnly: true}, nil
}

// Dir returns the absolute path of the directory holding the log files.
func (fs *DirectoryFileSet) Dir() string {
	return fs.dir
}

// Path returns the path of the uncompressed file for a log version.
func (fs *DirectoryFileSet) Path(version int64) string {
	return filepath.Join(fs.dir, fs.prefix+"."+strconv.FormatInt(version, 10))
}

func (fs *DirectoryFileSet) archivePath(version int64) string {
	return fs.Path(version) + archiveExt
}

// VersionInfo describes a single log file found on disk.
type VersionInfo struct {
	Version  int64
	Path     string
	Size     int64 // Size of the file on disk.
	Archived bool
}

// Versions scans the directory, and returns every log version found in
// ascending order. Files that do not match the naming scheme are ignored.
//
// This method does not descend into child directories.
func (fs *DirectoryFileSet) Versions() ([]VersionInfo, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, errors.Wrap(err, "read dir")
	}

	var infos []VersionInfo
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		version, archived, ok := fs.parseName(ent.Name())
		if !ok {
			continue
		}
		fi, err := ent.Info()
		if err != nil {
			return nil, errors.Wrapf(err, "stat %s", ent.Name())
		}
		infos = append(infos, VersionInfo{
			Version:  version,
			Path:     filepath.Join(fs.dir, ent.Name()),
			Size:     fi.Size(),
			Archived: archived,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Version < infos[j].Version })
	return infos, nil
}

// parseName parses a log version from a file name.
func (fs *DirectoryFileSet) parseName(name string) (version int64, archived bool, ok bool) {
	if !strings.HasPrefix(name, fs.prefix+".") {
		return 0, false, false
	}
	s := name[len(fs.prefix)+1:]
	if strings.HasSuffix(s, archiveExt) {
		s, archived = strings.TrimSuffix(s, archiveExt), true
	}
	version, err := strconv.ParseInt(s, 10, 64)
	if err != nil || version < InitialVersion {
		return 0, false, false
	}
	return version, archived, true
}

// HighestVersion implements the VersionLister interface.
func (fs *DirectoryFileSet) HighestVersion() (int64, error) {
	infos, err := fs.Versions()
	if err != nil {
		return NoVersion, errors.Wrap(err, "highest version")
	}
	if len(infos) == 0 {
		return NoVersion, nil
	}
	return infos[len(infos)-1].Version, nil
}

// Open implements the ChannelOpener interface.
func (fs *DirectoryFileSet) Open(version int64) (Channel, error) {
	f, err := os.Open(fs.Path(version))
	if err == nil {
		return f, nil
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "open log file")
	}

	f, err = os.Open(fs.archivePath(version))
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrVersionNotFound, "version %d", version)
	} else if err != nil {
		return nil, errors.Wrap(err, "open archived log file")
	}
	ch, err := newArchiveChannel(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "open archived log version %d", version)
	}
	return ch, nil
}

// Append implements the WritableFileSet interface.
//
// Archived versions cannot be appended to.
func (fs *DirectoryFileSet) Append(version int64) (Appender, int64, error) {
	if fs.readOnly {
		return nil, 0, ErrReadOnly
	}
	if version < InitialVersion {
		return nil, 0, errors.Errorf("invalid log version %d", version)
	}
	if _, err := os.Stat(fs.archivePath(version)); err == nil {
		return nil, 0, errors.Errorf("log version %d is archived", version)
	}
	f, err := os.OpenFile(fs.Path(version), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, 0, errors.Wrap(err, "open log file for append")
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, errors.Wrap(err, "stat log file")
	}
	return f, fi.Size(), nil
}

// Archive compresses a log version with zstd, replacing the uncompressed
// file. The highest version is the one being written to, and cannot be
// archived; attempting to do so returns ErrArchiveActive.
func (fs *DirectoryFileSet) Archive(version int64) error {
	if fs.readOnly {
		return ErrReadOnly
	}
	highest, err := fs.HighestVersion()
	if err != nil {
		return errors.Wrap(err, "archive")
	}
	if version == highest {
		return ErrArchiveActive
	}

	src, err := os.Open(fs.Path(version))
	if os.IsNotExist(err) {
		return errors.Wrapf(ErrVersionNotFound, "version %d", version)
	} else if err != nil {
		return errors.Wrap(err, "open log file")
	}
	defer src.Close()

	name := fs.archivePath(version)
	tmp := name + ".tmp"
	if err := fs.writeArchive(tmp, src); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "archive version %d", version)
	}
	if err := os.Rename(tmp, name); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "rename archive")
	}
	if err := os.Remove(fs.Path(version)); err != nil {
		return errors.Wrap(err, "rm")
	}
	return nil
}

func (fs *DirectoryFileSet) writeArchive(name string, src io.Reader) error {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "create archive file")
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return errors.Wrap(err, "new encoder")
	}
	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		return errors.Wrap(err, "compress")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "flush encoder")
	}
	if err := f.Sync(); err != nil {
		return errors.Wrap(err, "sync archive file")
	}
	return f.Close()
}

// archiveChannel is a Channel over a zstd-compressed log file. Offsets are
// offsets into the decompressed stream.
//
// Failures to read the file itself are returned as-is. Anything else the
// decoder rejects is damaged content, and is returned as a
// *CorruptRecordError; it sticks until the channel is rewound.
type archiveChannel struct {
	f   *os.File
	src *fileReader
	dec *zstd.Decoder
	pos int64
	err error
}

// fileReader remembers the last error returned by the file, other than
// io.EOF, so decoder errors can be told apart from I/O errors.
type fileReader struct {
	f   *os.File
	err error
}

func (r *fileReader) Read(p []byte) (int, error) {
	n, err := r.f.Read(p)
	if err != nil && err != io.EOF {
		r.err = err
	}
	return n, err
}

func newArchiveChannel(f *os.File) (*archiveChannel, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, errors.Wrap(err, "new decoder")
	}
	c := &archiveChannel{f: f, src: &fileReader{f: f}, dec: dec}
	if err := c.reset(); err != nil {
		dec.Close()
		return nil, err
	}
	return c, nil
}

// reset restarts decompression from the current file offset.
func (c *archiveChannel) reset() error {
	c.pos, c.err, c.src.err = 0, nil, nil
	if err := c.dec.Reset(c.src); err != nil {
		err = c.decodeError(err)
		if err != io.EOF && !IsCorruptRecord(err) {
			return err
		}
		c.err = err
	}
	return nil
}

func (c *archiveChannel) decodeError(err error) error {
	switch {
	case err == io.EOF:
		return io.EOF
	case c.src.err != nil:
		return errors.Wrap(c.src.err, "read archived log file")
	}
	return corruptf("archive: %v", err)
}

func (c *archiveChannel) Read(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.dec.Read(p)
	c.pos += int64(n)
	if err != nil && err != io.EOF {
		err = c.decodeError(err)
		if IsCorruptRecord(err) {
			c.err = err
		}
	}
	return n, err
}

// Seek implements io.Seeker. Seeking backwards restarts decompression from
// the beginning of the file; seeking relative to the end is not supported.
//
// Seeking over damaged content succeeds; the damage is reported by the next
// Read.
func (c *archiveChannel) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = c.pos + offset
	default:
		return c.pos, errors.New("seek: unsupported whence for archived log")
	}
	if target < 0 {
		return c.pos, errors.New("seek: negative position")
	}

	if target < c.pos {
		if _, err := c.f.Seek(0, io.SeekStart); err != nil {
			return c.pos, errors.Wrap(err, "rewind archive")
		}
		if err := c.reset(); err != nil {
			return c.pos, errors.Wrap(err, "reset decoder")
		}
	}
	_, err := io.CopyN(io.Discard, c, target-c.pos)
	if err != nil && err != io.EOF && !IsCorruptRecord(err) {
		return c.pos, errors.Wrap(err, "seek")
	}
	// Seeking past the end is allowed; subsequent reads yield io.EOF.
	c.pos = target
	return target, nil
}

func (c *archiveChannel) Close() error {
	c.dec.Close()
	return c.f.Close()
}
