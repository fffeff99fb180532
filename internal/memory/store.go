package memory

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dedupe/internal/fingerprint"
)

const (
	magic   = "dedupe-set"
	version = "v1"
)

// ErrCorrupt marks a set file that exists but cannot be trusted. The run
// must stop before touching any record; the file is never modified by a
// failed load.
var ErrCorrupt = errors.New("corrupt set file")

type (
	// Codec translates one element to and from its entry line.
	Codec[K comparable] struct {
		Encode func(K) string
		Decode func(string) (K, error)
	}

	// Store loads and checkpoints one persistent set.
	Store[K comparable] interface {
		Load(ctx context.Context) (*Set[K], error)
		Save(ctx context.Context, s *Set[K]) error
	}

	// FileStore is the file-backed Store. The kind label in the header ties
	// a file to its set, so crossing the fingerprint and SKU paths in
	// configuration fails loudly instead of silently merging them.
	FileStore[K comparable] struct {
		path  string
		kind  string
		codec Codec[K]
	}
)

// NewFileStore binds a path, kind label, and codec.
func NewFileStore[K comparable](path, kind string, codec Codec[K]) *FileStore[K] {
	return &FileStore[K]{path: path, kind: kind, codec: codec}
}

// NewFingerprintStore returns the store for the transaction fingerprint set.
func NewFingerprintStore(path string) *FileStore[fingerprint.Fingerprint] {
	return NewFileStore(path, "fingerprints", Codec[fingerprint.Fingerprint]{
		Encode: fingerprint.Fingerprint.String,
		Decode: fingerprint.Parse,
	})
}

// NewSKUStore returns the store for the observed-SKU set.
func NewSKUStore(path string) *FileStore[string] {
	return NewFileStore(path, "skus", Codec[string]{
		Encode: func(s string) string { return s },
		Decode: func(line string) (string, error) {
			if line == "" {
				return "", errors.New("empty entry")
			}
			return line, nil
		},
	})
}

// Path returns the backing file path.
func (fs *FileStore[K]) Path() string {
	return fs.path
}

// Load reads the whole set. A missing file is a first run and yields an
// empty set; an unreadable or inconsistent file yields an error wrapping
// ErrCorrupt with the offending line.
func (fs *FileStore[K]) Load(ctx context.Context) (*Set[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewSet[K](), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", fs.path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("load %s: %w", fs.path, err)
		}
		return nil, fmt.Errorf("load %s: missing header: %w", fs.path, ErrCorrupt)
	}
	count, err := fs.parseHeader(sc.Text())
	if err != nil {
		return nil, fmt.Errorf("load %s: %w: %v", fs.path, ErrCorrupt, err)
	}

	set := NewSet[K]()
	for i := 0; i < count; i++ {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, fmt.Errorf("load %s: %w", fs.path, err)
			}
			return nil, fmt.Errorf("load %s: truncated after %d of %d entries: %w", fs.path, i, count, ErrCorrupt)
		}
		k, err := fs.codec.Decode(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("load %s: line %d: %w: %v", fs.path, i+2, ErrCorrupt, err)
		}
		set.Add(k)
	}
	if sc.Scan() {
		return nil, fmt.Errorf("load %s: trailing data after %d entries: %w", fs.path, count, ErrCorrupt)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", fs.path, err)
	}
	if set.Len() != count {
		return nil, fmt.Errorf("load %s: %d duplicate entries: %w", fs.path, count-set.Len(), ErrCorrupt)
	}
	return set, nil
}

func (fs *FileStore[K]) parseHeader(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 || fields[0] != magic {
		return 0, fmt.Errorf("bad header %q", line)
	}
	if fields[1] != version {
		return 0, fmt.Errorf("unsupported version %q", fields[1])
	}
	if fields[2] != fs.kind {
		return 0, fmt.Errorf("kind %q, want %q", fields[2], fs.kind)
	}
	count, err := strconv.Atoi(fields[3])
	if err != nil || count < 0 {
		return 0, fmt.Errorf("bad count %q", fields[3])
	}
	return count, nil
}

// Save writes the whole set atomically: serialize to a temp file in the
// same directory, fsync, then rename over the target. A crash mid-save
// leaves the previous file intact. Entries are one per line, so an element
// whose encoding contains a line break fails the save with the previous
// file untouched.
func (fs *FileStore[K]) Save(ctx context.Context, set *Set[K]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save %s: %w", fs.path, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(fs.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("save %s: %w", fs.path, err)
	}
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if _, err := fmt.Fprintf(w, "%s %s %s %d\n", magic, version, fs.kind, set.Len()); err != nil {
		return fmt.Errorf("save %s: %w", fs.path, err)
	}
	for _, k := range set.Keys() {
		line := fs.codec.Encode(k)
		if strings.ContainsAny(line, "\r\n") {
			return fmt.Errorf("save %s: entry %q contains a line break", fs.path, line)
		}
		if _, err := w.WriteString(line); err != nil {
			return fmt.Errorf("save %s: %w", fs.path, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("save %s: %w", fs.path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("save %s: %w", fs.path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("save %s: %w", fs.path, err)
	}
	name := tmp.Name()
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", fs.path, err)
	}
	tmp = nil
	if err := os.Rename(name, fs.path); err != nil {
		os.Remove(name)
		return fmt.Errorf("save %s: %w", fs.path, err)
	}
	return nil
}
