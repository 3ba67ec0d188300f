package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"
)

var (
	ErrNotArchived = errors.New("snapshot: not archived")
	ErrMismatch    = errors.New("snapshot: archived bytes do not match CID")
	ErrImmutable   = errors.New("snapshot: archived export cannot be replaced")
)

// Archive keeps exports on disk keyed by their CID.
//
// Entries are written once and never rewritten; Get re-hashes what it reads.
type Archive struct {
	root string
}

// OpenArchive opens (or creates) an archive rooted at dir.
func OpenArchive(dir string) (*Archive, error) {
	if dir == "" {
		return nil, errors.New("snapshot: archive directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Archive{root: dir}, nil
}

// Put validates data as an export and stores it, returning its CID.
// Storing the same export again is a no-op.
func (a *Archive) Put(data []byte) (cid.Cid, error) {
	if _, err := Decode(bytes.NewReader(data)); err != nil {
		return cid.Undef, err
	}
	id, err := CID(data)
	if err != nil {
		return cid.Undef, err
	}

	path := a.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if !os.IsExist(err) {
			return cid.Undef, err
		}
		existing, rerr := a.Get(id)
		if rerr != nil || !bytes.Equal(existing, data) {
			return cid.Undef, ErrImmutable
		}
		return id, nil
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return cid.Undef, err
	}
	return id, nil
}

// Get returns the export stored under id.
func (a *Archive) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, fmt.Errorf("snapshot: undefined CID")
	}
	b, err := os.ReadFile(a.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotArchived
		}
		return nil, err
	}
	ok, err := Verify(b, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMismatch
	}
	return b, nil
}

func (a *Archive) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, err := os.Stat(a.pathFor(id))
	return err == nil
}

func (a *Archive) pathFor(id cid.Cid) string {
	s := id.String()
	if len(s) < 2 {
		return filepath.Join(a.root, s)
	}
	return filepath.Join(a.root, s[:2], s)
}
