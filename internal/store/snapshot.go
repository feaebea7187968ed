package store

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/zeebo/blake3"

	"github.com/chronograph-dev/chronograph/internal/domain"
)

// SnapshotInfo describes one immutable snapshot file. Snapshot ids are
// ulids: the leading component is a unix-millis timestamp, so
// lexicographic order is chronological order, and the random tail keeps
// concurrent snapshots within the same millisecond from colliding.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Checksum  string    `json:"checksum"`
}

// SaveSnapshot writes an immutable, checksummed copy of v under
// snapshots/<ulid>.json and returns its SnapshotInfo.
func (s *Store) SaveSnapshot(v any) (SnapshotInfo, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("%w: marshaling snapshot: %v", domain.ErrIoFailed, err)
	}

	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	sum := blake3.Sum256(data)
	checksum := fmt.Sprintf("%x", sum)

	path := filepath.Join(s.dir, snapshotsDir, id+".json")
	if err := s.writeJSON(path, v); err != nil {
		return SnapshotInfo{}, err
	}

	return SnapshotInfo{ID: id, CreatedAt: time.UnixMilli(int64(ulid.MustParse(id).Time())), Checksum: checksum}, nil
}

// ListSnapshots returns snapshot ids sorted newest-first by embedded
// timestamp.
func (s *Store) ListSnapshots() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, snapshotsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: listing snapshots: %v", domain.ErrIoFailed, err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sortNewestFirst(ids)
	return ids, nil
}

// LoadSnapshot reads a snapshot by id into dest.
func (s *Store) LoadSnapshot(id string, dest any) error {
	return s.readJSON(filepath.Join(s.dir, snapshotsDir, id+".json"), dest)
}

// PruneSnapshots keeps the newest keepN snapshots and removes the rest.
func (s *Store) PruneSnapshots(keepN int) error {
	ids, err := s.ListSnapshots()
	if err != nil {
		return err
	}
	if keepN < 0 {
		keepN = 0
	}
	if len(ids) <= keepN {
		return nil
	}
	for _, id := range ids[keepN:] {
		path := filepath.Join(s.dir, snapshotsDir, id+".json")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: pruning snapshot %s: %v", domain.ErrIoFailed, id, err)
		}
	}
	return nil
}
