// Package snapshot archives world contexts as JSON lines, one file per
// world. Each append rewrites the file atomically with the temp-file, fsync,
// rename pattern, so a crash leaves either the old or the new archive.
package snapshot

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/worldstore/pkg/types"
)

// maxRecordSize bounds one archived line.
const maxRecordSize = 64 << 20

// Record is one archived world context.
type Record struct {
	ID      string              `json:"snapshot_id"` // UUID v7, time ordered.
	WorldID int64               `json:"world_id"`
	Label   string              `json:"label"`
	TakenAt time.Time           `json:"taken_at"`
	Context *types.WorldContext `json:"context"`
}

// Archive stores snapshot records under a directory.
type Archive struct {
	dir string
	now func() time.Time

	mu sync.Mutex // serializes read-modify-write of archive files
}

// NewArchive returns an archive rooted at dir, creating the directory if
// needed.
func NewArchive(dir string) (*Archive, error) {
	if dir == "" {
		return nil, errors.New("snapshot directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory %s: %w", dir, err)
	}
	return &Archive{dir: dir, now: time.Now}, nil
}

// Dir returns the archive directory.
func (a *Archive) Dir() string {
	return a.dir
}

// Path returns the archive file of a world.
func (a *Archive) Path(worldID int64) string {
	return filepath.Join(a.dir, fmt.Sprintf("world-%d.jsonl", worldID))
}

// Append archives wc under label and returns the stored record.
func (a *Archive) Append(wc *types.WorldContext, label string) (Record, error) {
	if wc == nil || wc.World == nil {
		return Record{}, errors.New("snapshot requires a world context")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Record{}, fmt.Errorf("generating snapshot id: %w", err)
	}
	rec := Record{
		ID:      id.String(),
		WorldID: wc.World.ID,
		Label:   label,
		TakenAt: a.now().UTC(),
		Context: wc,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("encoding snapshot: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	path := a.Path(rec.WorldID)
	lines, err := readJSONL(path)
	if err != nil {
		return Record{}, err
	}
	lines = append(lines, line)
	if err := writeJSONL(path, lines); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// List returns the records of a world in append order. A world without an
// archive has no records. Lines that do not decode as records are skipped.
func (a *Archive) List(worldID int64) ([]Record, error) {
	a.mu.Lock()
	lines, err := readJSONL(a.Path(worldID))
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(lines))
	for _, line := range lines {
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil || rec.ID == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Latest returns the most recent record of a world, or types.ErrNotFound.
func (a *Archive) Latest(worldID int64) (Record, error) {
	records, err := a.List(worldID)
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, types.ErrNotFound
	}
	return records[len(records)-1], nil
}

// Remove deletes the archive of a world. A missing archive is not an error.
func (a *Archive) Remove(worldID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := os.Remove(a.Path(worldID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing snapshots of world %d: %w", worldID, err)
	}
	return nil
}

// readJSONL returns every non-empty, well-formed line of path. A missing
// file reads as empty; malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL replaces path with records, one per line.
func writeJSONL(path string, records []json.RawMessage) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", step, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
