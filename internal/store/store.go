// Package store persists accepted build records as a keyed JSON document per
// game. Records are indexed by the composite key {game}_{character} so a
// re-run replaces the previous build for the same character.
package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buildscout/internal/model"
)

// Store defines the persistence interface for accepted build records.
type Store interface {
	Merge(ctx context.Context, file string, record model.BuildRecord) error
	Get(ctx context.Context, file, game, character string) (model.BuildRecord, bool, error)
	List(ctx context.Context, file string) (map[string]model.BuildRecord, error)
}

// Key builds the composite record key. Case-insensitive on the game, spaces
// in the character name become underscores.
func Key(game, character string) string {
	name := strings.ReplaceAll(strings.TrimSpace(strings.ToLower(character)), " ", "_")
	return strings.ToLower(game) + "_" + name
}

// JSONStore keeps one JSON document per game under a base directory. Writes
// take an OS-level file lock so concurrent chat requests cannot interleave a
// read-modify-write.
type JSONStore struct {
	dir string
}

// NewJSONStore builds a store rooted at dir, creating it if needed.
func NewJSONStore(dir string) (*JSONStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "store: create dir %s", dir)
	}
	return &JSONStore{dir: dir}, nil
}

// Merge inserts or replaces the record under its composite key, leaving
// unrelated keys untouched. The record must carry its identity metadata.
func (s *JSONStore) Merge(ctx context.Context, file string, record model.BuildRecord) error {
	game, _ := record[model.KeyGame].(string)
	character, _ := record[model.KeyCharacterName].(string)
	if game == "" || character == "" {
		return eris.New("store: record is missing game or character metadata")
	}
	key := Key(game, character)

	path := filepath.Join(s.dir, file)
	unlock, err := s.lock(ctx, path)
	if err != nil {
		return err
	}
	defer unlock()

	records, err := readAll(path)
	if err != nil {
		return err
	}
	records[key] = record

	if err := writeAll(path, records); err != nil {
		return err
	}

	zap.L().Info("store: record merged",
		zap.String("file", file),
		zap.String("key", key),
	)
	return nil
}

// Get returns the record stored under {game}_{character}, if any.
func (s *JSONStore) Get(ctx context.Context, file, game, character string) (model.BuildRecord, bool, error) {
	records, err := s.List(ctx, file)
	if err != nil {
		return nil, false, err
	}
	record, ok := records[Key(game, character)]
	return record, ok, nil
}

// List returns every stored record in the file. A missing or corrupt file
// reads as empty; corruption is recovered by the next Merge rewriting it.
func (s *JSONStore) List(ctx context.Context, file string) (map[string]model.BuildRecord, error) {
	path := filepath.Join(s.dir, file)
	unlock, err := s.lock(ctx, path)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return readAll(path)
}

// Keys returns the sorted composite keys present in the file.
func (s *JSONStore) Keys(ctx context.Context, file string) ([]string, error) {
	records, err := s.List(ctx, file)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *JSONStore) lock(ctx context.Context, path string) (func(), error) {
	fl := flock.New(path + ".lock")
	locked, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return nil, eris.Wrapf(err, "store: lock %s", path)
	}
	if !locked {
		return nil, eris.Errorf("store: lock %s not acquired", path)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			zap.L().Warn("store: unlock failed", zap.String("path", path), zap.Error(err))
		}
	}, nil
}

func readAll(path string) (map[string]model.BuildRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]model.BuildRecord{}, nil
		}
		return nil, eris.Wrapf(err, "store: read %s", path)
	}

	var records map[string]model.BuildRecord
	if err := json.Unmarshal(data, &records); err != nil {
		zap.L().Warn("store: file is corrupt, starting empty",
			zap.String("path", path),
			zap.Error(err),
		)
		return map[string]model.BuildRecord{}, nil
	}
	if records == nil {
		records = map[string]model.BuildRecord{}
	}
	return records, nil
}

// writeAll replaces the document atomically: full temp-file write, then
// rename, so a crash never leaves a half-written store.
func writeAll(path string, records map[string]model.BuildRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return eris.Wrap(err, "store: marshal records")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "store: create temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return eris.Wrapf(err, "store: write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrapf(err, "store: close temp for %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrapf(err, "store: replace %s", path)
	}
	return nil
}
