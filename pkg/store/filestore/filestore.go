// Package filestore is a Store that keeps one YAML document per model on disk.
//
// Layout:
//
//	<root>/<kind>/<escaped namespace>/<name>.yaml      plain YAML
//	<root>/<kind>/<escaped namespace>/<name>.yaml.sz   snappy-compressed YAML
//	<root>/types/<type kind>.yaml                      type definitions
//
// Writes go to a temporary file that is renamed into place, so readers never
// see a partial document. Reads are memory-mapped.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/store"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

const (
	ext           = ".yaml"
	compressedExt = ".yaml.sz"
	typesDir      = "types"
)

// Options configures a Store.
type Options struct {
	// Compress writes snappy-compressed documents. Both forms are always readable.
	Compress bool
}

// Store persists models under a root directory.
type Store struct {
	root     string
	compress bool
	mu       sync.RWMutex
}

var _ store.Store = (*Store)(nil)

// Open creates root if needed and returns a store rooted there.
func Open(root string, opts Options) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}
	return &Store{root: root, compress: opts.Compress}, nil
}

func (s *Store) dir(id store.ElementID) string {
	return filepath.Join(s.root, string(id.Kind), url.PathEscape(id.Namespace))
}

func (s *Store) paths(id store.ElementID) (plain, compressed string) {
	base := filepath.Join(s.dir(id), url.PathEscape(id.Name))
	return base + ext, base + compressedExt
}

// locate returns the path of the stored document, preferring the compressed form.
func (s *Store) locate(id store.ElementID) (string, bool, error) {
	plain, compressed := s.paths(id)
	for _, p := range []string{compressed, plain} {
		_, err := os.Stat(p)
		if err == nil {
			return p, true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", false, err
		}
	}
	return "", false, nil
}

func (s *Store) GetElement(ctx context.Context, id store.ElementID) (*model.RefinementModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, err := s.read(id)
	if err != nil {
		return nil, store.NewError("GetElement", id, err)
	}
	return m, nil
}

func (s *Store) read(id store.ElementID) (*model.RefinementModel, error) {
	path, ok, err := s.locate(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, store.ErrNotFound
	}
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return store.UnmarshalYAML(data)
}

// readFile maps path into memory and returns its content, decompressed when
// the file carries the snappy extension.
func readFile(path string) ([]byte, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data := make([]byte, reader.Len())
	if len(data) > 0 {
		if _, err := reader.ReadAt(data, 0); err != nil {
			return nil, err
		}
	}
	if strings.HasSuffix(path, compressedExt) {
		decoded, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
		return decoded, nil
	}
	return data, nil
}

func (s *Store) SetElement(ctx context.Context, id store.ElementID, m *model.RefinementModel) error {
	if err := id.Validate(); err != nil {
		return store.NewError("SetElement", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(id, m); err != nil {
		return store.NewError("SetElement", id, err)
	}
	return nil
}

func (s *Store) write(id store.ElementID, m *model.RefinementModel) error {
	data, err := store.MarshalYAML(m)
	if err != nil {
		return err
	}
	plain, compressed := s.paths(id)
	target, stale := plain, compressed
	if s.compress {
		data = snappy.Encode(nil, data)
		target, stale = compressed, plain
	}
	if err := os.MkdirAll(s.dir(id), 0755); err != nil {
		return err
	}
	if err := writeAtomic(target, data); err != nil {
		return err
	}
	// Only one form may exist, otherwise reads would prefer a stale copy.
	if err := os.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func (s *Store) Duplicate(ctx context.Context, source, target store.ElementID) error {
	if err := target.Validate(); err != nil {
		return store.NewError("Duplicate", target, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read(source)
	if err != nil {
		return store.NewError("Duplicate", source, err)
	}
	if _, exists, err := s.locate(target); err != nil {
		return store.NewError("Duplicate", target, err)
	} else if exists {
		return store.NewError("Duplicate", target, store.ErrAlreadyExists)
	}
	if err := s.write(target, store.Renamed(m, target)); err != nil {
		return store.NewError("Duplicate", target, err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, id store.ElementID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok, err := s.locate(id)
	if err != nil {
		return false, store.NewError("Exists", id, err)
	}
	return ok, nil
}

func (s *Store) List(ctx context.Context, kind model.Kind) ([]store.ElementID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kindDir := filepath.Join(s.root, string(kind))
	namespaces, err := os.ReadDir(kindDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, store.NewError("List", nil, err)
	}

	var ids []store.ElementID
	for _, nsEntry := range namespaces {
		if !nsEntry.IsDir() {
			continue
		}
		namespace, err := url.PathUnescape(nsEntry.Name())
		if err != nil {
			continue
		}
		files, err := os.ReadDir(filepath.Join(kindDir, nsEntry.Name()))
		if err != nil {
			return nil, store.NewError("List", nil, err)
		}
		for _, f := range files {
			name, ok := elementName(f.Name())
			if !ok {
				continue
			}
			ids = append(ids, store.ElementID{Kind: kind, Namespace: namespace, Name: name})
		}
	}
	store.SortIDs(ids)
	return ids, nil
}

func elementName(file string) (string, bool) {
	var escaped string
	switch {
	case strings.HasPrefix(file, "."):
		return "", false
	case strings.HasSuffix(file, compressedExt):
		escaped = strings.TrimSuffix(file, compressedExt)
	case strings.HasSuffix(file, ext):
		escaped = strings.TrimSuffix(file, ext)
	default:
		return "", false
	}
	name, err := url.PathUnescape(escaped)
	if err != nil {
		return "", false
	}
	return name, true
}

func (s *Store) typesPath(kind topology.TypeKind) string {
	return filepath.Join(s.root, typesDir, string(kind)+ext)
}

func (s *Store) TypeDefinitions(ctx context.Context, kind topology.TypeKind) (map[topology.QName]topology.TypeDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs, err := s.readTypes(kind)
	if err != nil {
		return nil, store.NewError("TypeDefinitions", nil, err)
	}
	return defs, nil
}

func (s *Store) readTypes(kind topology.TypeKind) (map[topology.QName]topology.TypeDefinition, error) {
	out := make(map[topology.QName]topology.TypeDefinition)
	data, err := os.ReadFile(s.typesPath(kind))
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	var list []topology.TypeDefinition
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s types: %w", kind, err)
	}
	for _, def := range list {
		out[def.Name] = def
	}
	return out, nil
}

func (s *Store) DefineType(ctx context.Context, def topology.TypeDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	defs, err := s.readTypes(def.Kind)
	if err != nil {
		return store.NewError("DefineType", def.Name, err)
	}
	defs[def.Name] = def
	data, err := yaml.Marshal(store.SortedDefinitions(defs))
	if err != nil {
		return store.NewError("DefineType", def.Name, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.typesPath(def.Kind)), 0755); err != nil {
		return store.NewError("DefineType", def.Name, err)
	}
	if err := writeAtomic(s.typesPath(def.Kind), data); err != nil {
		return store.NewError("DefineType", def.Name, err)
	}
	return nil
}

// Close is a no-op; every operation opens and closes its own files.
func (s *Store) Close() error {
	return nil
}
