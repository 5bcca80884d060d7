// Package store resolves programs and their seq dependencies from a
// program repository into a linked arena of runners.
package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/oisee/seqmine/pkg/oeis"
)

// ProgramStore supplies program source text by id. Implementations:
// FileStore for the on-disk repository, MemoryStore for tests and
// virtual programs.
type ProgramStore interface {
	Source(id oeis.ID) (string, error)
}

// FileStore reads programs from a repository root laid out as
// `<root>/###/A######.asm` with ### = floor(id/1000).
type FileStore struct {
	root string
}

// NewFileStore wraps a repository root directory.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Path returns the file a program id resolves to.
func (s *FileStore) Path(id oeis.ID) string {
	return filepath.Join(s.root, id.Dir(), id.FileName())
}

// Source reads a program file.
func (s *FileStore) Source(id oeis.ID) (string, error) {
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrCannotLoadFile, id.ANumber(), err)
	}
	return string(data), nil
}

// ProgramIDs walks the repository and reports every program file found.
func (s *FileStore) ProgramIDs() ([]oeis.ID, error) {
	var ids []oeis.ID
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, ".asm") {
			return nil
		}
		id, parseErr := oeis.ParseID(strings.TrimSuffix(name, ".asm"))
		if parseErr != nil {
			glog.V(1).Infof("skipping unrecognized program file %s", path)
			return nil
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking program store: %w", err)
	}
	return ids, nil
}

// MemoryStore is an in-memory id -> source map.
type MemoryStore struct {
	programs map[oeis.ID]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{programs: make(map[oeis.ID]string)}
}

// Put adds or replaces a program's source.
func (s *MemoryStore) Put(id oeis.ID, source string) {
	s.programs[id] = source
}

// Source returns the stored source.
func (s *MemoryStore) Source(id oeis.ID) (string, error) {
	src, ok := s.programs[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrCannotLoadFile, id.ANumber())
	}
	return src, nil
}

// LoadDenyList reads a `deny.txt` file: one identifier per line,
// `#` comments allowed. Ids listed there are skipped during mining.
func LoadDenyList(path string) (map[oeis.ID]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[oeis.ID]bool{}, nil
		}
		return nil, err
	}
	defer f.Close()
	deny := make(map[oeis.ID]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := oeis.ParseID(line)
		if err != nil {
			glog.Warningf("deny list: ignoring malformed line %q", line)
			continue
		}
		deny[id] = true
	}
	return deny, scanner.Err()
}
