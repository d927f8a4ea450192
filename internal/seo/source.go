package seo

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source lists and reads report files.
type Source interface {
	Name() string
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, key string) ([]byte, error)
}

// DirSource reads reports from a local directory tree.
type DirSource struct {
	root string
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{root: dir}
}

func (s *DirSource) Name() string {
	return "dir:" + s.root
}

// List returns the slash-separated paths of every .json file under the root.
// A missing root yields no files.
func (s *DirSource) List(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !isReportFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *DirSource) Read(_ context.Context, key string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.root, filepath.FromSlash(key)))
}

func isReportFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json") && !strings.HasPrefix(name, ".")
}
