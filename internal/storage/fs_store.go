package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FSFragmentStore writes fragments to <destDir>/.docpress-temp/.
type FSFragmentStore struct {
	root string
	mu   sync.Mutex
	dirs map[string]struct{}
}

// NewFSFragmentStore creates a store whose Cleanup sweeps root.
func NewFSFragmentStore(root string) *FSFragmentStore {
	return &FSFragmentStore{root: root, dirs: make(map[string]struct{})}
}

// FragmentPath returns where the fragment for reference lives.
func FragmentPath(destDir, reference, tocFilename string) string {
	dir, name := split(reference)
	return filepath.Join(destDir, filepath.FromSlash(dir), TempDirName, FragmentName(name, tocFilename))
}

// Put writes the fragment, replacing an earlier one.
func (s *FSFragmentStore) Put(_ context.Context, destDir, name, tocFilename string, data []byte) error {
	dir := filepath.Join(destDir, TempDirName)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create fragment directory %s: %w", dir, err)
	}
	s.mu.Lock()
	s.dirs[dir] = struct{}{}
	s.mu.Unlock()

	p := filepath.Join(dir, FragmentName(name, tocFilename))
	if err := os.WriteFile(p, data, 0600); err != nil {
		return fmt.Errorf("write fragment %s: %w", p, err)
	}
	return nil
}

// Fragment reads the fragment for reference.
func (s *FSFragmentStore) Fragment(destDir, reference, tocFilename string) ([]byte, bool, error) {
	p := FragmentPath(destDir, reference, tocFilename)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read fragment %s: %w", p, err)
	}
	return data, true, nil
}

// Cleanup removes every fragment directory this store created and any left
// under root by an earlier interrupted run.
func (s *FSFragmentStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	dirs := make([]string, 0, len(s.dirs))
	for d := range s.dirs {
		dirs = append(dirs, d)
	}
	s.dirs = make(map[string]struct{})
	s.mu.Unlock()

	if s.root != "" {
		err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() && d.Name() == TempDirName {
				dirs = append(dirs, p)
				return filepath.SkipDir
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	for _, d := range dirs {
		if err := os.RemoveAll(d); err != nil {
			return fmt.Errorf("remove fragment directory %s: %w", d, err)
		}
	}
	return nil
}
