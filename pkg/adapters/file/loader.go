// Package file stores forms and submissions on the local filesystem.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"

	"github.com/aretw0/formflow/internal/compiler"
	"github.com/aretw0/formflow/pkg/domain"
)

// Loader implements ports.FormLoader and ports.Watchable over a directory of
// YAML or JSON form documents, one form per file.
type Loader struct {
	dir    string
	parser *compiler.Parser
	scans  singleflight.Group
}

// NewLoader creates a Loader reading forms from dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir, parser: compiler.NewParser()}
}

// Dir returns the forms directory.
func (l *Loader) Dir() string {
	return l.dir
}

func isFormFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// scan parses every form file. Concurrent callers share one scan.
func (l *Loader) scan() (map[string]domain.Form, error) {
	v, err, _ := l.scans.Do("scan", func() (any, error) {
		entries, err := os.ReadDir(l.dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read forms directory: %w", err)
		}

		forms := make(map[string]domain.Form)
		origin := make(map[string]string)
		for _, entry := range entries {
			if entry.IsDir() || !isFormFile(entry.Name()) {
				continue
			}
			path := filepath.Join(l.dir, entry.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
			}
			form, err := l.parser.Parse(data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", entry.Name(), err)
			}
			if prev, ok := origin[form.ID]; ok {
				return nil, fmt.Errorf("collision detected: form '%s' is defined in both '%s' and '%s'", form.ID, prev, entry.Name())
			}
			origin[form.ID] = entry.Name()
			forms[form.ID] = *form
		}
		return forms, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]domain.Form), nil
}

// GetForm retrieves a form by ID or public ID.
func (l *Loader) GetForm(ctx context.Context, key string) (*domain.Form, error) {
	forms, err := l.scan()
	if err != nil {
		return nil, err
	}
	if f, ok := forms[key]; ok {
		return &f, nil
	}
	for _, f := range forms {
		if f.PublicID != "" && f.PublicID == key {
			return &f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrFormNotFound, key)
}

// ListForms returns all form IDs in order.
func (l *Loader) ListForms(ctx context.Context) ([]string, error) {
	forms, err := l.scan()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(forms))
	for id := range forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Watch reports the file name (without extension) of every changed form file
// until ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}
	if err := w.Add(l.dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", l.dir, err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-w.Events:
				if !ok {
					return
				}
				if !isFormFile(evt.Name) || evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				name := strings.TrimSuffix(filepath.Base(evt.Name), filepath.Ext(evt.Name))
				select {
				case ch <- name:
				case <-ctx.Done():
					return
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return ch, nil
}
