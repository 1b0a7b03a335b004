package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/formflow/internal/compiler"
	"github.com/aretw0/formflow/pkg/domain"
)

// Loader implements ports.FormLoader using an in-memory map.
// Forms are returned as copies so callers cannot mutate the loader.
type Loader struct {
	mu    sync.RWMutex
	forms map[string]domain.Form
}

// NewLoader creates a Loader holding the given forms.
func NewLoader(forms ...domain.Form) *Loader {
	l := &Loader{forms: make(map[string]domain.Form)}
	for _, f := range forms {
		l.forms[f.ID] = f
	}
	return l
}

// NewFromDocuments creates a Loader from raw JSON or YAML form documents.
// This improves DX for tests and examples.
func NewFromDocuments(docs ...string) (*Loader, error) {
	parser := compiler.NewParser()
	l := NewLoader()
	for i, doc := range docs {
		form, err := parser.Parse([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		l.forms[form.ID] = *form
	}
	return l, nil
}

// Put adds or replaces a form.
func (l *Loader) Put(form domain.Form) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.forms[form.ID] = form
}

// GetForm retrieves a form by ID or public ID.
func (l *Loader) GetForm(ctx context.Context, key string) (*domain.Form, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if f, ok := l.forms[key]; ok {
		return cloneForm(f), nil
	}
	for _, f := range l.forms {
		if f.PublicID != "" && f.PublicID == key {
			return cloneForm(f), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrFormNotFound, key)
}

// ListForms returns all form IDs.
func (l *Loader) ListForms(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.forms))
	for k := range l.forms {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}

// cloneForm copies the step and action slices. Steps themselves are treated as read-only.
func cloneForm(f domain.Form) *domain.Form {
	f.Steps = append([]domain.Step(nil), f.Steps...)
	f.Actions = append([]domain.ActionConfig(nil), f.Actions...)
	return &f
}
