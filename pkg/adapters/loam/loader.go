// Package loam loads forms from a Loam repository, so a form can be authored
// as a Markdown file whose frontmatter holds the steps and whose body is the
// form description.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/formflow/internal/compiler"
	"github.com/aretw0/formflow/pkg/domain"
)

// Document is the frontmatter shape read from the repository.
type Document = map[string]any

// Loader adapts the Loam library to the FormLoader interface.
type Loader struct {
	Repo   *loam.TypedRepository[Document]
	parser *compiler.Parser
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[Document]) *Loader {
	return &Loader{
		Repo:   repo,
		parser: compiler.NewParser(),
	}
}

// Open initializes a read-only Loam repository at dir and wraps it.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode keeps numbers as json.Number across Markdown, YAML and JSON sources.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[Document](repo)), nil
}

// GetForm retrieves a form by document ID, falling back to a public ID scan.
func (l *Loader) GetForm(ctx context.Context, key string) (*domain.Form, error) {
	if doc, err := l.Repo.Get(ctx, key); err == nil {
		return l.toForm(doc.ID, doc.Data, doc.Content)
	}

	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	for _, doc := range docs {
		form, err := l.toForm(doc.ID, doc.Data, doc.Content)
		if err != nil {
			continue
		}
		if form.ID == key || (form.PublicID != "" && form.PublicID == key) {
			return form, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrFormNotFound, key)
}

// ListForms lists the IDs of every form in the repository.
func (l *Loader) ListForms(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id := formID(doc.ID, doc.Data)
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: form '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (l *Loader) toForm(docID string, data Document, content string) (*domain.Form, error) {
	doc, _ := normalize(data).(map[string]any)
	doc["id"] = formID(docID, data)
	if desc, _ := doc["description"].(string); desc == "" {
		if body := strings.TrimSpace(content); body != "" {
			doc["description"] = body
		}
	}
	form, err := l.parser.ParseMap(doc)
	if err != nil {
		return nil, fmt.Errorf("loam document %s: %w", docID, err)
	}
	return form, nil
}

// formID prefers the frontmatter id and falls back to the file name.
func formID(docID string, data Document) string {
	if id, ok := data["id"].(string); ok && id != "" {
		return trimExtension(id)
	}
	return trimExtension(docID)
}

func trimExtension(id string) string {
	return filepath.ToSlash(strings.TrimSuffix(id, filepath.Ext(id)))
}

// normalize turns YAML-decoded map[any]any values into map[string]any so the
// document can be re-encoded as JSON.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[k] = normalize(sub)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[fmt.Sprintf("%v", k)] = normalize(sub)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, sub := range val {
			out[i] = normalize(sub)
		}
		return out
	default:
		return v
	}
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
