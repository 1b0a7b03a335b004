package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formflow/pkg/adapters/memory"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
)

func TestMemoryLoader_Contract(t *testing.T) {
	forms := []domain.Form{
		{ID: "signup", PublicID: "pub-signup", Steps: []domain.Step{{ID: "a"}, {ID: "b"}}},
		{ID: "survey", Steps: []domain.Step{{ID: "q1"}}},
	}
	ports.RunFormLoaderContract(t, memory.NewLoader(forms...), forms)
}

func TestMemoryLoader_FromDocuments(t *testing.T) {
	loader, err := memory.NewFromDocuments(
		`{"id": "json-form", "steps": [{"id": "s1"}]}`,
		"id: yaml-form\nsteps:\n  - id: s1\n",
	)
	require.NoError(t, err)

	ids, err := loader.ListForms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"json-form", "yaml-form"}, ids)

	_, err = memory.NewFromDocuments(`{"steps": []}`)
	assert.Error(t, err)
}

func TestMemoryLoader_ReturnsCopies(t *testing.T) {
	loader := memory.NewLoader(domain.Form{ID: "f", Steps: []domain.Step{{ID: "a"}}})
	ctx := context.Background()

	f, err := loader.GetForm(ctx, "f")
	require.NoError(t, err)
	f.Steps[0].ID = "mutated"

	again, err := loader.GetForm(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Steps[0].ID)
}
