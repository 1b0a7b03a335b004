package registry_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formflow/pkg/registry"
)

func TestRegistry(t *testing.T) {
	r := registry.New[int]()
	r.Register("b", 2)
	r.Register("a", 1)
	r.Register("b", 3)

	v, ok := r.Get("b")
	require.True(t, ok)
	assert.Equal(t, 3, v, "later registrations overwrite")

	_, err := r.MustGet("missing")
	assert.ErrorContains(t, err, "not registered: missing")

	assert.Equal(t, []string{"a", "b"}, r.Names())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := registry.New[string]()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register("shared", "value")
		}()
		go func() {
			defer wg.Done()
			_, _ = r.Get("shared")
		}()
	}
	wg.Wait()
	assert.Equal(t, []string{"shared"}, r.Names())
}
