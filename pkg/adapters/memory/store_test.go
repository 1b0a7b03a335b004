package memory_test

import (
	"testing"

	"github.com/aretw0/formflow/pkg/adapters/memory"
	"github.com/aretw0/formflow/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunSubmissionStoreContract(t, memory.NewStore())
}

func TestMemoryCounters_Contract(t *testing.T) {
	ports.RunCounterStoreContract(t, memory.NewCounters())
}
