package memory_test

import (
	"testing"

	"github.com/camino-run/camino/pkg/adapters/memory"
	"github.com/camino-run/camino/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	tests.StoreContractTest(t, memory.NewStore())
}
