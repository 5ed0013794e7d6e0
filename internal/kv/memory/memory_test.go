package memory

import (
	"testing"

	"github.com/mycelian/nurture-tracker/internal/kv"
	"github.com/mycelian/nurture-tracker/internal/kv/kvtest"
)

func TestMemoryStore_Compliance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.KV { return New() })
}
