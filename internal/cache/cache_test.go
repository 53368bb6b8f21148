package cache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tableflow/llm-backend/internal/models"
)

func TestKeyIsStableAcrossEquivalentInputs(t *testing.T) {
	rows := []models.TableRow{{Data: map[string]any{"b": float64(2), "a": "x"}}}
	same := []models.TableRow{{Data: map[string]any{"a": "x", "b": float64(2)}}}

	require.Equal(t, Key("prompt", rows), Key("prompt", same),
		"map key order must not change the cache key")
}

func TestKeyVariesWithPromptAndTable(t *testing.T) {
	rows := []models.TableRow{{Data: map[string]any{"a": float64(1)}}}

	require.NotEqual(t, Key("prompt one", rows), Key("prompt two", rows))
	require.NotEqual(t, Key("prompt", rows), Key("prompt", nil))
}

func TestKeySeparatesPromptFromTable(t *testing.T) {
	// The prompt/table boundary must be unambiguous; a prompt ending in the
	// table's prefix must not collide.
	a := Key("prompt[", []models.TableRow{})
	b := Key("prompt", []models.TableRow{})
	require.NotEqual(t, a, b)
}
