package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseReplyDirectObject(t *testing.T) {
	raw := `{"TRANSFORMED_DATA":[{"name":"kabir","name_nationality":"Indian"}],"EXPLANATION":"added nationality"}`

	message, rows, err := ParseReply(raw)
	require.NoError(t, err)
	require.Equal(t, "added nationality", message)
	require.Len(t, rows, 1)
	require.Equal(t, "kabir", rows[0].Data["name"])
	require.Equal(t, "Indian", rows[0].Data["name_nationality"])
}

func TestParseReplyAcceptsAllDataKeyVariants(t *testing.T) {
	for _, key := range []string{"TRANSFORMED_DATA", "FILTERED_DATA", "ANALYZED_DATA"} {
		raw := `{"` + key + `":[{"a":1}],"EXPLANATION":"done"}`
		message, rows, err := ParseReply(raw)
		require.NoError(t, err, "key %s", key)
		require.Equal(t, "done", message)
		require.Len(t, rows, 1)
		require.Equal(t, float64(1), rows[0].Data["a"])
	}
}

func TestParseReplyFencedBlock(t *testing.T) {
	raw := "```json\n{\"FILTERED_DATA\":[{\"name\":\"Product A\",\"price\":150}],\"EXPLANATION\":\"kept rows over 100\"}\n```"

	message, rows, err := ParseReply(raw)
	require.NoError(t, err)
	require.Equal(t, "kept rows over 100", message)
	require.Len(t, rows, 1)
	require.Equal(t, float64(150), rows[0].Data["price"])
}

func TestParseReplySurroundingProse(t *testing.T) {
	raw := "Sure! Here is the result you asked for:\n" +
		`{"TRANSFORMED_DATA":[{"name":"ivan"}],"EXPLANATION":"no changes needed"}` +
		"\nLet me know if you need anything else."

	message, rows, err := ParseReply(raw)
	require.NoError(t, err)
	require.Equal(t, "no changes needed", message)
	require.Len(t, rows, 1)
}

func TestParseReplyBareArray(t *testing.T) {
	raw := `[{"name":"a"},{"name":"b"}]`

	message, rows, err := ParseReply(raw)
	require.NoError(t, err)
	require.Empty(t, message)
	require.Len(t, rows, 2)
}

func TestParseReplyUnwrapsWireShape(t *testing.T) {
	raw := `{"FILTERED_DATA":[{"data":{"name":"Product A","price":150}}],"EXPLANATION":"ok"}`

	_, rows, err := ParseReply(raw)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Product A", rows[0].Data["name"])
	require.Equal(t, float64(150), rows[0].Data["price"])
}

func TestParseReplyCoercesStringifiedScalars(t *testing.T) {
	raw := `{"TRANSFORMED_DATA":[{"price":"150","active":"true","archived":"False","note":"hello","missing":"null","nested":{"count":"7"},"tags":["1","x"]}],"EXPLANATION":""}`

	_, rows, err := ParseReply(raw)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	data := rows[0].Data
	require.Equal(t, float64(150), data["price"])
	require.Equal(t, true, data["active"])
	require.Equal(t, false, data["archived"])
	require.Equal(t, "hello", data["note"])
	require.Nil(t, data["missing"])
	require.Equal(t, float64(7), data["nested"].(map[string]any)["count"])
	require.Equal(t, []any{float64(1), "x"}, data["tags"])
}

func TestParseReplyFailureCases(t *testing.T) {
	cases := map[string]string{
		"empty":              "",
		"prose only":         "I'm sorry, I can't help with that.",
		"scalar":             "42",
		"no data key":        `{"RESULT":[{"a":1}],"EXPLANATION":"x"}`,
		"data key not array": `{"TRANSFORMED_DATA":{"a":1},"EXPLANATION":"x"}`,
		"row not object":     `{"TRANSFORMED_DATA":[1,2,3],"EXPLANATION":"x"}`,
		"truncated json":     `{"TRANSFORMED_DATA":[{"a":1}`,
	}

	for name, raw := range cases {
		_, _, err := ParseReply(raw)
		require.ErrorIs(t, err, ErrUnparsable, "case %q must fail with a distinguishable error", name)
	}
}
