package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tableflow/llm-backend/internal/models"
)

// ErrUnparsable reports that no table could be recovered from the model's
// reply. It is distinguishable so the handler never returns a 200 with a
// silently empty table.
var ErrUnparsable = errors.New("llm: unparsable model reply")

// Model replies are expected to carry one of these keys depending on intent.
var dataKeys = []string{"TRANSFORMED_DATA", "FILTERED_DATA", "ANALYZED_DATA"}

// ParseReply extracts the structured table out of a free-text model reply.
// It tolerates surrounding prose and markdown fences, accepts either the
// keyed-object contract or a bare JSON array, and coerces scalar values the
// model stringified back to numbers, booleans and nulls.
func ParseReply(raw string) (string, []models.TableRow, error) {
	value, ok := extractJSON(raw)
	if !ok {
		return "", nil, fmt.Errorf("%w: no JSON found", ErrUnparsable)
	}

	switch v := value.(type) {
	case []any:
		rows, err := toRows(v)
		if err != nil {
			return "", nil, err
		}
		return "", rows, nil
	case map[string]any:
		var data any
		found := false
		for _, key := range dataKeys {
			if d, ok := v[key]; ok {
				data, found = d, true
				break
			}
		}
		if !found {
			return "", nil, fmt.Errorf("%w: no data key in object", ErrUnparsable)
		}
		arr, ok := data.([]any)
		if !ok {
			return "", nil, fmt.Errorf("%w: data key is not an array", ErrUnparsable)
		}
		rows, err := toRows(arr)
		if err != nil {
			return "", nil, err
		}
		message, _ := v["EXPLANATION"].(string)
		return message, rows, nil
	default:
		return "", nil, fmt.Errorf("%w: top-level value is not an object or array", ErrUnparsable)
	}
}

// extractJSON runs the tolerant parse pipeline: direct decode, then with
// markdown fences stripped, then the outermost braced/bracketed span.
func extractJSON(raw string) (any, bool) {
	raw = strings.TrimSpace(raw)

	candidates := []string{raw, stripFences(raw)}
	if span, ok := outermostSpan(raw, '{', '}'); ok {
		candidates = append(candidates, span)
	}
	if span, ok := outermostSpan(raw, '[', ']'); ok {
		candidates = append(candidates, span)
	}

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		var value any
		if err := json.Unmarshal([]byte(candidate), &value); err == nil {
			return value, true
		}
	}
	return nil, false
}

func stripFences(raw string) string {
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	if idx := strings.Index(raw, "\n"); idx >= 0 {
		raw = raw[idx+1:] // drop the language tag line
	}
	if idx := strings.LastIndex(raw, "```"); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}

func outermostSpan(raw string, open, closing byte) (string, bool) {
	start := strings.IndexByte(raw, open)
	end := strings.LastIndexByte(raw, closing)
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func toRows(arr []any) ([]models.TableRow, error) {
	rows := make([]models.TableRow, 0, len(arr))
	for i, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: row %d is not an object", ErrUnparsable, i)
		}
		// The model may echo back the wire shape {"data": {...}} instead of
		// the bare row object; unwrap it.
		if inner, ok := obj["data"].(map[string]any); ok && len(obj) == 1 {
			obj = inner
		}
		rows = append(rows, models.TableRow{Data: normalizeObject(obj)})
	}
	return rows, nil
}

func normalizeObject(obj map[string]any) map[string]any {
	for k, v := range obj {
		obj[k] = normalizeValue(v)
	}
	return obj
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case string:
		return normalizeScalar(t)
	case map[string]any:
		return normalizeObject(t)
	case []any:
		for i, item := range t {
			t[i] = normalizeValue(item)
		}
		return t
	default:
		return v
	}
}

// normalizeScalar coerces stringified scalars back to a consistent
// representation. Numbers become float64 so they compare equal to values
// decoded from the request JSON.
func normalizeScalar(s string) any {
	trimmed := strings.TrimSpace(s)
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if trimmed != "" {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
	}
	return s
}
