// Package llm is the gateway to the hosted model: one classification call to
// pick the intent, one processing call parameterized by it, and a tolerant
// parser that turns the model's free-text reply back into table rows.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tableflow/llm-backend/internal/models"
)

// Generator is the single model call the gateway depends on.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Result is the outcome of one processed request.
type Result struct {
	Intent  models.Intent
	Message string
	Rows    []models.TableRow
}

type Gateway struct {
	model   Generator
	timeout time.Duration
}

const defaultTimeout = 60 * time.Second

func NewGateway(model Generator, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gateway{model: model, timeout: timeout}
}

// ClassifyIntent asks the model for a single category label. Classification
// never fails the request: on error or an unrecognized label it falls back
// to the default intent, logging the fallback so it stays observable.
func (g *Gateway) ClassifyIntent(ctx context.Context, userPrompt string) models.Intent {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.model.Generate(ctx, classifySystemPrompt(), userPrompt)
	if err != nil {
		log.Printf("llm: intent classification failed, falling back to %s: %v", models.DefaultIntent, err)
		return models.DefaultIntent
	}

	label := strings.ToLower(strings.TrimSpace(raw))
	intent, ok := models.ParseIntent(label)
	if !ok {
		log.Printf("llm: unrecognized intent %q, falling back to %s", label, models.DefaultIntent)
		return models.DefaultIntent
	}
	return intent
}

// Process runs the two-step round trip: classify the prompt, then send the
// intent-specific instruction with the serialized table. The calls are
// serial since the intent determines the second prompt.
func (g *Gateway) Process(ctx context.Context, userPrompt string, rows []models.TableRow) (Result, error) {
	intent := g.ClassifyIntent(ctx, userPrompt)

	tableJSON, err := marshalRows(rows)
	if err != nil {
		return Result{}, fmt.Errorf("llm: serialize table: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.model.Generate(callCtx, processSystemPrompt(intent), processUserPrompt(userPrompt, tableJSON))
	if err != nil {
		return Result{}, fmt.Errorf("llm: process call: %w", err)
	}

	message, outRows, err := ParseReply(raw)
	if err != nil {
		return Result{}, err
	}
	return Result{Intent: intent, Message: message, Rows: outRows}, nil
}

// marshalRows serializes the bare row objects; the model never sees the
// {"data": ...} wire wrapper.
func marshalRows(rows []models.TableRow) (string, error) {
	bare := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		bare = append(bare, row.Data)
	}
	buf, err := json.Marshal(bare)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}
