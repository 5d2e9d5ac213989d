package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/psxom3/genai-regwatch/internal/domain"
	"github.com/psxom3/genai-regwatch/internal/infrastructure/llm"
	"github.com/psxom3/genai-regwatch/internal/jsonrepair"
	"github.com/psxom3/genai-regwatch/internal/logging"
	"github.com/psxom3/genai-regwatch/internal/ports"
	"github.com/psxom3/genai-regwatch/internal/textproc"
)

// ActionExtractor collects compliance action items chunk by chunk.
type ActionExtractor struct {
	completer  ports.Completer
	chunkWords int
	policy     domain.ActionPolicy
	logger     *slog.Logger
}

// NewActionExtractor builds an extractor. An invalid policy falls back to keep.
func NewActionExtractor(completer ports.Completer, chunkWords int, policy domain.ActionPolicy, logger *slog.Logger) *ActionExtractor {
	if !policy.Valid() {
		policy = domain.ActionPolicyKeep
	}
	return &ActionExtractor{completer: completer, chunkWords: chunkWords, policy: policy, logger: logging.OrDiscard(logger)}
}

// Extract returns the accumulated items and their JSON array text. Failed or
// unparseable chunks contribute nothing.
func (e *ActionExtractor) Extract(ctx context.Context, text, title string) ([]domain.ActionItem, string) {
	chunks := textproc.Prepare(text, e.chunkWords)

	items := make([]domain.ActionItem, 0)
	seen := make(map[string]struct{})
	for i, chunk := range chunks {
		out := e.completer.Complete(ctx, actionPrompt(i+1, title, chunk), actionTokens)
		if llm.IsFailure(out) {
			e.logger.Debug("chunk actions failed", "title", title, "part", i+1)
			continue
		}

		parsed, err := ParseActions(jsonrepair.Repair(out))
		if err != nil {
			e.logger.Debug("chunk actions unparseable", "title", title, "part", i+1, "error", err)
			continue
		}

		for _, item := range parsed {
			if e.policy == domain.ActionPolicyDedupe {
				key := item.Key()
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			items = append(items, item)
		}
	}

	return items, EncodeActions(items)
}

// EncodeActions serializes items as a JSON array; nil encodes as "[]".
func EncodeActions(items []domain.ActionItem) string {
	if len(items) == 0 {
		return jsonrepair.Empty
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return jsonrepair.Empty
	}
	return string(raw)
}

// ParseActions decodes a JSON array (or a lone object) into action items.
// Values of any JSON type are rendered as text; non-object elements are skipped.
func ParseActions(text string) ([]domain.ActionItem, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}

	var elems []any
	switch t := v.(type) {
	case []any:
		elems = t
	case map[string]any:
		elems = []any{t}
	default:
		return nil, fmt.Errorf("decode actions: unexpected %T", v)
	}

	items := make([]domain.ActionItem, 0, len(elems))
	for _, el := range elems {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, domain.ActionItem{
			Function:   textValue(obj["function"]),
			Task:       textValue(obj["task"]),
			DueBy:      textValue(obj["due_by"]),
			References: textValue(obj["references"]),
		})
	}
	return items, nil
}

func textValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, 0, len(t))
		for _, el := range t {
			if s := textValue(el); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
