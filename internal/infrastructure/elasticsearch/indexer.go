// Package elasticsearch indexes processed documents for search.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/psxom3/genai-regwatch/internal/domain"
	"github.com/psxom3/genai-regwatch/internal/logging"
	"github.com/psxom3/genai-regwatch/internal/ports"
)

// Indexer writes one search document per processed regulatory update.
type Indexer struct {
	es    *elasticsearch.Client
	index string
	log   *slog.Logger
}

var _ ports.Notifier = (*Indexer)(nil)

// indexedUpdate is the stored search document.
type indexedUpdate struct {
	DocumentID  int64               `json:"document_id"`
	Regulator   string              `json:"regulator"`
	Title       string              `json:"title"`
	URL         string              `json:"url"`
	Summary     string              `json:"summary"`
	Actions     []domain.ActionItem `json:"actions"`
	Functions   []string            `json:"functions"`
	ProcessedAt time.Time           `json:"processed_at"`
}

// New instantiates the Elasticsearch client.
func New(addresses []string, index string, logger *slog.Logger) (*Indexer, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Indexer{es: es, index: index, log: logging.OrDiscard(logger)}, nil
}

// Name identifies the channel in logs.
func (i *Indexer) Name() string { return "elasticsearch" }

// Notify upserts the alert under its document id.
func (i *Indexer) Notify(ctx context.Context, alert domain.Alert) error {
	doc := indexedUpdate{
		DocumentID:  alert.DocumentID,
		Regulator:   alert.Regulator,
		Title:       alert.Title,
		URL:         alert.URL,
		Summary:     alert.Summary,
		Actions:     alert.Actions,
		Functions:   functions(alert.Actions),
		ProcessedAt: alert.ProcessedAt,
	}
	if doc.Actions == nil {
		doc.Actions = []domain.ActionItem{}
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal doc: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: strconv.FormatInt(alert.DocumentID, 10),
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, i.es)
	if err != nil {
		return fmt.Errorf("index doc: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index doc failed: %s", strings.TrimSpace(string(body)))
	}

	i.log.Debug("document indexed", "index", i.index, "document_id", alert.DocumentID)
	return nil
}

func functions(items []domain.ActionItem) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		f := strings.TrimSpace(it.Function)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
