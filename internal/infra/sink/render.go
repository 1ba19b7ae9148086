package sink

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"

	"github.com/bryanwahyu/sparklens/internal/domain/analysis"
)

const SummaryName = "summary"

// Document is one named record of a run.
type Document struct {
	Key  string
	Body []byte
}

// Render turns a run into one document per section plus a summary document.
// Keys look like <userId>/<runId>/<section>.json and come back sorted.
func Render(rec analysis.Record) ([]Document, error) {
	if rec.UserID == "" || rec.RunID == "" {
		return nil, errors.New("record needs user id and run id")
	}
	names := make([]string, 0, len(rec.Sections))
	for name := range rec.Sections {
		names = append(names, name)
	}
	sort.Strings(names)

	docs := make([]Document, 0, len(names)+1)
	for _, name := range names {
		body, err := pretty(rec.Sections[name])
		if err != nil {
			return nil, fmt.Errorf("render section %s: %w", name, err)
		}
		docs = append(docs, Document{Key: key(rec, name), Body: body})
	}

	summary, err := pretty(map[string]any{
		"userId":    rec.UserID,
		"runId":     rec.RunID,
		"summary":   rec.Summary,
		"sections":  names,
		"createdAt": rec.CreatedAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("render summary: %w", err)
	}
	docs = append(docs, Document{Key: key(rec, SummaryName), Body: summary})
	return docs, nil
}

func key(rec analysis.Record, name string) string {
	return path.Join(rec.UserID, rec.RunID, name+".json")
}

func pretty(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
