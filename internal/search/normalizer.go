package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	errordefs "github.com/lexi-legal/jagriti-proxy/internal/errors"
	"github.com/lexi-legal/jagriti-proxy/internal/model"
	"github.com/lexi-legal/jagriti-proxy/internal/normalize"
)

// DocumentRecoverer turns a raw case entry into a document link.
type DocumentRecoverer interface {
	Recover(ctx context.Context, entry map[string]any) (string, error)
}

// Normalizer converts portal search responses into CaseRecords.
type Normalizer struct {
	docs DocumentRecoverer
}

// NewNormalizer creates a Normalizer that resolves document links through docs.
func NewNormalizer(docs DocumentRecoverer) *Normalizer {
	return &Normalizer{docs: docs}
}

// Parse decodes a portal search response body. The body must carry status 200
// and a data field that is either a list of cases or an object holding one
// under "cases". Anything else is a JAGRITI_UPSTREAM error. Individual entries
// that are not objects are skipped, and a document that fails to decode
// leaves document_link empty.
func (n *Normalizer) Parse(ctx context.Context, body []byte) ([]model.CaseRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var top map[string]any
	if err := dec.Decode(&top); err != nil {
		return nil, errordefs.Upstream("malformed search response", err)
	}
	if top == nil {
		return nil, errordefs.Upstream("search response is not an object", nil)
	}

	if status, ok := top["status"].(json.Number); !ok || status.String() != "200" {
		return nil, errordefs.Upstream(fmt.Sprintf("portal returned status %v", top["status"]), nil)
	}

	entries, err := caseList(top)
	if err != nil {
		return nil, err
	}

	records := make([]model.CaseRecord, 0, len(entries))
	for i, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			slog.Warn("skipping non-object case entry", "index", i)
			continue
		}
		records = append(records, n.record(ctx, entry))
	}
	return records, nil
}

// caseList locates the case array inside the response.
func caseList(top map[string]any) ([]any, error) {
	data, present := top["data"]
	if !present {
		return nil, nil
	}

	switch d := data.(type) {
	case []any:
		return d, nil
	case map[string]any:
		switch cases := d["cases"].(type) {
		case nil:
			return nil, nil
		case []any:
			return cases, nil
		default:
			return nil, errordefs.Upstream(fmt.Sprintf("unexpected cases type %T", cases), nil)
		}
	default:
		return nil, errordefs.Upstream(fmt.Sprintf("unexpected data type %T", data), nil)
	}
}

func (n *Normalizer) record(ctx context.Context, entry map[string]any) model.CaseRecord {
	link, err := n.docs.Recover(ctx, entry)
	if err != nil {
		slog.Warn("dropping undecodable document", "case_number", text(entry, "caseNumber"), "error", err)
		link = ""
	}

	return model.CaseRecord{
		CaseNumber:          text(entry, "caseNumber"),
		CaseStage:           text(entry, "caseStageName"),
		FilingDate:          text(entry, "caseFilingDate"),
		Complainant:         text(entry, "complainantName"),
		ComplainantAdvocate: text(entry, "complainantAdvocateName"),
		Respondent:          text(entry, "respondentName"),
		RespondentAdvocate:  text(entry, "respondentAdvocateName"),
		DocumentLink:        link,
	}
}

// text reads key from entry as cleaned text. Numbers and booleans are
// rendered as written; null, missing and structured values are empty.
func text(entry map[string]any, key string) string {
	switch v := entry[key].(type) {
	case string:
		return normalize.CleanText(v)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
