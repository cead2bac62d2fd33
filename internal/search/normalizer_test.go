package search

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexi-legal/jagriti-proxy/internal/document"
	errordefs "github.com/lexi-legal/jagriti-proxy/internal/errors"
	"github.com/lexi-legal/jagriti-proxy/internal/model"
	"github.com/lexi-legal/jagriti-proxy/internal/storage"
)

func newDocuments(t *testing.T) *document.Recoverer {
	t.Helper()
	store, err := storage.NewMemory(16, nil)
	require.NoError(t, err)
	return document.NewRecoverer(store, "0.0.0.0", "8000")
}

func TestParseDataList(t *testing.T) {
	n := NewNormalizer(newDocuments(t))

	records, err := n.Parse(context.Background(), []byte(`{
		"status": 200,
		"data": [{
			"caseNumber": " DC/77/CC/104/2025 ",
			"caseStageName": "ADMIT\n HEARING",
			"caseFilingDate": "2025-01-04",
			"complainantName": "  Kumar   Lal ",
			"complainantAdvocateName": null,
			"respondentName": "Acme\tInsurance  Co",
			"unknownField": {"nested": true}
		}]
	}`))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, model.CaseRecord{
		CaseNumber:  "DC/77/CC/104/2025",
		CaseStage:   "ADMIT HEARING",
		FilingDate:  "2025-01-04",
		Complainant: "Kumar Lal",
		Respondent:  "Acme Insurance Co",
	}, records[0])
}

func TestParseDataObjectWithCases(t *testing.T) {
	n := NewNormalizer(newDocuments(t))

	records, err := n.Parse(context.Background(), []byte(`{"status":200,"data":{"cases":[{"caseNumber":"A"},{"caseNumber":"B"}]}}`))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].CaseNumber)
	assert.Equal(t, "B", records[1].CaseNumber)
}

func TestParseEmptyShapes(t *testing.T) {
	n := NewNormalizer(newDocuments(t))

	for name, body := range map[string]string{
		"data missing":  `{"status":200}`,
		"cases missing": `{"status":200,"data":{}}`,
		"cases null":    `{"status":200,"data":{"cases":null}}`,
		"empty list":    `{"status":200,"data":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			records, err := n.Parse(context.Background(), []byte(body))
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestParseRejectsBadResponses(t *testing.T) {
	n := NewNormalizer(newDocuments(t))

	for name, body := range map[string]string{
		"status 500":     `{"status":500,"data":[]}`,
		"status string":  `{"status":"200","data":[]}`,
		"status missing": `{"data":[]}`,
		"data string":    `{"status":200,"data":"nope"}`,
		"data null":      `{"status":200,"data":null}`,
		"cases object":   `{"status":200,"data":{"cases":{}}}`,
		"not json":       `<html>`,
		"top level list": `[]`,
		"null":           `null`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := n.Parse(context.Background(), []byte(body))
			require.Error(t, err)
			assert.True(t, errordefs.Is(err, errordefs.JAGRITI_UPSTREAM))
		})
	}
}

func TestParseStringifiesScalars(t *testing.T) {
	n := NewNormalizer(newDocuments(t))

	records, err := n.Parse(context.Background(), []byte(`{"status":200,"data":[{"caseNumber":12345678901234567890,"caseStageName":true,"respondentName":["x"]}]}`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "12345678901234567890", records[0].CaseNumber)
	assert.Equal(t, "true", records[0].CaseStage)
	assert.Equal(t, "", records[0].Respondent)
}

func TestParseSkipsNonObjectEntries(t *testing.T) {
	n := NewNormalizer(newDocuments(t))

	records, err := n.Parse(context.Background(), []byte(`{"status":200,"data":["junk",42,null,{"caseNumber":"A"}]}`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].CaseNumber)
}

func TestParseRecoversDocuments(t *testing.T) {
	docs := newDocuments(t)
	n := NewNormalizer(docs)
	pdf := []byte("%PDF-1.4 final order")
	encoded := base64.StdEncoding.EncodeToString(pdf)

	records, err := n.Parse(context.Background(), []byte(`{"status":200,"data":[
		{"caseNumber":"A","documentBase64":"`+encoded+`"},
		{"caseNumber":"B","judgmentOrderDocumentBase64":"data:application/pdf;base64,`+encoded+`"},
		{"caseNumber":"C","documentBase64":"%%%"}
	]}`))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Regexp(t, `^http://localhost:8000/documents/[0-9a-f]{32}$`, records[0].DocumentLink)
	assert.Equal(t, records[0].DocumentLink, records[1].DocumentLink)
	assert.Equal(t, "", records[2].DocumentLink)

	got, ok := docs.Retrieve(context.Background(), document.ID(pdf))
	require.True(t, ok)
	assert.Equal(t, pdf, got)
}

type failingDocs struct{}

func (failingDocs) Recover(context.Context, map[string]any) (string, error) {
	return "", errordefs.Decode("bad payload", errors.New("illegal base64"))
}

func TestParseDecodeErrorLeavesLinkEmpty(t *testing.T) {
	n := NewNormalizer(failingDocs{})

	records, err := n.Parse(context.Background(), []byte(`{"status":200,"data":[{"caseNumber":"A","complainantName":"X"}]}`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].DocumentLink)
	assert.Equal(t, "X", records[0].Complainant)
}
