package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchKindCodes(t *testing.T) {
	for i, k := range SearchKinds {
		assert.Equal(t, i+1, k.Code(), string(k))
		assert.True(t, k.Valid())
		assert.NotEmpty(t, k.Slug())
	}
	assert.Equal(t, 0, SearchKind("ADDRESS").Code())
	assert.False(t, SearchKind("ADDRESS").Valid())
}

func TestSearchRequestDates(t *testing.T) {
	var req SearchRequest
	err := json.Unmarshal([]byte(`{"state_id":"11290000","commission_id":"15290525","search_value":"KUMAR","from_date":"2025-01-01","to_date":null}`), &req)
	require.NoError(t, err)

	require.NotNil(t, req.FromDate)
	assert.Equal(t, "2025-01-01", req.FromDate.String())
	assert.Nil(t, req.ToDate)
}

func TestSearchRequestRejectsBadDate(t *testing.T) {
	var req SearchRequest
	err := json.Unmarshal([]byte(`{"from_date":"2025-02-30"}`), &req)
	assert.Error(t, err)
}

func TestUpstreamPayloadWireNames(t *testing.T) {
	b, err := json.Marshal(UpstreamPayload{
		CommissionID:    15290525,
		DateRequestType: DateRequestTypeFiling,
		FromDate:        "2025-01-01",
		ToDate:          "2025-01-31",
		OrderType:       OrderTypeDaily,
		SearchType:      2,
		SearchTypeValue: "KUMAR",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"commissionId":15290525,"dateRequestType":1,"fromDate":"2025-01-01","toDate":"2025-01-31","judgeId":"","orderType":1,"serchType":2,"serchTypeValue":"KUMAR"}`, string(b))
}
