// internal/model/cases.go
// Package model defines the data structures shared by the proxy's layers:
// reference data, search requests, the upstream wire payload and the
// normalized case records returned to callers.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar date wire format.
const DateLayout = "2006-01-02"

// StateRef is a state commission as exposed by the portal.
type StateRef struct {
	StateID   string `json:"state_id"`   // Opaque upstream identifier
	StateName string `json:"state_name"` // Canonical uppercase name
}

// CommissionRef is a district commission belonging to a state.
type CommissionRef struct {
	CommissionID   string `json:"commission_id"`   // Opaque upstream identifier
	CommissionName string `json:"commission_name"` // Name as returned by the portal
	StateID        string `json:"state_id"`        // StateRef this commission was listed under
}

// Date is a calendar date that marshals as YYYY-MM-DD.
// A nil *Date in a request means the caller left the bound open.
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// String renders the date, or "" for the zero value.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler. JSON null leaves the zero value.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string in %s format", DateLayout)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected %s", s, DateLayout)
	}
	*d = Date{t}
	return nil
}

// SearchRequest is the body accepted by every /cases/by-* endpoint.
type SearchRequest struct {
	StateID      string `json:"state_id"`            // State commission id, e.g. 11290000
	CommissionID string `json:"commission_id"`       // District commission id, e.g. 15290525
	SearchValue  string `json:"search_value"`        // Text matched by the selected search kind
	FromDate     *Date  `json:"from_date,omitempty"` // Defaults to today-30d
	ToDate       *Date  `json:"to_date,omitempty"`   // Defaults to today
}

// CaseRecord is one normalized case returned to callers.
type CaseRecord struct {
	CaseNumber          string `json:"case_number"`
	CaseStage           string `json:"case_stage"`
	FilingDate          string `json:"filing_date"`
	Complainant         string `json:"complainant"`
	ComplainantAdvocate string `json:"complainant_advocate"`
	Respondent          string `json:"respondent"`
	RespondentAdvocate  string `json:"respondent_advocate"`
	DocumentLink        string `json:"document_link"`
}

// Upstream payload constants fixed by the portal.
const (
	DateRequestTypeFiling = 1 // Filter on case filing date
	OrderTypeDaily        = 1 // Daily orders
)

// UpstreamPayload is the body of the portal's case search call.
// Field names (including the "serch" spelling) are the portal's.
type UpstreamPayload struct {
	CommissionID    int64  `json:"commissionId"`
	DateRequestType int    `json:"dateRequestType"`
	FromDate        string `json:"fromDate"`
	ToDate          string `json:"toDate"`
	JudgeID         string `json:"judgeId"`
	OrderType       int    `json:"orderType"`
	SearchType      int    `json:"serchType"`
	SearchTypeValue string `json:"serchTypeValue"`
}
