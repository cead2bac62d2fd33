package model

// SearchKind selects which case dimension the portal matches against.
type SearchKind string

const (
	KindCaseNumber          SearchKind = "CASE NUMBER"
	KindComplainant         SearchKind = "COMPLAINANT / APPELLANT /PETITIONER"
	KindRespondent          SearchKind = "RESPONDENT / OPPOSITE PARTY"
	KindComplainantAdvocate SearchKind = "COMPLAINANT / APPELLANT /PETITIONER ADVOCATE"
	KindRespondentAdvocate  SearchKind = "RESPONDENT / OPPOSITE PARTY ADVOCATE"
	KindIndustryType        SearchKind = "INDUSTRY TYPE"
	KindJudge               SearchKind = "JUDGE"
)

// SearchKinds lists every kind in upstream code order.
var SearchKinds = []SearchKind{
	KindCaseNumber,
	KindComplainant,
	KindRespondent,
	KindComplainantAdvocate,
	KindRespondentAdvocate,
	KindIndustryType,
	KindJudge,
}

var kindCodes = map[SearchKind]int{
	KindCaseNumber:          1,
	KindComplainant:         2,
	KindRespondent:          3,
	KindComplainantAdvocate: 4,
	KindRespondentAdvocate:  5,
	KindIndustryType:        6,
	KindJudge:               7,
}

var kindSlugs = map[SearchKind]string{
	KindCaseNumber:          "case-number",
	KindComplainant:         "complainant",
	KindRespondent:          "respondent",
	KindComplainantAdvocate: "complainant-advocate",
	KindRespondentAdvocate:  "respondent-advocate",
	KindIndustryType:        "industry-type",
	KindJudge:               "judge",
}

// Code returns the portal's serchType value, or 0 for an unknown kind.
func (k SearchKind) Code() int {
	return kindCodes[k]
}

// Slug is the route suffix used by the HTTP layer (/cases/by-<slug>).
func (k SearchKind) Slug() string {
	return kindSlugs[k]
}

// Valid reports whether k is one of the seven known kinds.
func (k SearchKind) Valid() bool {
	_, ok := kindCodes[k]
	return ok
}
