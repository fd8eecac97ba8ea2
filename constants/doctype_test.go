package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDocumentType(t *testing.T) {
	cases := map[string]DocumentType{
		"Invoice":                       DocTypeInvoice,
		" timesheet ":                   DocTypeTimesheet,
		"Multiple Timesheets":           DocTypeMultipleTimesheets,
		"multiple":                      DocTypeMultipleTimesheets,
		"Digital Invoice and Timesheet": DocTypeCombined,
		"both":                          DocTypeCombined,
		"":                              DocTypeCombined,
		"purchase order":                DocTypeCombined,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseDocumentType(in), "input %q", in)
	}
}

func TestIsAllowedExt(t *testing.T) {
	assert.True(t, IsAllowedExt(".PDF"))
	assert.True(t, IsAllowedExt("pdf"))
	assert.False(t, IsAllowedExt(".png"))
}

func TestLookupDocumentType(t *testing.T) {
	dt, ok := LookupDocumentType("Timesheet")
	assert.True(t, ok)
	assert.Equal(t, DocTypeTimesheet, dt)

	_, ok = LookupDocumentType("receipts")
	assert.False(t, ok)
}
