package constants

import "strings"

// DocumentType selects which instruction template is sent to the LLM.
type DocumentType string

const (
	DocTypeInvoice            DocumentType = "Invoice"
	DocTypeTimesheet          DocumentType = "Timesheet"
	DocTypeMultipleTimesheets DocumentType = "Multiple Timesheets"
	// DocTypeCombined covers documents carrying both an invoice and a timesheet.
	// Unknown values resolve to it.
	DocTypeCombined DocumentType = "Digital Invoice and Timesheet"
)

// DocumentTypes lists the selectable types in display order.
var DocumentTypes = []DocumentType{
	DocTypeInvoice,
	DocTypeTimesheet,
	DocTypeCombined,
	DocTypeMultipleTimesheets,
}

var docTypeAliases = map[string]DocumentType{
	"invoice":                       DocTypeInvoice,
	"timesheet":                     DocTypeTimesheet,
	"multiple timesheets":           DocTypeMultipleTimesheets,
	"multiple":                      DocTypeMultipleTimesheets,
	"multiple-timesheets":           DocTypeMultipleTimesheets,
	"digital invoice and timesheet": DocTypeCombined,
	"both":                          DocTypeCombined,
	"combined":                      DocTypeCombined,
}

// ParseDocumentType maps a UI label or CLI alias to a DocumentType.
// Anything unrecognised becomes DocTypeCombined.
func ParseDocumentType(s string) DocumentType {
	if dt, ok := LookupDocumentType(s); ok {
		return dt
	}
	return DocTypeCombined
}

// LookupDocumentType is ParseDocumentType without the fallback.
func LookupDocumentType(s string) (DocumentType, bool) {
	dt, ok := docTypeAliases[strings.ToLower(strings.TrimSpace(s))]
	return dt, ok
}

func (d DocumentType) String() string { return string(d) }
