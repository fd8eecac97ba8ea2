// Package prompts holds the extraction instructions sent to the LLM, one per document type.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/joseph-ayodele/invoice-parser/constants"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("prompts").ParseFS(templateFS, "templates/*.tmpl"))

type templateData struct {
	Markdown    string
	FillJobCode bool
}

// TemplateName returns the template used for dt. Unknown types get the combined template.
func TemplateName(dt constants.DocumentType) string {
	switch dt {
	case constants.DocTypeInvoice:
		return "invoice.md.tmpl"
	case constants.DocTypeTimesheet:
		return "timesheet.md.tmpl"
	case constants.DocTypeMultipleTimesheets:
		return "multiple_timesheets.md.tmpl"
	default:
		return "combined.md.tmpl"
	}
}

// Select renders the instruction template for dt with markdown appended as the context.
func Select(dt constants.DocumentType, markdown string) string {
	name := TemplateName(dt)
	data := templateData{
		Markdown:    markdown,
		FillJobCode: dt == constants.DocTypeTimesheet,
	}
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		// templates are embedded and parsed at init; failure here is a programming error
		panic(fmt.Sprintf("prompts: execute %s: %v", name, err))
	}
	return b.String()
}
