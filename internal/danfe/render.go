package danfe

import (
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/utilhub/nfequery/internal/nfe"
)

//go:embed danfe.gohtml
var danfeTemplate string

var page = template.Must(template.New("danfe").Funcs(template.FuncMap{
	"formatKey":   FormatAccessKey,
	"formatTaxID": FormatTaxID,
	"formatDate":  FormatDate,
}).Parse(danfeTemplate))

// Render produces the DANFE HTML page for the document. Document values are
// escaped by the template engine, so untrusted field content cannot inject
// markup into the page.
func Render(doc *nfe.Document) (string, error) {
	var buf strings.Builder
	if err := page.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("failed to render document view: %w", err)
	}
	return buf.String(), nil
}
