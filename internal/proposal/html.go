package proposal

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/cubo-casa/orcamentos/internal/money"
)

//go:embed templates/*.html
var templateFS embed.FS

var htmlTemplate = template.Must(
	template.New("proposal.html").
		Funcs(template.FuncMap{
			"brl":      money.FormatBRL,
			"quantity": formatQuantity,
			"date":     formatDate,
			"client":   clientLine,
		}).
		ParseFS(templateFS, "templates/proposal.html"),
)

// RenderHTML writes the proposal as a standalone HTML page.
func RenderHTML(w io.Writer, doc Document) error {
	if err := htmlTemplate.Execute(w, doc); err != nil {
		return fmt.Errorf("render proposal html: %w", err)
	}
	return nil
}
