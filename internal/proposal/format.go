package proposal

import (
	"strconv"
	"strings"
	"time"

	"github.com/cubo-casa/orcamentos/internal/money"
)

// formatQuantity prints a quantity pt-BR style without trailing zeros.
func formatQuantity(q float64) string {
	s := strconv.FormatFloat(money.Round(q), 'f', -1, 64)
	return strings.Replace(s, ".", ",", 1)
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func clientLine(doc Document) string {
	parts := []string{doc.Client.Name}
	for _, p := range []string{doc.Client.Document, doc.Client.Phone, doc.Client.Email} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " | ")
}

// sanitizeCell keeps spreadsheet applications from reading text as a
// formula.
func sanitizeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}
