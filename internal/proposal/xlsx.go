package proposal

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/cubo-casa/orcamentos/internal/money"
)

const (
	itemsSheet   = "Itens"
	summarySheet = "Resumo"
)

// RenderXLSX exports the proposal as a spreadsheet. With internal set, the
// item sheet carries purchase prices and the summary the cost breakdown.
func RenderXLSX(doc Document, internal bool) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), itemsSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create bold style: %w", err)
	}

	headers := []string{"Ambiente", "Item", "Quantidade", "Valor unitário", "Subtotal"}
	if internal {
		headers = append(headers, "Preço de compra")
	}
	if err := f.SetSheetRow(itemsSheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("write item headers: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	f.SetCellStyle(itemsSheet, "A1", lastCol+"1", headerStyle)
	f.SetColWidth(itemsSheet, "A", "B", 28)
	f.SetColWidth(itemsSheet, "C", lastCol, 16)

	r := 2
	for _, env := range doc.Environments {
		for _, l := range env.Lines {
			values := []any{sanitizeCell(env.Name), sanitizeCell(l.Name), l.Quantity, money.Round(l.SalePrice), money.Round(l.Subtotal)}
			if internal {
				values = append(values, money.Round(l.PurchasePrice))
			}
			if err := f.SetSheetRow(itemsSheet, "A"+strconv.Itoa(r), &values); err != nil {
				return nil, fmt.Errorf("write item row: %w", err)
			}
			r++
		}
	}

	summary := [][]any{
		{"Protocolo", doc.ProtocolNumber},
		{"Cliente", sanitizeCell(doc.Client.Name)},
		{"Data", formatDate(doc.Date)},
		{},
	}
	for _, env := range doc.Environments {
		summary = append(summary, []any{sanitizeCell(env.Name), money.Round(env.Totals.FinalTotal)})
	}
	summary = append(summary,
		[]any{},
		[]any{"Itens", money.Round(doc.Totals.ItemsTotal)},
		[]any{"Mão de obra", money.Round(doc.Totals.LaborTotal)},
	)
	if doc.SeparateRT() {
		summary = append(summary, []any{"RT (cobrada à parte)", money.Round(doc.Totals.SeparateRTTotal)})
	}
	summary = append(summary, []any{"Total geral", money.Round(doc.Totals.FinalTotal)})
	totalRow := len(summary)
	if internal {
		summary = append(summary,
			[]any{},
			[]any{"Custo de compra", money.Round(doc.Totals.PurchaseTotal)},
			[]any{"Custo de mão de obra", money.Round(doc.Totals.LaborTotal)},
			[]any{"RT", money.Round(doc.Totals.RTTotal)},
			[]any{"Custo total", money.Round(doc.Totals.CostTotal)},
			[]any{"Lucro", money.Round(doc.Totals.ProfitTotal)},
		)
	}

	for i, values := range summary {
		if len(values) == 0 {
			continue
		}
		if err := f.SetSheetRow(summarySheet, "A"+strconv.Itoa(i+1), &values); err != nil {
			return nil, fmt.Errorf("write summary row: %w", err)
		}
	}
	f.SetColWidth(summarySheet, "A", "A", 28)
	f.SetColWidth(summarySheet, "B", "B", 16)
	f.SetCellStyle(summarySheet, "A"+strconv.Itoa(totalRow), "B"+strconv.Itoa(totalRow), boldStyle)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
