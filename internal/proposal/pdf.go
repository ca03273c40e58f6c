package proposal

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/cubo-casa/orcamentos/internal/money"
)

var (
	grey       = &props.Color{Red: 100, Green: 100, Blue: 100}
	headerFill = &props.Cell{BackgroundColor: &props.Color{Red: 230, Green: 230, Blue: 230}}
	titleText  = props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Left}
	headText   = props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Left}
	bodyText   = props.Text{Size: 9, Align: align.Left}
	mutedText  = props.Text{Size: 8, Align: align.Left, Color: grey}
	labelRight = props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	valueRight = props.Text{Size: 9, Align: align.Right}
)

// RenderPDF renders the proposal with one page per section.
func RenderPDF(doc Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   grey,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddPages(coverPage(doc))
	if doc.Layout.ServiceScope != "" {
		m.AddPages(textPage("Escopo do serviço", doc.Layout.ServiceScope))
	}
	for _, env := range doc.Environments {
		m.AddPages(environmentPage(env))
	}
	m.AddPages(summaryPage(doc))
	if doc.Layout.WarrantyText != "" {
		m.AddPages(textPage("Garantia", doc.Layout.WarrantyText))
	}
	if doc.Layout.ClosingText != "" {
		m.AddPages(textPage("", doc.Layout.ClosingText))
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate proposal pdf: %w", err)
	}
	return out.GetBytes(), nil
}

func coverPage(doc Document) core.Page {
	return page.New().Add(
		row.New(60),
		row.New(14).Add(col.New(12).Add(text.New(doc.Layout.CoverTitle, props.Text{Size: 22, Style: fontstyle.Bold, Align: align.Center}))),
		row.New(8).Add(col.New(12).Add(text.New(clientLine(doc), props.Text{Size: 11, Align: align.Center}))),
		row.New(8).Add(col.New(12).Add(text.New(
			fmt.Sprintf("Protocolo nº %d | %s", doc.ProtocolNumber, formatDate(doc.Date)),
			props.Text{Size: 10, Align: align.Center, Color: grey},
		))),
	)
}

func textPage(title, body string) core.Page {
	rows := []core.Row{}
	if title != "" {
		rows = append(rows, row.New(12).Add(col.New(12).Add(text.New(title, titleText))))
	}
	rows = append(rows, row.New(40).Add(col.New(12).Add(text.New(body, props.Text{Size: 10, Align: align.Left}))))
	return page.New().Add(rows...)
}

func environmentPage(env EnvironmentPage) core.Page {
	rows := []core.Row{
		row.New(12).Add(col.New(12).Add(text.New(env.Name, titleText))),
	}
	if env.Description != "" {
		rows = append(rows, row.New(8).Add(col.New(12).Add(text.New(env.Description, mutedText))))
	}

	rows = append(rows, row.New(7).Add(
		col.New(6).Add(text.New("Item", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Left})).WithStyle(headerFill),
		col.New(2).Add(text.New("Qtd.", labelRight)).WithStyle(headerFill),
		col.New(2).Add(text.New("Unitário", labelRight)).WithStyle(headerFill),
		col.New(2).Add(text.New("Subtotal", labelRight)).WithStyle(headerFill),
	))
	for _, l := range env.Lines {
		rows = append(rows, row.New(6).Add(
			col.New(6).Add(text.New(l.Name, bodyText)),
			col.New(2).Add(text.New(formatQuantity(l.Quantity), valueRight)),
			col.New(2).Add(text.New(money.FormatBRL(l.SalePrice), valueRight)),
			col.New(2).Add(text.New(money.FormatBRL(l.Subtotal), valueRight)),
		))
	}

	rows = append(rows,
		row.New(4),
		totalRow("Itens", env.Totals.ItemsTotal),
		totalRow("Mão de obra", env.Totals.LaborTotal),
		totalRow("Total do ambiente", env.Totals.FinalTotal),
	)
	return page.New().Add(rows...)
}

func summaryPage(doc Document) core.Page {
	rows := []core.Row{
		row.New(12).Add(col.New(12).Add(text.New("Resumo", titleText))),
	}
	for _, env := range doc.Environments {
		rows = append(rows, totalRow(env.Name, env.Totals.FinalTotal))
	}
	rows = append(rows,
		row.New(4),
		totalRow("Itens", doc.Totals.ItemsTotal),
		totalRow("Mão de obra", doc.Totals.LaborTotal),
	)
	if doc.SeparateRT() {
		rows = append(rows, totalRow("RT (cobrada à parte)", doc.Totals.SeparateRTTotal))
	}
	rows = append(rows,
		totalRow("Total geral", doc.Totals.FinalTotal),
		row.New(8),
		row.New(10).Add(col.New(12).Add(text.New("Formas de pagamento", headText))),
		row.New(7).Add(col.New(12).Add(text.New(
			fmt.Sprintf("À vista: %s (desconto de %s)", money.FormatBRL(doc.Payment.UpfrontTotal), money.FormatBRL(doc.Payment.UpfrontDiscount)),
			bodyText,
		))),
		row.New(7).Add(col.New(12).Add(text.New(
			fmt.Sprintf("Entrada de %s + %dx de %s", money.FormatBRL(doc.Payment.DownPayment), doc.Payment.Installments, money.FormatBRL(doc.Payment.InstallmentValue)),
			bodyText,
		))),
	)
	for _, note := range []string{doc.Layout.PaymentMethods, doc.PaymentTerms} {
		if note != "" {
			rows = append(rows, row.New(7).Add(col.New(12).Add(text.New(note, mutedText))))
		}
	}
	return page.New().Add(rows...)
}

func totalRow(label string, value float64) core.Row {
	return row.New(6).Add(
		col.New(8).Add(text.New(label, labelRight)),
		col.New(4).Add(text.New(money.FormatBRL(value), valueRight)),
	)
}
