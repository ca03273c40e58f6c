package pricing

import "math"

// MinQuantity is the smallest quantity accepted for a line item. Fixed RT
// values are divided by quantity, so zero must never reach the engine.
const MinQuantity = 0.01

// FeeType says whether a fee is a flat amount or a percentage.
type FeeType string

const (
	FeeFixed      FeeType = "fixed"
	FeePercentage FeeType = "percentage"
)

// Distribution says how the RT fee reaches the client.
type Distribution string

const (
	// Diluted folds RT into every item's sale price.
	Diluted Distribution = "diluted"
	// Separate reports RT as its own line in the summary.
	Separate Distribution = "separate"
)

// Rules is the pricing configuration of one budget. Percentages are 0-100.
type Rules struct {
	MarkupPercentage float64      `json:"markup_percentage"`
	RTType           FeeType      `json:"rt_type"`
	RTValue          float64      `json:"rt_value"`
	RTDistribution   Distribution `json:"rt_distribution"`
	LaborType        FeeType      `json:"labor_type"`
	LaborValue       float64      `json:"labor_value"`
}

// DefaultRules returns the rules used when no configuration exists:
// no markup, no RT, no labor.
func DefaultRules() Rules {
	return Rules{
		RTType:         FeePercentage,
		RTDistribution: Diluted,
		LaborType:      FeePercentage,
	}
}

// OrDefault returns the referenced rules, or DefaultRules when r is nil.
func (r *Rules) OrDefault() Rules {
	if r == nil {
		return DefaultRules()
	}
	return *r
}

// Normalized clamps negative values to zero and replaces unknown enum
// values with their defaults.
func (r Rules) Normalized() Rules {
	out := r
	out.MarkupPercentage = nonNegative(r.MarkupPercentage)
	out.RTValue = nonNegative(r.RTValue)
	out.LaborValue = nonNegative(r.LaborValue)
	if !out.RTType.Valid() {
		out.RTType = FeePercentage
	}
	if !out.LaborType.Valid() {
		out.LaborType = FeePercentage
	}
	if !out.RTDistribution.Valid() {
		out.RTDistribution = Diluted
	}
	return out
}

// Valid reports whether t is a known fee type.
func (t FeeType) Valid() bool {
	return t == FeeFixed || t == FeePercentage
}

// Valid reports whether d is a known distribution.
func (d Distribution) Valid() bool {
	return d == Diluted || d == Separate
}

// Item is the authoritative input of a line item.
type Item struct {
	Quantity      float64
	PurchasePrice float64
}

// ItemPrice holds the derived values of a line item.
type ItemPrice struct {
	SalePrice float64
	Subtotal  float64
}

// Totals is the rollup of a set of items, at environment or project scope.
type Totals struct {
	PurchaseTotal   float64 `json:"purchase_total"`
	ItemsTotal      float64 `json:"items_total"`
	TotalQuantity   float64 `json:"total_quantity"`
	LaborTotal      float64 `json:"labor_total"`
	RTTotal         float64 `json:"rt_total"`
	SeparateRTTotal float64 `json:"separate_rt_total"`
	CostTotal       float64 `json:"cost_total"`
	ProfitTotal     float64 `json:"profit_total"`
	FinalTotal      float64 `json:"final_total"`
}

// Add returns the field-by-field sum of t and o.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		PurchaseTotal:   t.PurchaseTotal + o.PurchaseTotal,
		ItemsTotal:      t.ItemsTotal + o.ItemsTotal,
		TotalQuantity:   t.TotalQuantity + o.TotalQuantity,
		LaborTotal:      t.LaborTotal + o.LaborTotal,
		RTTotal:         t.RTTotal + o.RTTotal,
		SeparateRTTotal: t.SeparateRTTotal + o.SeparateRTTotal,
		CostTotal:       t.CostTotal + o.CostTotal,
		ProfitTotal:     t.ProfitTotal + o.ProfitTotal,
		FinalTotal:      t.FinalTotal + o.FinalTotal,
	}
}

// WithItemsTotal replaces the items total, typically with the sum of stored
// item subtotals, and rederives final total and profit from it.
func (t Totals) WithItemsTotal(itemsTotal float64) Totals {
	t.ItemsTotal = itemsTotal
	t.FinalTotal = t.ItemsTotal + t.LaborTotal
	t.ProfitTotal = t.FinalTotal - t.CostTotal
	return t
}

// DeriveSalePrice computes the unit sale price of an item: markup first,
// then diluted RT. Labor is never part of the unit price; it is reported
// at environment level.
func DeriveSalePrice(purchasePrice, quantity float64, rules Rules) float64 {
	quantity = ClampQuantity(quantity)

	price := purchasePrice
	if rules.MarkupPercentage > 0 {
		price *= 1 + rules.MarkupPercentage/100
	}

	if rules.RTDistribution == Diluted && rules.RTValue > 0 {
		switch rules.RTType {
		case FeePercentage:
			price *= 1 + rules.RTValue/100
		case FeeFixed:
			price += rules.RTValue / quantity
		}
	}

	return price
}

// Subtotal is quantity times sale price.
func Subtotal(quantity, salePrice float64) float64 {
	return quantity * salePrice
}

// PriceItem derives sale price and subtotal from the item's quantity and
// purchase price. Stored sale prices are never an input.
func PriceItem(item Item, rules Rules) ItemPrice {
	qty := ClampQuantity(item.Quantity)
	sale := DeriveSalePrice(item.PurchasePrice, qty, rules)
	return ItemPrice{SalePrice: sale, Subtotal: Subtotal(qty, sale)}
}

// EnvironmentTotals rolls up the items of one environment.
func EnvironmentTotals(items []Item, rules Rules) Totals {
	var t Totals
	var percentageBase float64

	for _, item := range items {
		qty := ClampQuantity(item.Quantity)
		price := PriceItem(item, rules)

		t.PurchaseTotal += item.PurchasePrice * qty
		t.ItemsTotal += price.Subtotal
		t.TotalQuantity += qty

		saleWithMarkup := item.PurchasePrice * qty * (1 + rules.MarkupPercentage/100)
		percentageBase += saleWithMarkup

		switch rules.RTType {
		case FeePercentage:
			t.RTTotal += saleWithMarkup * rules.RTValue / 100
		case FeeFixed:
			// Once per item: matches the rt/qty added to each unit price.
			t.RTTotal += rules.RTValue
		}
	}

	switch rules.LaborType {
	case FeeFixed:
		t.LaborTotal = rules.LaborValue * t.TotalQuantity
	case FeePercentage:
		t.LaborTotal = percentageBase * rules.LaborValue / 100
	}

	if rules.RTDistribution == Separate {
		t.SeparateRTTotal = t.RTTotal
	}

	t.CostTotal = t.PurchaseTotal + t.LaborTotal + t.RTTotal
	t.FinalTotal = t.ItemsTotal + t.LaborTotal
	t.ProfitTotal = t.FinalTotal - t.CostTotal

	return t
}

// ProjectTotals sums EnvironmentTotals of every environment. There is no
// proration across environments.
func ProjectTotals(environments [][]Item, rules Rules) Totals {
	var t Totals
	for _, items := range environments {
		t = t.Add(EnvironmentTotals(items, rules))
	}
	return t
}

// ClampQuantity floors q at MinQuantity.
func ClampQuantity(q float64) float64 {
	if q < MinQuantity || math.IsNaN(q) {
		return MinQuantity
	}
	return q
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
