package pricing

// PaymentPlan configures the payment options printed on a proposal.
type PaymentPlan struct {
	UpfrontDiscountPercentage float64 `json:"upfront_discount_percentage"`
	DownPaymentPercentage     float64 `json:"down_payment_percentage"`
	Installments              int     `json:"installments"`
}

// DefaultPaymentPlan is 5% off for upfront payment, or 50% down and the
// rest in 6 installments.
func DefaultPaymentPlan() PaymentPlan {
	return PaymentPlan{
		UpfrontDiscountPercentage: 5,
		DownPaymentPercentage:     50,
		Installments:              6,
	}
}

// Payment holds the two payment options derived from a total.
type Payment struct {
	Total            float64 `json:"total"`
	UpfrontDiscount  float64 `json:"upfront_discount"`
	UpfrontTotal     float64 `json:"upfront_total"`
	DownPayment      float64 `json:"down_payment"`
	Remaining        float64 `json:"remaining"`
	Installments     int     `json:"installments"`
	InstallmentValue float64 `json:"installment_value"`
}

// PaymentOptions splits total according to plan. An installment count
// below one is treated as a single installment.
func PaymentOptions(total float64, plan PaymentPlan) Payment {
	installments := plan.Installments
	if installments < 1 {
		installments = 1
	}

	discount := total * nonNegative(plan.UpfrontDiscountPercentage) / 100
	down := total * nonNegative(plan.DownPaymentPercentage) / 100
	remaining := total - down

	return Payment{
		Total:            total,
		UpfrontDiscount:  discount,
		UpfrontTotal:     total - discount,
		DownPayment:      down,
		Remaining:        remaining,
		Installments:     installments,
		InstallmentValue: remaining / float64(installments),
	}
}
