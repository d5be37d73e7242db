package report

import (
	"math"

	"github.com/xGLETONAx/billares-chapinlandia/internal/money"
)

// LineItem is a single product line on a closed ticket, in major units.
type LineItem struct {
	Name      string
	UnitPrice float64
	Quantity  int
}

// Ticket is a closed consumption ticket as seen by the revenue engine.
// Total is the amount actually collected and is treated as authoritative:
// the engine never assumes Total equals products + table time - discount.
type Ticket struct {
	Items     []LineItem
	TableTime float64
	Discount  float64
	Total     float64
}

// grossCents sums per-line product cents and the table-time charge.
// Each line is converted to cents independently, mirroring how the
// amounts were charged.
func grossCents(t Ticket) (product, grossTotal int64) {
	for _, it := range t.Items {
		product += money.ToCents(it.UnitPrice * float64(it.Quantity))
	}
	return product, product + money.ToCents(t.TableTime)
}

// productShareOfDiscount prorates a ticket-level discount onto the
// product category by gross share, so neither category absorbs the
// whole discount when both are present.
func productShareOfDiscount(grossProduct, grossTotal, discount int64) int64 {
	if grossTotal <= 0 || discount <= 0 {
		return 0
	}
	return int64(math.Round(float64(discount) * float64(grossProduct) / float64(grossTotal)))
}

// NetTableTimeCents returns the table-time revenue of a ticket net of
// its share of the discount. It is derived residually from the audited
// total rather than computed independently, which guarantees that
// product net plus table-time net equals the collected total whenever
// the total covers the product net, and floors at zero otherwise.
func NetTableTimeCents(t Ticket) int64 {
	grossProduct, grossTotal := grossCents(t)
	discount := money.ToCents(t.Discount)
	netProduct := money.ClampNonNegative(grossProduct - productShareOfDiscount(grossProduct, grossTotal, discount))
	return money.ClampNonNegative(money.ToCents(t.Total) - netProduct)
}

// NetProductCents returns the product revenue of a ticket net of the
// prorated discount. With no discount it is the exact gross sum, with
// no proration rounding applied.
func NetProductCents(t Ticket) int64 {
	grossProduct, grossTotal := grossCents(t)
	discount := money.ToCents(t.Discount)
	if discount == 0 {
		return grossProduct
	}
	return money.ClampNonNegative(grossProduct - productShareOfDiscount(grossProduct, grossTotal, discount))
}

// NetProductCentsFor returns the net revenue attributable to lines whose
// name matches exactly. Lines sharing the name are summed before the
// per-ticket net factor is applied. Unmatched names yield zero.
func NetProductCentsFor(t Ticket, name string) int64 {
	grossProduct, grossTotal := grossCents(t)
	var selected int64
	for _, it := range t.Items {
		if it.Name == name {
			selected += money.ToCents(it.UnitPrice * float64(it.Quantity))
		}
	}
	discount := money.ToCents(t.Discount)
	if discount == 0 {
		return selected
	}
	if grossProduct == 0 {
		return 0
	}
	netProduct := money.ClampNonNegative(grossProduct - productShareOfDiscount(grossProduct, grossTotal, discount))
	factor := float64(netProduct) / float64(grossProduct)
	return int64(math.Round(float64(selected) * factor))
}
