package order

import (
	"strconv"
	"strings"
)

// DefaultNumberMask numbers orders by their persisted id.
const DefaultNumberMask = "{ID}"

// NumberFormatter derives the customer-facing order number from a persisted
// order.
type NumberFormatter interface {
	Format(o *Order) string
}

// MaskFormatter replaces {ID}, {YYYY}, {YY}, {MM} and {DD} in Mask with the
// order id and creation date.
type MaskFormatter struct {
	Mask string
}

func (f MaskFormatter) Format(o *Order) string {
	mask := f.Mask
	if mask == "" {
		mask = DefaultNumberMask
	}
	r := strings.NewReplacer(
		"{ID}", strconv.FormatInt(o.ID, 10),
		"{YYYY}", o.CreatedAt.Format("2006"),
		"{YY}", o.CreatedAt.Format("06"),
		"{MM}", o.CreatedAt.Format("01"),
		"{DD}", o.CreatedAt.Format("02"),
	)
	return r.Replace(mask)
}
