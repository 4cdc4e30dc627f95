package receipt

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Extractor runs one recognizer per record field over normalized text.
// Recognizers are independent: one failing never affects another.
type Extractor struct {
	RestaurantName    TextMatcher
	RestaurantAddress TextMatcher
	OrderDateTime     TextMatcher
	PaymentMethod     TextMatcher
	Items             *ItemMatcher
	Subtotal          AmountMatcher
	Tax               AmountMatcher
	Total             AmountMatcher

	logger *zap.Logger
}

// NewExtractor returns an Extractor with the default recognizers.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		RestaurantName:    NewLabelMatcher("Restaurant Name:"),
		RestaurantAddress: NewLabelMatcher("Address:"),
		OrderDateTime:     NewDateTimeMatcher("Order Date and Time:"),
		PaymentMethod:     NewLabelMatcher("Payment Method:"),
		Items:             NewItemMatcher(),
		Subtotal:          NewAmountMatcher("Subtotal:"),
		Tax:               NewAmountMatcher("Tax:"),
		Total:             NewAmountMatcher("Total Amount Paid:").OrLineStart("Total:"),
		logger:            logger,
	}
}

var defaultExtractor = NewExtractor(nil)

// Extract builds a Record from normalized text using the default recognizers.
func Extract(text string) Record {
	return defaultExtractor.Extract(text)
}

// Extract builds a complete Record. Unrecognized fields keep their defaults.
func (e *Extractor) Extract(text string) Record {
	var missing []string

	matchText := func(name string, m TextMatcher) Text {
		t := m.MatchText(text)
		if !t.Found {
			missing = append(missing, name)
		}
		return t
	}
	matchAmount := func(name string, m AmountMatcher) decimal.Decimal {
		d, ok := m.MatchAmount(text)
		if !ok {
			missing = append(missing, name)
		}
		return d
	}

	f := RecordFields{
		RestaurantName:    matchText(FieldRestaurantName, e.RestaurantName),
		RestaurantAddress: matchText(FieldRestaurantAddress, e.RestaurantAddress),
		OrderDateTime:     matchText(FieldOrderDateTime, e.OrderDateTime),
		PaymentMethod:     matchText(FieldPaymentMethod, e.PaymentMethod),
		Items:             e.Items.MatchItems(text),
		Subtotal:          matchAmount(FieldSubtotal, e.Subtotal),
		Tax:               matchAmount(FieldTax, e.Tax),
		Total:             matchAmount(FieldTotal, e.Total),
	}
	if len(f.Items) == 0 {
		missing = append(missing, FieldItemsOrdered)
	}

	if len(missing) > 0 {
		e.logger.Debug("Fields not recognized", zap.Strings("fields", missing))
	}
	return NewRecord(f)
}
