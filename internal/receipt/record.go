package receipt

import (
	"encoding/json"
	"slices"

	"github.com/shopspring/decimal"
)

// Unknown is displayed for text fields the extractor could not recognize.
const Unknown = "Unknown"

// Field names used in the mapping form of a Record.
const (
	FieldRestaurantName    = "restaurant_name"
	FieldRestaurantAddress = "restaurant_address"
	FieldOrderDateTime     = "order_date_time"
	FieldPaymentMethod     = "payment_method"
	FieldItemsOrdered      = "items_ordered"
	FieldSubtotal          = "subtotal"
	FieldTax               = "tax"
	FieldTotal             = "total"
)

// FieldNames lists the record fields in their canonical order.
var FieldNames = []string{
	FieldRestaurantName,
	FieldRestaurantAddress,
	FieldOrderDateTime,
	FieldPaymentMethod,
	FieldItemsOrdered,
	FieldSubtotal,
	FieldTax,
	FieldTotal,
}

// Text is a recognized text value. The zero value means "not found".
type Text struct {
	Value string
	Found bool
}

// Known returns a recognized Text.
func Known(value string) Text {
	return Text{Value: value, Found: true}
}

// String renders the value, or Unknown when it was not recognized.
func (t Text) String() string {
	if !t.Found {
		return Unknown
	}
	return t.Value
}

// LineItem is one ordered menu item. Price is the line's own price.
type LineItem struct {
	Item     string
	Quantity int
	Price    decimal.Decimal
}

// Record is the structured form of one receipt. It is built once by the
// extractor and never mutated afterwards.
type Record struct {
	restaurantName    Text
	restaurantAddress Text
	orderDateTime     Text
	paymentMethod     Text
	items             []LineItem
	subtotal          decimal.Decimal
	tax               decimal.Decimal
	total             decimal.Decimal
}

// RecordFields carries the values used to build a Record.
type RecordFields struct {
	RestaurantName    Text
	RestaurantAddress Text
	OrderDateTime     Text
	PaymentMethod     Text
	Items             []LineItem
	Subtotal          decimal.Decimal
	Tax               decimal.Decimal
	Total             decimal.Decimal
}

// NewRecord builds an immutable Record. Missing values keep their defaults.
func NewRecord(f RecordFields) Record {
	items := slices.Clone(f.Items)
	if items == nil {
		items = []LineItem{}
	}
	return Record{
		restaurantName:    f.RestaurantName,
		restaurantAddress: f.RestaurantAddress,
		orderDateTime:     f.OrderDateTime,
		paymentMethod:     f.PaymentMethod,
		items:             items,
		subtotal:          f.Subtotal,
		tax:               f.Tax,
		total:             f.Total,
	}
}

func (r Record) RestaurantName() Text { return r.restaurantName }
func (r Record) RestaurantAddress() Text { return r.restaurantAddress }
func (r Record) OrderDateTime() Text { return r.orderDateTime }
func (r Record) PaymentMethod() Text { return r.paymentMethod }
func (r Record) Subtotal() decimal.Decimal { return r.subtotal }
func (r Record) Tax() decimal.Decimal { return r.tax }
func (r Record) Total() decimal.Decimal { return r.total }

// Items returns a copy of the ordered line items.
func (r Record) Items() []LineItem {
	items := slices.Clone(r.items)
	if items == nil {
		items = []LineItem{}
	}
	return items
}

// amount renders a decimal as a JSON number with cent precision.
func amount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// Fields returns the record as a mapping from field name to value. Text
// fields use their display form and amounts are two-decimal numbers.
func (r Record) Fields() map[string]any {
	items := make([]any, 0, len(r.items))
	for _, it := range r.items {
		items = append(items, map[string]any{
			"item":     it.Item,
			"quantity": it.Quantity,
			"price":    amount(it.Price),
		})
	}
	return map[string]any{
		FieldRestaurantName:    r.restaurantName.String(),
		FieldRestaurantAddress: r.restaurantAddress.String(),
		FieldOrderDateTime:     r.orderDateTime.String(),
		FieldPaymentMethod:     r.paymentMethod.String(),
		FieldItemsOrdered:      items,
		FieldSubtotal:          amount(r.subtotal),
		FieldTax:               amount(r.tax),
		FieldTotal:             amount(r.total),
	}
}

// MarshalJSON serializes the mapping form.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Fields())
}

// UnmarshalJSON reads the mapping form back. Text fields equal to Unknown
// are treated as not found.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		RestaurantName    string          `json:"restaurant_name"`
		RestaurantAddress string          `json:"restaurant_address"`
		OrderDateTime     string          `json:"order_date_time"`
		PaymentMethod     string          `json:"payment_method"`
		Subtotal          decimal.Decimal `json:"subtotal"`
		Tax               decimal.Decimal `json:"tax"`
		Total             decimal.Decimal `json:"total"`
		Items             []struct {
			Item     string          `json:"item"`
			Quantity int             `json:"quantity"`
			Price    decimal.Decimal `json:"price"`
		} `json:"items_ordered"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	text := func(s string) Text {
		if s == "" || s == Unknown {
			return Text{}
		}
		return Known(s)
	}
	items := make([]LineItem, 0, len(raw.Items))
	for _, it := range raw.Items {
		items = append(items, LineItem{Item: it.Item, Quantity: it.Quantity, Price: it.Price})
	}
	*r = NewRecord(RecordFields{
		RestaurantName:    text(raw.RestaurantName),
		RestaurantAddress: text(raw.RestaurantAddress),
		OrderDateTime:     text(raw.OrderDateTime),
		PaymentMethod:     text(raw.PaymentMethod),
		Items:             items,
		Subtotal:          raw.Subtotal,
		Tax:               raw.Tax,
		Total:             raw.Total,
	})
	return nil
}
