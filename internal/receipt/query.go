package receipt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Intent is a question category.
type Intent string

const (
	IntentRestaurantName Intent = "restaurant_name"
	IntentAddress        Intent = "address"
	IntentDateTime       Intent = "date_time"
	IntentPaymentMethod  Intent = "payment_method"
	IntentItemsOrdered   Intent = "items_ordered"
	IntentSubtotal       Intent = "subtotal"
	IntentTax            Intent = "tax"
	IntentTotal          Intent = "total"
	IntentUnknown        Intent = "unknown"
)

// HelpMessage is returned for questions no rule recognizes.
const HelpMessage = "I'm sorry, I couldn't understand your query. " +
	"You can ask about the restaurant name, address, order date and time, payment method, items ordered, subtotal, tax, or total."

// Rule maps an intent to the keywords that select it.
type Rule struct {
	Intent   Intent
	Keywords []string
}

// DefaultRules returns the built-in priority order, highest first.
func DefaultRules() []Rule {
	return []Rule{
		{Intent: IntentRestaurantName, Keywords: []string{"restaurant name"}},
		{Intent: IntentAddress, Keywords: []string{"address"}},
		{Intent: IntentDateTime, Keywords: []string{"date", "time", "placed"}},
		{Intent: IntentPaymentMethod, Keywords: []string{"payment", "method"}},
		{Intent: IntentItemsOrdered, Keywords: []string{"items", "ordered"}},
		{Intent: IntentSubtotal, Keywords: []string{"subtotal"}},
		{Intent: IntentTax, Keywords: []string{"tax"}},
		{Intent: IntentTotal, Keywords: []string{"total"}},
	}
}

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// NormalizeQuestion lower-cases q and strips everything but letters, digits
// and whitespace.
func NormalizeQuestion(q string) string {
	return strings.TrimSpace(punctuation.ReplaceAllString(strings.ToLower(q), ""))
}

// Engine classifies questions by keyword presence. The first rule with a
// keyword contained in the question wins.
type Engine struct {
	rules []Rule
}

// NewEngine returns an Engine evaluating rules in the given order. A nil or
// empty rule set falls back to DefaultRules.
func NewEngine(rules []Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	e := &Engine{rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		kw := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = NormalizeQuestion(k); k != "" {
				kw = append(kw, k)
			}
		}
		e.rules = append(e.rules, Rule{Intent: r.Intent, Keywords: kw})
	}
	return e
}

// Rules returns the rules in priority order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Classify returns the intent of q.
func (e *Engine) Classify(q string) Intent {
	nq := NormalizeQuestion(q)
	for _, r := range e.rules {
		for _, k := range r.Keywords {
			if strings.Contains(nq, k) {
				return r.Intent
			}
		}
	}
	return IntentUnknown
}

// Answer classifies q and renders the matching answer from rec.
func (e *Engine) Answer(q string, rec Record) string {
	return Render(e.Classify(q), rec)
}

func dollars(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Render fills the answer template of intent from rec.
func Render(intent Intent, rec Record) string {
	switch intent {
	case IntentRestaurantName:
		return fmt.Sprintf("The restaurant name is %s.", rec.RestaurantName())
	case IntentAddress:
		return fmt.Sprintf("The restaurant address is %s.", rec.RestaurantAddress())
	case IntentDateTime:
		if !rec.OrderDateTime().Found {
			return "The order date and time are not available in the receipt."
		}
		return fmt.Sprintf("The order was placed on %s.", rec.OrderDateTime())
	case IntentPaymentMethod:
		return fmt.Sprintf("The payment method used was %s.", rec.PaymentMethod())
	case IntentItemsOrdered:
		var b strings.Builder
		b.WriteString("The items ordered are:")
		for _, it := range rec.Items() {
			fmt.Fprintf(&b, "\n- %s (Quantity: %d, Price: %s)", it.Item, it.Quantity, dollars(it.Price))
		}
		return b.String()
	case IntentSubtotal:
		return fmt.Sprintf("The subtotal is %s.", dollars(rec.Subtotal()))
	case IntentTax:
		return fmt.Sprintf("The tax amount is %s.", dollars(rec.Tax()))
	case IntentTotal:
		return "The breakdown of the total amount paid is as follows:\n" +
			"- Subtotal: " + dollars(rec.Subtotal()) + "\n" +
			"- Tax: " + dollars(rec.Tax()) + "\n" +
			"- Total Amount Paid: " + dollars(rec.Total())
	default:
		return HelpMessage
	}
}
