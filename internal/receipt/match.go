package receipt

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// currencySymbols are accepted in front of amounts.
const currencySymbols = `$€£¥₹`

// labelPattern builds a case-insensitive pattern for a field label. Spaces in
// the label match any run of whitespace, including none, so "Order Date and
// Time:" also matches "OrderDate and Time:".
func labelPattern(label string, wordBoundary bool) string {
	parts := strings.Fields(label)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	prefix := `(?i)`
	if wordBoundary {
		prefix += `\b`
	}
	return prefix + strings.Join(parts, `\s*`) + `\s*`
}

// TextMatcher recognizes a single text field.
type TextMatcher interface {
	MatchText(text string) Text
}

// AmountMatcher recognizes a single decimal amount.
type AmountMatcher interface {
	MatchAmount(text string) (decimal.Decimal, bool)
}

// LabelMatcher captures the rest of the line following any of its labels.
// Labels are tried in order and the first one present wins.
type LabelMatcher struct {
	patterns []*regexp.Regexp
}

// NewLabelMatcher compiles a matcher for the given labels.
func NewLabelMatcher(labels ...string) *LabelMatcher {
	m := &LabelMatcher{}
	for _, l := range labels {
		m.patterns = append(m.patterns, regexp.MustCompile(labelPattern(l, false)+`([^\n]+)`))
	}
	return m
}

// MatchText implements TextMatcher.
func (m *LabelMatcher) MatchText(text string) Text {
	for _, re := range m.patterns {
		if sm := re.FindStringSubmatch(text); sm != nil {
			if v := CleanText(sm[1]); v != "" {
				return Known(v)
			}
		}
	}
	return Text{}
}

// PatternMatcher captures a value with a fixed grammar after a label.
type PatternMatcher struct {
	re *regexp.Regexp
}

// NewPatternMatcher compiles a matcher whose value must match valuePattern.
func NewPatternMatcher(label, valuePattern string) *PatternMatcher {
	return &PatternMatcher{re: regexp.MustCompile(labelPattern(label, false) + `(` + valuePattern + `)`)}
}

// MatchText implements TextMatcher.
func (m *PatternMatcher) MatchText(text string) Text {
	sm := m.re.FindStringSubmatch(text)
	if sm == nil {
		return Text{}
	}
	return Known(CleanText(sm[1]))
}

// dateTimeValue is a date token, an optional comma and an H:MM AM/PM time.
const dateTimeValue = `[\d,/.\-]+[ \t]*,?[ \t]*\d+:\d+[ \t]*[AaPp][Mm]`

// NewDateTimeMatcher returns the order date/time recognizer.
func NewDateTimeMatcher(label string) *PatternMatcher {
	return NewPatternMatcher(label, dateTimeValue)
}

// amountValue is an optional currency symbol followed by a decimal number.
const amountValue = `[` + currencySymbols + `]?[ \t]*([\d.]+)`

// LabeledAmountMatcher reads an optional currency symbol and a decimal number
// after any of its labels. Labels are word-bounded so that "Total:" does not
// match inside "Subtotal:".
type LabeledAmountMatcher struct {
	patterns []*regexp.Regexp
}

// NewAmountMatcher compiles an amount matcher for the given labels.
func NewAmountMatcher(labels ...string) *LabeledAmountMatcher {
	return (&LabeledAmountMatcher{}).Or(labels...)
}

// Or appends labels tried after the existing ones.
func (m *LabeledAmountMatcher) Or(labels ...string) *LabeledAmountMatcher {
	for _, l := range labels {
		m.patterns = append(m.patterns, regexp.MustCompile(labelPattern(l, true)+amountValue))
	}
	return m
}

// OrLineStart appends labels that only count when they open a line, so a
// short label such as "Total:" is not taken from "Sub Total:".
func (m *LabeledAmountMatcher) OrLineStart(labels ...string) *LabeledAmountMatcher {
	for _, l := range labels {
		m.patterns = append(m.patterns, regexp.MustCompile(`(?m)^[ \t]*`+labelPattern(l, false)+amountValue))
	}
	return m
}

// MatchAmount implements AmountMatcher. A value that is not a valid decimal
// counts as not found.
func (m *LabeledAmountMatcher) MatchAmount(text string) (decimal.Decimal, bool) {
	for _, re := range m.patterns {
		sm := re.FindStringSubmatch(text)
		if sm == nil {
			continue
		}
		d, err := decimal.NewFromString(sm[1])
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

// ItemMatcher extracts every "* 2 Cheeseburger - $8.99" shaped line item.
type ItemMatcher struct {
	re *regexp.Regexp
}

// NewItemMatcher returns the default line-item recognizer.
func NewItemMatcher() *ItemMatcher {
	return &ItemMatcher{
		re: regexp.MustCompile(`[*•]\s*(\d+)\s+([\p{L}\p{N}_\s]+)\s+-\s+[` + currencySymbols + `](\d+\.\d+)`),
	}
}

// MatchItems returns all non-overlapping items in textual order. Matches
// whose quantity or price cannot be converted are skipped.
func (m *ItemMatcher) MatchItems(text string) []LineItem {
	var items []LineItem
	for _, sm := range m.re.FindAllStringSubmatch(text, -1) {
		qty, err := strconv.Atoi(sm[1])
		if err != nil {
			continue
		}
		price, err := decimal.NewFromString(sm[3])
		if err != nil {
			continue
		}
		items = append(items, LineItem{
			Item:     CleanText(sm[2]),
			Quantity: qty,
			Price:    price,
		})
	}
	return items
}
