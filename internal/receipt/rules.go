package receipt

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var knownIntents = map[Intent]bool{
	IntentRestaurantName: true,
	IntentAddress:        true,
	IntentDateTime:       true,
	IntentPaymentMethod:  true,
	IntentItemsOrdered:   true,
	IntentSubtotal:       true,
	IntentTax:            true,
	IntentTotal:          true,
}

type ruleFile struct {
	Intents []struct {
		Intent   string   `yaml:"intent"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"intents"`
}

// ParseRules reads a priority list such as:
//
//	intents:
//	  - intent: total
//	    keywords: [total, amount paid]
//	  - intent: address
//	    keywords: [address, where]
//
// Entries are evaluated in file order.
func ParseRules(r io.Reader) ([]Rule, error) {
	var f ruleFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding intent rules: %w", err)
	}
	if len(f.Intents) == 0 {
		return nil, fmt.Errorf("no intents defined")
	}

	seen := make(map[Intent]bool)
	rules := make([]Rule, 0, len(f.Intents))
	for i, entry := range f.Intents {
		intent := Intent(entry.Intent)
		if !knownIntents[intent] {
			return nil, fmt.Errorf("entry %d: unknown intent %q", i, entry.Intent)
		}
		if seen[intent] {
			return nil, fmt.Errorf("entry %d: duplicate intent %q", i, entry.Intent)
		}
		if len(entry.Keywords) == 0 {
			return nil, fmt.Errorf("entry %d: intent %q has no keywords", i, entry.Intent)
		}
		seen[intent] = true
		rules = append(rules, Rule{Intent: intent, Keywords: entry.Keywords})
	}
	return rules, nil
}

// LoadRules reads intent rules from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening intent rules: %w", err)
	}
	defer f.Close()
	return ParseRules(f)
}
