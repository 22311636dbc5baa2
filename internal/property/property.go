// Package property names the safety properties checked at sell sites.
package property

import (
	"fmt"
	"strings"
)

// Property is a verification property
type Property int

const (
	// NonNegative requires every sell price to be at least 0
	NonNegative Property = iota
	// ItemProfit requires every sell price to cover the production cost of
	// every frog the receiver may refer to
	ItemProfit
	// OverallProfit requires the summed profit of a method to be at least 0
	OverallProfit
)

// All lists the properties in reporting order
var All = []Property{NonNegative, ItemProfit, OverallProfit}

var names = map[Property]string{
	NonNegative:   "NON_NEGATIVE",
	ItemProfit:    "ITEM_PROFIT",
	OverallProfit: "OVERALL_PROFIT",
}

func (p Property) String() string {
	if name, ok := names[p]; ok {
		return name
	}
	return fmt.Sprintf("Property(%d)", int(p))
}

// Parse accepts NON_NEGATIVE, ITEM_PROFIT and OVERALL_PROFIT in any case,
// with dashes or underscores
func Parse(s string) (Property, error) {
	normalized := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")
	for p, name := range names {
		if name == normalized {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown property %q (expected one of NON_NEGATIVE, ITEM_PROFIT, OVERALL_PROFIT)", s)
}

// ParseList parses a comma separated list, or "all"
func ParseList(s string) ([]Property, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") || strings.TrimSpace(s) == "" {
		return append([]Property{}, All...), nil
	}
	var out []Property
	seen := make(map[Property]bool)
	for _, part := range strings.Split(s, ",") {
		p, err := Parse(part)
		if err != nil {
			return nil, err
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

// MarshalText writes the property name
func (p Property) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a property name
func (p *Property) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
