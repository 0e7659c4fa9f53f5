// Package categorize maps a bank vendor category and a transaction
// description to one of the household categories.
package categorize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"financas/internal/core"
)

// Rule assigns Category when any keyword is contained in either input.
type Rule struct {
	Category core.Category
	Keywords []string
}

// DefaultRules is the household rule table. Order is significant: the first
// matching rule wins, so transport is checked before market.
var DefaultRules = []Rule{
	{Category: core.CategoryTransport, Keywords: []string{"Transporte", "Uber", "99", "Posto"}},
	{Category: core.CategoryMarket, Keywords: []string{"Mercado", "Supermercado", "Assai", "Atacadao"}},
	{Category: core.CategoryLeisure, Keywords: []string{"Restaurante", "Ifood", "Burger", "Pizza"}},
	{Category: core.CategoryFixedBills, Keywords: []string{"Serviços", "Netflix", "Streaming"}},
	{Category: core.CategoryHealth, Keywords: []string{"Saúde", "Farmacia", "Drogasil"}},
}

// Categorizer applies an ordered rule table. The zero value has no rules and
// always yields the fallback category.
type Categorizer struct {
	rules    []Rule
	fallback core.Category
}

// New builds a categorizer over rules, keeping their order.
func New(rules []Rule) *Categorizer {
	c := &Categorizer{fallback: core.CategoryOther}
	for _, r := range rules {
		kw := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = Title(strings.TrimSpace(k)); k != "" {
				kw = append(kw, k)
			}
		}
		c.rules = append(c.rules, Rule{Category: r.Category, Keywords: kw})
	}
	return c
}

// Default returns a categorizer over DefaultRules.
func Default() *Categorizer {
	return New(DefaultRules)
}

// Rules returns a copy of the normalized rule table.
func (c *Categorizer) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Categorize returns the category of the first rule with a keyword contained
// in the title-cased vendor category or description, or "Outros".
func (c *Categorizer) Categorize(vendorCategory, description string) core.Category {
	vendor := Title(vendorCategory)
	desc := Title(description)
	for _, r := range c.rules {
		for _, k := range r.Keywords {
			if strings.Contains(vendor, k) || strings.Contains(desc, k) {
				return r.Category
			}
		}
	}
	if c.fallback == "" {
		return core.CategoryOther
	}
	return c.fallback
}

// Title title-cases s the way every keyword comparison expects.
// A cases.Caser keeps state, so one is built per call.
func Title(s string) string {
	return cases.Title(language.Und).String(s)
}
