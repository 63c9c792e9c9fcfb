// Package template implements the decision table that maps project
// attributes to the name of the folder template to copy.
package template

import (
	"github.com/shopspring/decimal"

	"github.com/erp/egnyte-provisioner/internal/domain/project"
	"github.com/erp/egnyte-provisioner/internal/domain/shared"
)

// FallbackConditionSet is the catch-all entry every rule table must carry.
// Its absence is a fatal configuration error at startup.
const FallbackConditionSet = "Null/(empty)"

// contractThreshold splits small and large projects. Amounts exactly at
// the threshold match neither the below-threshold rule nor any of the
// above-threshold rules and fall through the ordered list.
var contractThreshold = decimal.NewFromInt(7500)

// Attributes are the project attributes the decision table evaluates.
type Attributes struct {
	MasterProject         bool
	AddToExistingSeries   bool
	DepartmentDescription string
	ContractAmount        decimal.Decimal
	Market                string
	SubMarket             string
	ServiceType           string
}

// AttributesFrom extracts the decision attributes from a project record.
func AttributesFrom(p *project.Project) Attributes {
	return Attributes{
		MasterProject:         p.MasterProject,
		AddToExistingSeries:   p.AddToExistingSeries,
		DepartmentDescription: p.DepartmentDescription,
		ContractAmount:        p.ContractAmount,
		Market:                p.Market,
		SubMarket:             p.SubMarket,
		ServiceType:           p.ServiceType,
	}
}

// Rule binds a condition set identifier to a template folder name.
type Rule struct {
	ConditionSet string
	TemplateName string
}

// conditions is the fixed, ordered rule list. The first matching entry
// wins, so the order is load-bearing: master and series flags outrank the
// department rules, which outrank the amount and service-type rules.
var conditions = []struct {
	set   string
	match func(Attributes) bool
}{
	{"ConditionSet11", func(a Attributes) bool {
		return a.MasterProject
	}},
	{"ConditionSet12", func(a Attributes) bool {
		return a.AddToExistingSeries
	}},
	{"ConditionSet1", func(a Attributes) bool {
		return a.DepartmentDescription == "Raleigh"
	}},
	{"ConditionSet2", func(a Attributes) bool {
		return a.DepartmentDescription == "Charlotte"
	}},
	{"ConditionSet3", func(a Attributes) bool {
		return a.ContractAmount.LessThan(contractThreshold)
	}},
	{"ConditionSet4", func(a Attributes) bool {
		return a.Market == "Infrastructure" &&
			a.SubMarket == "Telecom Structures (towers, rooftops)"
	}},
	{"ConditionSet5", func(a Attributes) bool {
		return a.ServiceType == "Adaptive Re-Use (incl. historic reno)" &&
			a.ContractAmount.GreaterThan(contractThreshold)
	}},
	{"ConditionSet6", func(a Attributes) bool {
		return a.ServiceType == "Existing Analysis" &&
			a.ContractAmount.GreaterThan(contractThreshold)
	}},
	{"ConditionSet7", func(a Attributes) bool {
		return a.ServiceType == "Existing Assessment" &&
			a.ContractAmount.GreaterThan(contractThreshold)
	}},
	{"ConditionSet8", func(a Attributes) bool {
		return a.ServiceType == "New - Design-Bid-Build (incl. design and CA)" &&
			a.ContractAmount.GreaterThan(contractThreshold)
	}},
	{"ConditionSet9", func(a Attributes) bool {
		return a.ServiceType == "New - Design-Build (incl. fabricator/erector)" &&
			a.ContractAmount.GreaterThan(contractThreshold)
	}},
	{"ConditionSet10", func(a Attributes) bool {
		return a.ServiceType == "Special (i.e. IDD, B&P as Prime)" &&
			a.ContractAmount.GreaterThan(contractThreshold)
	}},
}

// Table is an immutable mapping from condition set to template name,
// constructed once at startup and passed by reference wherever template
// selection is needed.
type Table struct {
	templates map[string]string
	fallback  string
}

// NewTable builds a rule table from loaded rows. The fallback entry is
// mandatory; later duplicates of a condition set overwrite earlier ones.
func NewTable(rules []Rule) (*Table, error) {
	templates := make(map[string]string, len(rules))
	for _, r := range rules {
		templates[r.ConditionSet] = r.TemplateName
	}

	fallback, ok := templates[FallbackConditionSet]
	if !ok {
		return nil, shared.ErrMissingFallbackRule
	}

	return &Table{
		templates: templates,
		fallback:  fallback,
	}, nil
}

// Select evaluates the ordered rule list against the given attributes and
// returns the template bound to the first matching condition set. When no
// rule matches, or the matching condition set has no template row, the
// fallback template is returned. Select is pure and deterministic.
func (t *Table) Select(a Attributes) string {
	for _, c := range conditions {
		if !c.match(a) {
			continue
		}
		if name, ok := t.templates[c.set]; ok {
			return name
		}
		return t.fallback
	}
	return t.fallback
}

// Fallback returns the catch-all template name.
func (t *Table) Fallback() string {
	return t.fallback
}

// Len returns the number of loaded rule rows.
func (t *Table) Len() int {
	return len(t.templates)
}
