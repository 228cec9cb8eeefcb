package tariff

import (
	"fmt"
	"strings"
)

// Formula identifies one of the five service tiers a route can be priced at.
type Formula string

const (
	FormulaNormal    Formula = "NORMAL"
	FormulaExpress   Formula = "EXPRESS"
	FormulaUrgence   Formula = "URGENCE"
	FormulaVLNormal  Formula = "VL_NORMAL"
	FormulaVLExpress Formula = "VL_EXPRESS"
)

// Formulas returns every tier in display order. Pricing results always carry
// one entry per element of this slice.
func Formulas() []Formula {
	return []Formula{FormulaNormal, FormulaExpress, FormulaUrgence, FormulaVLNormal, FormulaVLExpress}
}

// ParseFormula converts user input into a Formula.
func ParseFormula(value string) (Formula, error) {
	f := Formula(strings.ToUpper(strings.TrimSpace(value)))
	if !f.Valid() {
		return "", fmt.Errorf("unknown formula %q", value)
	}
	return f, nil
}

// Valid reports whether f is one of the known tiers.
func (f Formula) Valid() bool {
	switch f {
	case FormulaNormal, FormulaExpress, FormulaUrgence, FormulaVLNormal, FormulaVLExpress:
		return true
	}
	return false
}

// Label returns the customer-facing name of the tier.
func (f Formula) Label() string {
	switch f {
	case FormulaNormal:
		return "Standard"
	case FormulaExpress:
		return "Express"
	case FormulaUrgence:
		return "Flash Express"
	case FormulaVLNormal:
		return "VL Standard"
	case FormulaVLExpress:
		return "VL Express"
	}
	return string(f)
}

// AvailableForImmediate reports whether the tier can be booked for an
// immediate pickup. Standard deliveries require a scheduled pickup window;
// every other tier dispatches right away.
func (f Formula) AvailableForImmediate() bool {
	return f != FormulaNormal && f != FormulaVLNormal
}
