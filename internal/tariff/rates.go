package tariff

import "strings"

// MilliBons is the fixed-point scale used for bon amounts. One bon equals
// 1000 milli-bons; keeping amounts integral makes repeated calculations
// bit-identical.
const MilliBons int64 = 1000

// Rates holds the pickup charge of a city for every tier, in milli-bons.
type Rates struct {
	Normal    int64 `json:"normal"`
	Express   int64 `json:"express"`
	Urgence   int64 `json:"urgence"`
	VLNormal  int64 `json:"vlNormal"`
	VLExpress int64 `json:"vlExpress"`
}

// For returns the charge for the given tier.
func (r Rates) For(f Formula) int64 {
	switch f {
	case FormulaNormal:
		return r.Normal
	case FormulaExpress:
		return r.Express
	case FormulaUrgence:
		return r.Urgence
	case FormulaVLNormal:
		return r.VLNormal
	case FormulaVLExpress:
		return r.VLExpress
	}
	return 0
}

// Ordered reports whether the moto tiers respect the price ladder
// URGENCE >= EXPRESS >= NORMAL (and the VL ladder likewise). Grids violating
// it are rejected on write so faster service never undercuts slower service.
func (r Rates) Ordered() bool {
	return r.Urgence >= r.Express && r.Express >= r.Normal &&
		r.VLExpress >= r.VLNormal && r.Normal >= 0
}

// CityRate is one row of the pricing grid: a served city, its zip code,
// coordinates used for distance fallbacks, and its per-tier pickup charges.
type CityRate struct {
	City  string  `json:"city"`
	Zip   string  `json:"zip"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Rates Rates   `json:"rates"`
}

// accentFold maps the accented runes appearing in Île-de-France city names
// onto their ASCII base letter.
var accentFold = map[rune]rune{
	'À': 'A', 'Â': 'A', 'Ä': 'A', 'Á': 'A',
	'Ç': 'C',
	'É': 'E', 'È': 'E', 'Ê': 'E', 'Ë': 'E',
	'Î': 'I', 'Ï': 'I', 'Í': 'I',
	'Ô': 'O', 'Ö': 'O', 'Ó': 'O',
	'Ù': 'U', 'Û': 'U', 'Ü': 'U', 'Ú': 'U',
	'Ÿ': 'Y',
}

// NormalizeCity canonicalises a city name for grid lookups: uppercase,
// accents folded, apostrophes and whitespace collapsed to single hyphens.
// "L'Haÿ-les-Roses" and "l hay les roses" normalise identically.
func NormalizeCity(city string) string {
	upper := strings.ToUpper(strings.TrimSpace(city))
	var b strings.Builder
	b.Grow(len(upper))
	prevHyphen := false
	for _, r := range upper {
		if folded, ok := accentFold[r]; ok {
			r = folded
		}
		switch {
		case r == '\'', r == '’', r == '-', r == ' ', r == '\t':
			if !prevHyphen && b.Len() > 0 {
				b.WriteRune('-')
				prevHyphen = true
			}
		default:
			b.WriteRune(r)
			prevHyphen = false
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// IsParis reports whether the (normalised or raw) city name designates Paris
// or one of its arrondissements. Routes touching Paris never pay the
// kilometre supplement.
func IsParis(city string) bool {
	n := NormalizeCity(city)
	return n == "PARIS" || strings.HasPrefix(n, "PARIS-")
}
