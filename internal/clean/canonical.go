package clean

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// provinceVariants maps known spelling, punctuation and abbreviation variants
// (already trimmed, uppercased and space-collapsed) to the canonical
// statistical-agency spelling. Values must never appear as keys.
var provinceVariants = map[string]string{
	"D.I. YOGYAKARTA":            "DI YOGYAKARTA",
	"D.I YOGYAKARTA":             "DI YOGYAKARTA",
	"DI. YOGYAKARTA":             "DI YOGYAKARTA",
	"D I YOGYAKARTA":             "DI YOGYAKARTA",
	"YOGYAKARTA":                 "DI YOGYAKARTA",
	"DAERAH ISTIMEWA YOGYAKARTA": "DI YOGYAKARTA",

	"D.K.I. JAKARTA":                "DKI JAKARTA",
	"D.K.I JAKARTA":                 "DKI JAKARTA",
	"DKI. JAKARTA":                  "DKI JAKARTA",
	"D K I JAKARTA":                 "DKI JAKARTA",
	"JAKARTA":                       "DKI JAKARTA",
	"DAERAH KHUSUS IBUKOTA JAKARTA": "DKI JAKARTA",

	"KEP BANGKA BELITUNG":       "KEP. BANGKA BELITUNG",
	"KEPULAUAN BANGKA BELITUNG": "KEP. BANGKA BELITUNG",
	"BANGKA BELITUNG":           "KEP. BANGKA BELITUNG",

	"KEP RIAU":       "KEP. RIAU",
	"KEPULAUAN RIAU": "KEP. RIAU",
}

// Canonicalize returns the canonical spelling of a province name: NFKC
// folded, trimmed, uppercased, internal whitespace runs collapsed to one
// space, then the closed variant table applied. Canonicalize is idempotent.
func Canonicalize(name string) string {
	name = norm.NFKC.String(name)
	name = strings.Join(strings.Fields(strings.ToUpper(name)), " ")
	if canonical, ok := provinceVariants[name]; ok {
		return canonical
	}
	return name
}

// IsVariant reports whether the collapsed, uppercased name is rewritten by the
// variant table.
func IsVariant(name string) bool {
	_, ok := provinceVariants[strings.Join(strings.Fields(strings.ToUpper(norm.NFKC.String(name))), " ")]
	return ok
}

// Variants returns a copy of the variant table.
func Variants() map[string]string {
	out := make(map[string]string, len(provinceVariants))
	for k, v := range provinceVariants {
		out[k] = v
	}
	return out
}
