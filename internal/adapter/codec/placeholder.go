package codec

import (
	"fmt"
	"regexp"
)

// Placeholder token grammar: "[" "/"? KIND INDEX "]" with KIND one of
// N P S HB HE HA HS HV HG and a 1-based index. Paired kinds are the
// HB/HE/HA/HS/HG families; N, P, S and HV stand alone.
const (
	FamilyNumeric  = "N"
	FamilyPII      = "P"
	FamilySkipWord = "S"

	FamilyBold     = "HB"
	FamilyEmphasis = "HE"
	FamilyAnchor   = "HA"
	FamilySpan     = "HS"
	FamilyVoid     = "HV"
	FamilyGeneric  = "HG"
)

// TokenPattern matches any placeholder token, opening or closing.
var TokenPattern = regexp.MustCompile(`\[/?[A-Z]+[0-9]+\]`)

// Token renders an opening placeholder for a family and 1-based index.
func Token(family string, index int) string {
	return fmt.Sprintf("[%s%d]", family, index)
}

// CloseToken renders the matching closing placeholder.
func CloseToken(family string, index int) string {
	return fmt.Sprintf("[/%s%d]", family, index)
}

// mapOutsideTokens applies fn to every run of text between placeholder
// tokens, leaving the tokens themselves untouched. Substitution passes must
// never look inside a token: the digits in [HB1] are not a number.
func mapOutsideTokens(s string, fn func(chunk string) string) string {
	locs := TokenPattern.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return fn(s)
	}

	var out []byte
	prev := 0
	for _, loc := range locs {
		out = append(out, fn(s[prev:loc[0]])...)
		out = append(out, s[loc[0]:loc[1]]...)
		prev = loc[1]
	}
	out = append(out, fn(s[prev:])...)
	return string(out)
}
