package codec

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pantolingo/pantolingo/internal/core/domain"
)

var (
	// Conservative email form. Runs before the numeric pass so an address
	// like user42@x.com is lifted whole instead of losing its digits.
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// Digit runs with optional separators; always starts and ends on a digit.
	numericPattern = regexp.MustCompile(`[0-9]+(?:[.,:/-][0-9]+)*`)
)

// PatternResult is the output of ApplyPatterns. Replacements are recorded
// in insertion order so restoration can run them in reverse.
type PatternResult struct {
	Normalised   string
	Replacements []domain.PatternReplacement
	IsUpperCase  bool
}

// ApplyPatterns substitutes skip words, emails and numbers with placeholder
// tokens, producing the cache-stable normalised form. The input may already
// carry inline-HTML placeholders; those are never touched.
func ApplyPatterns(s string, skipWords []string) PatternResult {
	res := PatternResult{Normalised: s}

	if len(skipWords) > 0 {
		var values []string
		res.Normalised = mapOutsideTokens(res.Normalised, func(chunk string) string {
			return replaceSkipWords(chunk, skipWords, &values)
		})
		if len(values) > 0 {
			res.Replacements = append(res.Replacements, domain.PatternReplacement{
				Kind:   domain.PatternSkip,
				Values: values,
			})
		}
	}

	for _, fam := range []struct {
		re   *regexp.Regexp
		kind domain.PatternKind
		name string
	}{
		{emailPattern, domain.PatternPII, FamilyPII},
		{numericPattern, domain.PatternNumeric, FamilyNumeric},
	} {
		var values []string
		res.Normalised = mapOutsideTokens(res.Normalised, func(chunk string) string {
			return fam.re.ReplaceAllStringFunc(chunk, func(match string) string {
				values = append(values, match)
				return Token(fam.name, len(values))
			})
		})
		if len(values) > 0 {
			res.Replacements = append(res.Replacements, domain.PatternReplacement{
				Kind:   fam.kind,
				Values: values,
			})
		}
	}

	if isUpperCase(res.Normalised) {
		res.IsUpperCase = true
		res.Normalised = mapOutsideTokens(res.Normalised, strings.ToLower)
	}

	return res
}

// RestorePatterns reverses ApplyPatterns on a translated string using the
// recorded replacement table. Families are restored in reverse insertion
// order; the uppercase flag re-applies last.
func RestorePatterns(s string, replacements []domain.PatternReplacement, isUpper bool) string {
	out := s
	for i := len(replacements) - 1; i >= 0; i-- {
		rep := replacements[i]
		family := familyForKind(rep.Kind)
		for j, value := range rep.Values {
			out = strings.Replace(out, Token(family, j+1), value, 1)
		}
	}
	if isUpper {
		out = mapOutsideTokens(out, strings.ToUpper)
	}
	return out
}

func familyForKind(kind domain.PatternKind) string {
	switch kind {
	case domain.PatternPII:
		return FamilyPII
	case domain.PatternSkip:
		return FamilySkipWord
	default:
		return FamilyNumeric
	}
}

// replaceSkipWords lifts site-configured words out of a chunk in a single
// pass, matching case-insensitively on word boundaries so indices stay in
// source order.
func replaceSkipWords(chunk string, skipWords []string, values *[]string) string {
	alternates := make([]string, 0, len(skipWords))
	for _, word := range skipWords {
		if word != "" {
			alternates = append(alternates, regexp.QuoteMeta(word))
		}
	}
	if len(alternates) == 0 {
		return chunk
	}
	re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(alternates, "|") + `)\b`)
	if err != nil {
		return chunk
	}
	return re.ReplaceAllStringFunc(chunk, func(match string) string {
		*values = append(*values, match)
		return Token(FamilySkipWord, len(*values))
	})
}

// isUpperCase reports whether the alphabetic portion of s, placeholder
// tokens excluded, is non-empty and entirely uppercase.
func isUpperCase(s string) bool {
	hasLetter := false
	upper := true
	mapOutsideTokens(s, func(chunk string) string {
		for _, r := range chunk {
			if unicode.IsLetter(r) {
				hasLetter = true
				if !unicode.IsUpper(r) {
					upper = false
				}
			}
		}
		return chunk
	})
	return hasLetter && upper
}
