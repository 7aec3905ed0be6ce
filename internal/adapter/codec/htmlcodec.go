package codec

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pantolingo/pantolingo/internal/core/domain"
)

var (
	tagPattern           = regexp.MustCompile(`<(/?)([a-zA-Z][a-zA-Z0-9-]*)((?:[^"'>]|"[^"]*"|'[^']*')*?)>`)
	whitespaceRuns       = regexp.MustCompile(`[ \t\r\n\f]+`)
	numericEntityPattern = regexp.MustCompile(`&#(?:[0-9]+|[xX][0-9a-fA-F]+);`)
)

// tagFamilies maps inline tag names to their placeholder family. Anything
// unlisted falls back to the generic family.
var tagFamilies = map[string]string{
	"b":      FamilyBold,
	"strong": FamilyBold,
	"em":     FamilyEmphasis,
	"i":      FamilyEmphasis,
	"u":      FamilyEmphasis,
	"mark":   FamilyEmphasis,
	"s":      FamilyEmphasis,
	"small":  FamilyEmphasis,
	"a":      FamilyAnchor,
	"span":   FamilySpan,
}

// voidTags never take a closing tag and always map to the HV family.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// HTMLResult is the output of HTMLToPlaceholders: the tag-free text and the
// table needed to reverse the substitution.
type HTMLResult struct {
	Text         string
	Replacements []domain.HTMLTagReplacement
}

type openTag struct {
	family   string
	index    int
	repIndex int
	outPos   int
	tagName  string
}

// HTMLToPlaceholders converts an element's innerHTML into a placeholder
// string plus a replacement table. Counters are per-family, per-segment and
// 1-based; indices stay gap-free even when an empty pair is promoted to a
// void placeholder. Whitespace is collapsed unless preserveWhitespace is
// set (the <pre> case).
func HTMLToPlaceholders(innerHTML string, preserveWhitespace bool) HTMLResult {
	src := innerHTML
	if !preserveWhitespace {
		src = NormaliseWhitespace(src)
	}
	src = decodeNumericEntities(src)

	var (
		out      strings.Builder
		reps     []domain.HTMLTagReplacement
		stack    []openTag
		counters = map[string]int{}
	)

	matches := tagPattern.FindAllStringSubmatchIndex(src, -1)
	prev := 0
	for _, m := range matches {
		out.WriteString(src[prev:m[0]])
		prev = m[1]

		raw := src[m[0]:m[1]]
		closing := m[2] != m[3]
		tagName := strings.ToLower(src[m[4]:m[5]])
		selfClosing := strings.HasSuffix(strings.TrimSuffix(raw, ">"), "/")

		switch {
		case closing:
			if len(stack) == 0 || stack[len(stack)-1].tagName != tagName {
				// Mismatched closer: discard it.
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if out.Len() == top.outPos {
				// Open directly followed by its close: promote to a void
				// placeholder and hand the index back to the family.
				counters[top.family]--
				counters[FamilyVoid]++
				void := Token(FamilyVoid, counters[FamilyVoid])

				text := out.String()[:top.outPos-len(Token(top.family, top.index))]
				out.Reset()
				out.WriteString(text)
				out.WriteString(void)

				reps[top.repIndex] = domain.HTMLTagReplacement{
					OpenPlaceholder: void,
					OriginalOpenTag: reps[top.repIndex].OriginalOpenTag + raw,
					TagName:         tagName,
				}
				continue
			}

			closeToken := CloseToken(top.family, top.index)
			reps[top.repIndex].ClosePlaceholder = closeToken
			reps[top.repIndex].OriginalCloseTag = raw
			out.WriteString(closeToken)

		case voidTags[tagName] || selfClosing:
			counters[FamilyVoid]++
			token := Token(FamilyVoid, counters[FamilyVoid])
			reps = append(reps, domain.HTMLTagReplacement{
				OpenPlaceholder: token,
				OriginalOpenTag: raw,
				TagName:         tagName,
			})
			out.WriteString(token)

		default:
			family := tagFamilies[tagName]
			if family == "" {
				family = FamilyGeneric
			}
			counters[family]++
			token := Token(family, counters[family])
			reps = append(reps, domain.HTMLTagReplacement{
				OpenPlaceholder: token,
				OriginalOpenTag: raw,
				TagName:         tagName,
			})
			stack = append(stack, openTag{
				family:   family,
				index:    counters[family],
				repIndex: len(reps) - 1,
				outPos:   out.Len() + len(token),
				tagName:  tagName,
			})
			out.WriteString(token)
		}
	}
	out.WriteString(src[prev:])

	return HTMLResult{Text: out.String(), Replacements: reps}
}

// PlaceholdersToHTML substitutes placeholder tokens in a translated string
// back to the original tag literals. Tokens are unique within a segment, so
// each replaces at most once.
func PlaceholdersToHTML(text string, replacements []domain.HTMLTagReplacement) string {
	out := text
	for _, rep := range replacements {
		out = strings.Replace(out, rep.OpenPlaceholder, rep.OriginalOpenTag, 1)
		if !rep.IsVoid() {
			out = strings.Replace(out, rep.ClosePlaceholder, rep.OriginalCloseTag, 1)
		}
	}
	return out
}

// NormaliseWhitespace turns newlines and tabs into spaces and collapses
// runs to a single space. Leading and trailing whitespace is kept (as one
// space) so surrounding text does not fuse with siblings.
func NormaliseWhitespace(s string) string {
	return whitespaceRuns.ReplaceAllString(s, " ")
}

// decodeNumericEntities resolves &#NNNN; and &#xHHHH; to real characters so
// the pattern codec never mistakes entity digits for content.
func decodeNumericEntities(s string) string {
	return numericEntityPattern.ReplaceAllStringFunc(s, func(ent string) string {
		body := ent[2 : len(ent)-1]
		base := 10
		if body[0] == 'x' || body[0] == 'X' {
			base = 16
			body = body[1:]
		}
		n, err := strconv.ParseInt(body, base, 32)
		if err != nil || n <= 0 {
			return ent
		}
		return string(rune(n))
	})
}
