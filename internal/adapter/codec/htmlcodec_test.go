package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLToPlaceholdersSimplePair(t *testing.T) {
	res := HTMLToPlaceholders(`Hello <strong>world</strong>`, false)

	assert.Equal(t, "Hello [HB1]world[/HB1]", res.Text)
	require.Len(t, res.Replacements, 1)
	rep := res.Replacements[0]
	assert.Equal(t, "[HB1]", rep.OpenPlaceholder)
	assert.Equal(t, "[/HB1]", rep.ClosePlaceholder)
	assert.Equal(t, "<strong>", rep.OriginalOpenTag)
	assert.Equal(t, "</strong>", rep.OriginalCloseTag)
	assert.Equal(t, "strong", rep.TagName)

	restored := PlaceholdersToHTML("Hola [HB1]mundo[/HB1]", res.Replacements)
	assert.Equal(t, "Hola <strong>mundo</strong>", restored)
}

func TestHTMLToPlaceholdersFamilies(t *testing.T) {
	res := HTMLToPlaceholders(`<b>a</b> <em>b</em> <a href="/x">c</a> <span>d</span> <q>e</q>`, false)

	assert.Equal(t, "[HB1]a[/HB1] [HE1]b[/HE1] [HA1]c[/HA1] [HS1]d[/HS1] [HG1]e[/HG1]", res.Text)
}

func TestHTMLToPlaceholdersPerFamilyCounters(t *testing.T) {
	res := HTMLToPlaceholders(`<b>x</b><i>y</i><b>z</b>`, false)

	assert.Equal(t, "[HB1]x[/HB1][HE1]y[/HE1][HB2]z[/HB2]", res.Text)
}

func TestHTMLToPlaceholdersVoidElement(t *testing.T) {
	res := HTMLToPlaceholders(`line one<br>line two`, false)

	assert.Equal(t, "line one[HV1]line two", res.Text)
	require.Len(t, res.Replacements, 1)
	assert.True(t, res.Replacements[0].IsVoid())
	assert.Equal(t, "<br>", res.Replacements[0].OriginalOpenTag)
}

func TestHTMLToPlaceholdersEmptyPairPromotedToVoid(t *testing.T) {
	// The empty <b></b> takes a void index; the following <b> still gets
	// the first bold index so numbering stays gap-free.
	res := HTMLToPlaceholders(`<b></b><b>bold</b>`, false)

	assert.Equal(t, "[HV1][HB1]bold[/HB1]", res.Text)
	require.Len(t, res.Replacements, 2)
	assert.True(t, res.Replacements[0].IsVoid())
	assert.Equal(t, "<b></b>", res.Replacements[0].OriginalOpenTag)

	restored := PlaceholdersToHTML(res.Text, res.Replacements)
	assert.Equal(t, "<b></b><b>bold</b>", restored)
}

func TestHTMLToPlaceholdersMismatchedCloserDiscarded(t *testing.T) {
	res := HTMLToPlaceholders(`plain </em> text`, false)

	assert.Equal(t, "plain  text", res.Text)
	assert.Empty(t, res.Replacements)
}

func TestHTMLToPlaceholdersNestedTags(t *testing.T) {
	res := HTMLToPlaceholders(`<a href="/p"><b>go</b> now</a>`, false)

	assert.Equal(t, "[HA1][HB1]go[/HB1] now[/HA1]", res.Text)

	restored := PlaceholdersToHTML(res.Text, res.Replacements)
	assert.Equal(t, `<a href="/p"><b>go</b> now</a>`, restored)
}

func TestHTMLToPlaceholdersWhitespaceCollapse(t *testing.T) {
	res := HTMLToPlaceholders("Hello\n\t  <b>world</b>", false)

	assert.Equal(t, "Hello [HB1]world[/HB1]", res.Text)
}

func TestHTMLToPlaceholdersPreservesWhitespaceForPre(t *testing.T) {
	res := HTMLToPlaceholders("line one\n  line two", true)

	assert.Equal(t, "line one\n  line two", res.Text)
}

func TestHTMLToPlaceholdersDecodesNumericEntities(t *testing.T) {
	res := HTMLToPlaceholders("caf&#233; &#x263A;", false)

	assert.Equal(t, "café ☺", res.Text)
}

func TestHTMLRoundTrip(t *testing.T) {
	inputs := []string{
		`Hello <strong>world</strong>`,
		`<a href="https://example.com" title="x">link</a> and <em>emphasis</em>`,
		`before<br>after`,
		`<span class="a"><b>deep</b></span>`,
		`no tags at all`,
	}

	for _, in := range inputs {
		res := HTMLToPlaceholders(in, false)
		out := PlaceholdersToHTML(res.Text, res.Replacements)
		assert.Equal(t, NormaliseWhitespace(in), out, "round trip for %q", in)
	}
}

func TestPlaceholderTokenGrammar(t *testing.T) {
	for _, token := range []string{"[N1]", "[P12]", "[S1]", "[HB1]", "[/HB1]", "[HV3]", "[HG9999]"} {
		assert.True(t, TokenPattern.MatchString(token), token)
	}
	for _, not := range []string{"[n1]", "[HB]", "[1HB]", "HB1"} {
		assert.False(t, TokenPattern.MatchString(not), not)
	}
}
