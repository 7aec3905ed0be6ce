package extract

import (
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// skipTags is the fixed set of elements whose contents are never translated,
// regardless of site configuration.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "textarea": true,
	"code": true, "pre": true, "iframe": true, "object": true,
	"svg": true, "canvas": true, "template": true, "kbd": true, "samp": true,
}

// SkipMatcher decides whether a node sits outside the translatable region:
// its tag (or an ancestor's) is in the fixed skip set, or it (or an
// ancestor) matches a site-configured CSS selector.
type SkipMatcher struct {
	selectors []cascadia.Selector
}

// NewSkipMatcher compiles the site's skip selectors. Invalid patterns are
// dropped silently; a user-supplied selector must never take the page down.
func NewSkipMatcher(selectors []string) *SkipMatcher {
	m := &SkipMatcher{}
	for _, expr := range selectors {
		sel, err := cascadia.Compile(expr)
		if err != nil {
			continue
		}
		m.selectors = append(m.selectors, sel)
	}
	return m
}

// MatchesNode checks the node itself, ignoring ancestry.
func (m *SkipMatcher) MatchesNode(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if skipTags[n.Data] {
		return true
	}
	for _, sel := range m.selectors {
		if sel.Match(n) {
			return true
		}
	}
	return false
}

// Skipped checks the node and every ancestor up to the document root.
func (m *SkipMatcher) Skipped(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if m.MatchesNode(cur) {
			return true
		}
	}
	return false
}
