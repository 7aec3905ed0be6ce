package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// inlineTags is the closed set of tags a grouped block may contain.
var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true,
	"br": true, "cite": true, "em": true, "i": true, "mark": true,
	"q": true, "s": true, "small": true, "span": true, "strong": true,
	"sub": true, "sup": true, "time": true, "u": true, "wbr": true,
}

// groupableParents is the closed set of text-container elements eligible
// for inline grouping. Generic containers such as div keep descending so
// their text and inline children stay independent segments.
var groupableParents = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "li": true, "td": true, "th": true, "caption": true,
	"figcaption": true, "blockquote": true, "dt": true, "dd": true,
	"label": true, "legend": true, "summary": true, "button": true,
}

// translatableAttrs is the closed set of attributes scanned in step four,
// in the fixed order they are emitted per element.
var translatableAttrs = []string{"title", "alt", "placeholder", "aria-label"}

// Visitor receives document positions in the canonical walk order. The
// extractor and the applicator both implement it, which is what keeps their
// coordinate systems identical.
type Visitor interface {
	VisitTitle(textNode *html.Node)
	VisitMetaDescription(meta *html.Node)
	VisitText(textNode *html.Node)
	VisitGroup(el *html.Node)
	VisitAttr(el *html.Node, name string)
}

// Walk traverses doc in the canonical order: <title> text, the description
// meta, a depth-first pre-order walk of the body with inline grouping, then
// a document-order attribute scan. Two walks over the same document and
// skip rules visit byte-identical positions.
func Walk(doc *html.Node, skip *SkipMatcher, v Visitor) {
	head := findElement(doc, "head")
	body := findElement(doc, "body")

	if head != nil {
		if title := findChildElement(head, "title"); title != nil && !skip.Skipped(title) {
			if tn := firstTextChild(title); tn != nil && strings.TrimSpace(tn.Data) != "" {
				v.VisitTitle(tn)
			}
		}
		if meta := findMetaDescription(head); meta != nil && !skip.Skipped(meta) {
			if content, ok := attrValue(meta, "content"); ok && strings.TrimSpace(content) != "" {
				v.VisitMetaDescription(meta)
			}
		}
	}

	if body != nil && !skip.Skipped(body) {
		walkBody(body, skip, v)
	}

	walkAttrs(doc, skip, v)
}

func walkBody(n *html.Node, skip *SkipMatcher, v Visitor) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				v.VisitText(c)
			}
		case html.ElementNode:
			if skip.MatchesNode(c) {
				continue
			}
			if Groupable(c, skip) {
				v.VisitGroup(c)
				continue
			}
			walkBody(c, skip, v)
		}
	}
}

// Groupable reports whether an element should be emitted as a single html
// segment: a text-container tag whose subtree holds only inline tags and
// text, with at least one inline element and some translatable text, and no
// skip match anywhere inside.
func Groupable(el *html.Node, skip *SkipMatcher) bool {
	if el.Type != html.ElementNode || !groupableParents[el.Data] {
		return false
	}

	hasInline := false
	hasText := false
	ok := true
	var inspect func(n *html.Node)
	inspect = func(n *html.Node) {
		for c := n.FirstChild; c != nil && ok; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if strings.TrimSpace(c.Data) != "" {
					hasText = true
				}
			case html.ElementNode:
				if !inlineTags[c.Data] || skip.MatchesNode(c) {
					ok = false
					return
				}
				hasInline = true
				inspect(c)
			case html.CommentNode:
				// Comments disqualify grouping: the serialised innerHTML
				// would leak them into the translated value.
				ok = false
			}
		}
	}
	inspect(el)

	return ok && hasInline && hasText
}

func walkAttrs(n *html.Node, skip *SkipMatcher, v Visitor) {
	if n.Type == html.ElementNode && !skip.Skipped(n) {
		for _, name := range translatableAttrs {
			if val, ok := attrValue(n, name); ok && strings.TrimSpace(val) != "" {
				v.VisitAttr(n, name)
			}
		}
	}
	// A grouped block is applied by replacing the parent's innerHTML, which
	// detaches every descendant node. Attributes below a groupable element
	// stay inside its hidden tag markup and pass through verbatim; anchoring
	// segments to those nodes would write into a detached subtree.
	if n.Type == html.ElementNode && Groupable(n, skip) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && skip.MatchesNode(c) {
			continue
		}
		walkAttrs(c, skip, v)
	}
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findChildElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}

func findMetaDescription(head *html.Node) *html.Node {
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "meta" {
			continue
		}
		if name, ok := attrValue(c, "name"); ok && strings.EqualFold(name, "description") {
			return c
		}
	}
	return nil
}

func firstTextChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			return c
		}
	}
	return nil
}

func attrValue(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
