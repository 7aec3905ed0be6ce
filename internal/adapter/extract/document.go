package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/pantolingo/pantolingo/internal/core/domain"
)

// ParseDocument parses an HTML payload into a DOM tree. A document with no
// element content at all reports domain.ErrEmptyDocument so the caller can
// fall back to forwarding the body unchanged.
func ParseDocument(body []byte) (*html.Node, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if findElement(doc, "html") == nil {
		return nil, domain.ErrEmptyDocument
	}
	return doc, nil
}

// Render serialises the document back to bytes.
func Render(doc *html.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// InnerHTML serialises an element's children verbatim.
func InnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// SetInnerHTML replaces an element's children with a parsed fragment.
func SetInnerHTML(n *html.Node, fragment string) error {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     n.Data,
		DataAtom: n.DataAtom,
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return err
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	for _, child := range nodes {
		n.AppendChild(child)
	}
	return nil
}

// SetAttr sets or replaces an attribute on an element.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// AddClass appends a class token if it is not already present.
func AddClass(n *html.Node, class string) {
	existing, _ := attrValue(n, "class")
	for _, c := range strings.Fields(existing) {
		if c == class {
			return
		}
	}
	if existing == "" {
		SetAttr(n, "class", class)
		return
	}
	SetAttr(n, "class", existing+" "+class)
}

// splitWhitespace separates a text node's data into leading whitespace,
// trimmed content and trailing whitespace.
func splitWhitespace(s string) (leading, content, trailing string) {
	trimmedLeft := strings.TrimLeft(s, " \t\r\n\f")
	leading = s[:len(s)-len(trimmedLeft)]
	content = strings.TrimRight(trimmedLeft, " \t\r\n\f")
	trailing = trimmedLeft[len(content):]
	return leading, content, trailing
}
