package extract

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/pantolingo/pantolingo/internal/adapter/codec"
	"github.com/pantolingo/pantolingo/internal/core/domain"
	"github.com/pantolingo/pantolingo/internal/logger"
	"github.com/pantolingo/pantolingo/internal/util"
)

// Anchor ties a segment back to its document position.
type Anchor struct {
	Node *html.Node
	Attr string
}

// Extraction is the ordered segment list for one document plus the anchors
// the applicator writes back through. Index i refers to the same segment in
// both slices; that alignment is the whole coordinate system.
type Extraction struct {
	Doc      *html.Node
	Segments []domain.Segment
	Anchors  []Anchor
}

// Values returns the normalised values in segment order.
func (e *Extraction) Values() []string {
	values := make([]string, len(e.Segments))
	for i, seg := range e.Segments {
		values[i] = seg.Value
	}
	return values
}

// Extractor walks a document and emits translatable segments. Given the
// same document and skip rules, two runs produce identical output.
type Extractor struct {
	logger *logger.StyledLogger
}

func NewExtractor(log *logger.StyledLogger) *Extractor {
	return &Extractor{logger: log}
}

// Extract tokenises the document into segments in the canonical order.
func (x *Extractor) Extract(doc *html.Node, site *domain.SiteConfig) *Extraction {
	skip := NewSkipMatcher(site.SkipSelectors)
	collector := &segmentCollector{
		extraction: &Extraction{Doc: doc},
		skipWords:  site.SkipWords,
		logger:     x.logger,
	}
	Walk(doc, skip, collector)
	return collector.extraction
}

type segmentCollector struct {
	extraction *Extraction
	skipWords  []string
	logger     *logger.StyledLogger
}

func (c *segmentCollector) VisitTitle(textNode *html.Node) {
	c.addTextSegment(textNode)
}

func (c *segmentCollector) VisitMetaDescription(meta *html.Node) {
	c.VisitAttr(meta, "content")
}

func (c *segmentCollector) VisitText(textNode *html.Node) {
	c.addTextSegment(textNode)
}

func (c *segmentCollector) VisitGroup(el *html.Node) {
	raw, err := InnerHTML(el)
	if err != nil {
		c.logger.Warn("failed to serialise grouped block", "tag", el.Data, "error", err)
		return
	}

	htmlRes := codec.HTMLToPlaceholders(raw, false)
	leading, content, trailing := splitWhitespace(htmlRes.Text)
	patRes := codec.ApplyPatterns(content, c.skipWords)
	if !translatable(patRes.Normalised) {
		return
	}

	c.append(domain.Segment{
		Kind:                domain.SegmentHTML,
		Value:               patRes.Normalised,
		Hash:                util.Hash(patRes.Normalised),
		LeadingWS:           leading,
		TrailingWS:          trailing,
		RawHTML:             raw,
		TagReplacements:     htmlRes.Replacements,
		PatternReplacements: patRes.Replacements,
		IsUpperCase:         patRes.IsUpperCase,
	}, Anchor{Node: el})
}

func (c *segmentCollector) VisitAttr(el *html.Node, name string) {
	val, _ := attrValue(el, name)
	patRes := codec.ApplyPatterns(strings.TrimSpace(val), c.skipWords)
	if !translatable(patRes.Normalised) {
		return
	}

	c.append(domain.Segment{
		Kind:                domain.SegmentAttr,
		Value:               patRes.Normalised,
		Hash:                util.Hash(patRes.Normalised),
		AttrName:            name,
		PatternReplacements: patRes.Replacements,
		IsUpperCase:         patRes.IsUpperCase,
	}, Anchor{Node: el, Attr: name})
}

func (c *segmentCollector) addTextSegment(textNode *html.Node) {
	leading, content, trailing := splitWhitespace(textNode.Data)
	patRes := codec.ApplyPatterns(content, c.skipWords)
	if !translatable(patRes.Normalised) {
		return
	}

	c.append(domain.Segment{
		Kind:                domain.SegmentText,
		Value:               patRes.Normalised,
		Hash:                util.Hash(patRes.Normalised),
		LeadingWS:           leading,
		TrailingWS:          trailing,
		PatternReplacements: patRes.Replacements,
		IsUpperCase:         patRes.IsUpperCase,
	}, Anchor{Node: textNode})
}

func (c *segmentCollector) append(seg domain.Segment, anchor Anchor) {
	c.extraction.Segments = append(c.extraction.Segments, seg)
	c.extraction.Anchors = append(c.extraction.Anchors, anchor)
}

// translatable reports whether a normalised value still carries any letters
// once placeholders are accounted for. A value that is all tokens and
// punctuation has nothing for the model to do.
func translatable(normalised string) bool {
	stripped := codec.TokenPattern.ReplaceAllString(normalised, "")
	for _, r := range stripped {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
