package extract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/pantolingo/pantolingo/internal/adapter/codec"
	"github.com/pantolingo/pantolingo/internal/core/domain"
	"github.com/pantolingo/pantolingo/internal/logger"
)

// ApplyResult summarises one application pass.
type ApplyResult struct {
	Applied int
	Pending []domain.PendingSegment
}

// Applicator writes translations back into the document positions the
// extractor recorded. Ready translations are restored (patterns, then
// inline HTML) and injected; pending ones mark the DOM for the client
// script and add to the pending list.
type Applicator struct {
	logger *logger.StyledLogger
}

func NewApplicator(log *logger.StyledLogger) *Applicator {
	return &Applicator{logger: log}
}

// Apply consumes translations[i] for segment i. The two slices must be the
// same length; anything else means the merge upstream is broken.
func (a *Applicator) Apply(ex *Extraction, translations []domain.Translation) (ApplyResult, error) {
	if len(translations) != len(ex.Segments) {
		return ApplyResult{}, fmt.Errorf("segment/translation count mismatch: %d != %d",
			len(ex.Segments), len(translations))
	}

	var res ApplyResult
	for i, seg := range ex.Segments {
		tr := translations[i]
		anchor := ex.Anchors[i]

		if tr.Ready() {
			a.applyOne(seg, anchor, tr.Text())
			res.Applied++
			continue
		}

		res.Pending = append(res.Pending, a.markPending(seg, anchor, tr.Hash()))
	}
	return res, nil
}

func (a *Applicator) applyOne(seg domain.Segment, anchor Anchor, translated string) {
	restored := codec.RestorePatterns(translated, seg.PatternReplacements, seg.IsUpperCase)

	switch seg.Kind {
	case domain.SegmentText:
		anchor.Node.Data = seg.LeadingWS + restored + seg.TrailingWS

	case domain.SegmentAttr:
		SetAttr(anchor.Node, anchor.Attr, restored)

	case domain.SegmentHTML:
		fragment := codec.PlaceholdersToHTML(restored, seg.TagReplacements)
		if err := SetInnerHTML(anchor.Node, seg.LeadingWS+fragment+seg.TrailingWS); err != nil {
			a.logger.Warn("failed to apply grouped translation", "tag", anchor.Node.Data, "error", err)
		}
	}
}

func (a *Applicator) markPending(seg domain.Segment, anchor Anchor, hash string) domain.PendingSegment {
	pending := domain.PendingSegment{
		Hash: hash,
		Kind: seg.Kind,
	}

	switch seg.Kind {
	case domain.SegmentHTML:
		AddClass(anchor.Node, SkeletonClass)
		SetAttr(anchor.Node, PendingAttr, hash)
		pending.Content = seg.RawHTML
		pending.ShowSkeleton = true

	case domain.SegmentText:
		textNode := anchor.Node
		comment := &html.Node{
			Type: html.CommentNode,
			Data: CommentPrefix + hash,
		}
		if textNode.Parent != nil {
			textNode.Parent.InsertBefore(comment, textNode)

			if isSoleContentChild(textNode) {
				AddClass(textNode.Parent, SkeletonClass)
				SetAttr(textNode.Parent, PendingAttr, hash)
				pending.ShowSkeleton = true
			}
		}
		pending.Content = strings.TrimSpace(textNode.Data)

	case domain.SegmentAttr:
		SetAttr(anchor.Node, PendingAttrPrefix+anchor.Attr, hash)
		val, _ := attrValue(anchor.Node, anchor.Attr)
		pending.Content = strings.TrimSpace(val)
		pending.Attr = anchor.Attr
	}

	return pending
}

// isSoleContentChild reports whether the text node is its parent's only
// content: counting the node itself plus any sibling elements and
// non-whitespace text siblings, the total is exactly one.
func isSoleContentChild(textNode *html.Node) bool {
	count := 0
	for c := textNode.Parent.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			count++
		case html.TextNode:
			if c == textNode || strings.TrimSpace(c.Data) != "" {
				count++
			}
		}
	}
	return count == 1
}
