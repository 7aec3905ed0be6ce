package domain

// SegmentKind identifies what part of a document a segment was lifted from.
type SegmentKind string

const (
	SegmentText SegmentKind = "text"
	SegmentAttr SegmentKind = "attr"
	SegmentPath SegmentKind = "path"
	SegmentHTML SegmentKind = "html"
)

// HTMLTagReplacement records one inline tag that was swapped for a
// placeholder pair. Void elements carry no close fields.
type HTMLTagReplacement struct {
	OpenPlaceholder  string
	ClosePlaceholder string
	OriginalOpenTag  string
	OriginalCloseTag string
	TagName          string
}

// IsVoid reports whether the replacement stands for a standalone tag.
func (r HTMLTagReplacement) IsVoid() bool {
	return r.ClosePlaceholder == ""
}

// PatternKind is the family of a pattern replacement.
type PatternKind string

const (
	PatternNumeric PatternKind = "numeric"
	PatternPII     PatternKind = "pii"
	PatternSkip    PatternKind = "skip"
)

// PatternReplacement holds the original values removed from a segment for
// one pattern family, in source order. Index i corresponds to the
// placeholder with index i+1.
type PatternReplacement struct {
	Kind   PatternKind
	Values []string
}

// Segment is a single translatable unit extracted from a document. Value is
// the normalised string sent for translation: inline tags replaced first,
// then pattern values.
type Segment struct {
	Kind     SegmentKind
	Value    string
	Hash     string
	AttrName string

	// Whitespace lifted off the source text so application can restore it.
	LeadingWS  string
	TrailingWS string

	// html segments only: the pristine innerHTML and the tag table needed
	// to reverse the placeholder substitution.
	RawHTML         string
	TagReplacements []HTMLTagReplacement

	PatternReplacements []PatternReplacement
	IsUpperCase         bool
}

// PendingSegment is what a deferred response tells the client to poll for.
type PendingSegment struct {
	Hash         string      `json:"hash"`
	Kind         SegmentKind `json:"kind"`
	Content      string      `json:"content"`
	Attr         string      `json:"attr,omitempty"`
	ShowSkeleton bool        `json:"showSkeleton"`
}
