package extract

// DOM contract for deferred mode. The client script and the poll endpoint
// both depend on these exact names. Attribute segments get their own marker
// per attribute name (data-pantolingo-attr-alt, data-pantolingo-attr-title,
// ...) so several pending segments can share one element without the
// markers overwriting each other.
const (
	PendingAttr       = "data-pantolingo-pending"
	PendingAttrPrefix = "data-pantolingo-attr-"
	SkeletonClass     = "pantolingo-skeleton"
	CommentPrefix     = "pantolingo:"
)
