package model

// ResourceKind names a votable, ownable resource.
type ResourceKind string

const (
	KindArticle ResourceKind = "article"
	KindComment ResourceKind = "comment"
)
