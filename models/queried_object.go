package models

type QueriedObjectKind int

const (
	QueriedNone QueriedObjectKind = iota
	QueriedPost
	QueriedPostType
	QueriedTerm
	QueriedAuthor
)

// QueriedObject is a tagged union: exactly the variant selected by Kind is
// populated, the rest stay nil. The classification flags decide which
// variant a query constructs.
type QueriedObject struct {
	Kind     QueriedObjectKind `json:"kind"`
	Post     *Post             `json:"post,omitempty"`
	PostType *PostType         `json:"post_type,omitempty"`
	Term     *Term             `json:"term,omitempty"`
	Author   *Author           `json:"author,omitempty"`
}

// ID returns the numeric identity of whichever variant is set, 0 for none.
func (q *QueriedObject) ObjectID() int64 {
	if q == nil {
		return 0
	}

	switch q.Kind {
	case QueriedPost:
		if q.Post != nil {
			return q.Post.ID
		}
	case QueriedTerm:
		if q.Term != nil {
			return q.Term.TermID
		}
	case QueriedAuthor:
		if q.Author != nil {
			return q.Author.ID
		}
	}

	return 0
}

type Term struct {
	TermID   int64  `json:"term_id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Taxonomy string `json:"taxonomy"`
}
