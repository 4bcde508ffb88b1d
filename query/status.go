package query

import (
	"fmt"
	"strings"

	"ucode/ucode_content_query_service/models"
	"ucode/ucode_content_query_service/storage"
)

// capsFor picks the capability names guarding the queried types. Anything
// other than a single registered type falls back to the generic post caps.
func (q *Query) capsFor(types []string) models.PostTypeCaps {
	if len(types) == 1 {
		if t, ok := q.deps.Registry.PostType(types[0]); ok && t.Caps.ReadPrivatePosts != "" {
			return t.Caps
		}
	}

	return models.PostTypeCaps{
		EditPosts:        "edit_posts",
		EditOthersPosts:  "edit_others_posts",
		ReadPrivatePosts: "read_private_posts",
	}
}

// statusWhere builds the visibility disjunction: each requested status
// becomes one branch, guarded by ownership when the viewer lacks the
// relevant capability under the requested permission mode.
func (q *Query) statusWhere(types []string) string {
	v := &q.Vars
	user := q.deps.CurrentUser
	caps := q.capsFor(types)
	t := storage.PostsTable

	if len(v.PostStatus) > 0 {
		return q.explicitStatusWhere(types, caps)
	}

	public := q.deps.Registry.StatusNamesBy(func(s models.PostStatus) bool { return s.Public })
	if q.deps.InAdmin {
		public = append(public,
			q.deps.Registry.StatusNamesBy(func(s models.PostStatus) bool { return s.Protected })...)
	}

	parts := []string{fmt.Sprintf("%s.post_status IN (%s)", t, storage.QuoteStringList(public))}

	if user != nil {
		private := q.deps.Registry.StatusNamesBy(func(s models.PostStatus) bool { return s.Private })
		for _, name := range private {
			if user.Can(caps.ReadPrivatePosts) {
				parts = append(parts, fmt.Sprintf("%s.post_status = %s", t, storage.QuoteLiteral(name)))
			} else {
				parts = append(parts, fmt.Sprintf("(%s.post_author = %d AND %s.post_status = %s)",
					t, user.ID, t, storage.QuoteLiteral(name)))
			}
		}
	}

	return " AND (" + strings.Join(parts, " OR ") + ")"
}

func (q *Query) explicitStatusWhere(types []string, caps models.PostTypeCaps) string {
	v := &q.Vars
	user := q.deps.CurrentUser
	t := storage.PostsTable

	statuses := v.PostStatus
	if v.PostStatusAny() {
		statuses = q.deps.Registry.StatusNamesBy(func(s models.PostStatus) bool { return !s.Internal })
	}

	var parts, plain []string
	for _, name := range statuses {
		st, ok := q.deps.Registry.PostStatus(name)
		if !ok {
			continue
		}

		guarded := (v.Perm == "editable" && !user.Can(caps.EditOthersPosts)) ||
			(v.Perm == "readable" && st.Private && !user.Can(caps.ReadPrivatePosts))
		if !guarded {
			plain = append(plain, name)
			continue
		}

		// The viewer only sees their own rows under this status. An
		// anonymous viewer owns nothing, so the branch matches nothing.
		ownerID := int64(0)
		if user != nil {
			ownerID = user.ID
		}
		parts = append(parts, fmt.Sprintf("(%s.post_author = %d AND %s.post_status = %s)",
			t, ownerID, t, storage.QuoteLiteral(name)))
	}

	if len(plain) > 0 {
		parts = append(parts, fmt.Sprintf("%s.post_status IN (%s)", t, storage.QuoteStringList(plain)))
	}
	if len(parts) == 0 {
		return fmt.Sprintf(" AND (%s.post_status = 'publish')", t)
	}

	return " AND (" + strings.Join(parts, " OR ") + ")"
}
