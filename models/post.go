package models

// Post is one row of the wide content table. Dates are kept in their stored
// "2006-01-02 15:04:05" text form; the loop derives display parts by
// substring instead of parsing.
type Post struct {
	ID              int64  `json:"id"`
	PostAuthor      int64  `json:"post_author"`
	PostDate        string `json:"post_date"`
	PostDateGmt     string `json:"post_date_gmt"`
	PostContent     string `json:"post_content"`
	PostTitle       string `json:"post_title"`
	PostExcerpt     string `json:"post_excerpt"`
	PostStatus      string `json:"post_status"`
	CommentStatus   string `json:"comment_status"`
	PingStatus      string `json:"ping_status"`
	PostPassword    string `json:"post_password"`
	PostName        string `json:"post_name"`
	PostModified    string `json:"post_modified"`
	PostModifiedGmt string `json:"post_modified_gmt"`
	PostParent      int64  `json:"post_parent"`
	Guid            string `json:"guid"`
	MenuOrder       int    `json:"menu_order"`
	PostType        string `json:"post_type"`
	PostMimeType    string `json:"post_mime_type"`
	CommentCount    int64  `json:"comment_count"`
}

// IDParent is the id=>parent projection row.
type IDParent struct {
	ID         int64 `json:"id"`
	PostParent int64 `json:"post_parent"`
}

type Comment struct {
	CommentID       int64  `json:"comment_id"`
	CommentPostID   int64  `json:"comment_post_id"`
	CommentAuthor   string `json:"comment_author"`
	CommentContent  string `json:"comment_content"`
	CommentDate     string `json:"comment_date"`
	CommentDateGmt  string `json:"comment_date_gmt"`
	CommentApproved string `json:"comment_approved"`
}

type Author struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	NiceName    string `json:"nice_name"`
	DisplayName string `json:"display_name"`
}

// User is the current actor for permission checks. A nil *User means the
// caller is not authenticated.
type User struct {
	ID   int64           `json:"id"`
	Caps map[string]bool `json:"caps"`
}

// Can reports whether the user holds the named capability.
func (u *User) Can(cap string) bool {
	if u == nil {
		return false
	}

	return u.Caps[cap]
}
