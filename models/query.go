package models

// Vars is the canonical, fully-typed parameter record produced by the
// parameter normalizer. Every recognized request key has a home here, so
// downstream code never branches on "missing" versus "empty".
//
// JSON tags double as the stable serialization names used by the query
// cache key, so renaming one invalidates cached plans.
type Vars struct {
	// Error carries the terminal classification code ("404") set during
	// normalization. Never a hard failure.
	Error string `json:"error"`

	// Identity selectors.
	P            int64  `json:"p"`
	PageID       int64  `json:"page_id"`
	AttachmentID int64  `json:"attachment_id"`
	Attachment   string `json:"attachment"`
	Name         string `json:"name"`
	Pagename     string `json:"pagename"`
	PostIn       []int64  `json:"post__in"`
	PostNotIn    []int64  `json:"post__not_in"`
	PostNameIn   []string `json:"post_name__in"`

	// Parent selectors. HasPostParent distinguishes an explicit parent=0
	// (top-level items) from no parent filter at all.
	PostParent      int64   `json:"post_parent"`
	HasPostParent   bool    `json:"has_post_parent"`
	PostParentIn    []int64 `json:"post_parent__in"`
	PostParentNotIn []int64 `json:"post_parent__not_in"`

	// Date selectors. M is the packed "YYYYMMDDHHMMSS"-prefix value whose
	// length determines granularity.
	Second      int          `json:"second"`
	Minute      int          `json:"minute"`
	Hour        int          `json:"hour"`
	Day         int          `json:"day"`
	Monthnum    int          `json:"monthnum"`
	Year        int          `json:"year"`
	M           string       `json:"m"`
	DateQuery   []DateClause `json:"date_query"`

	// Taxonomy selectors.
	Cat          int64    `json:"cat"`
	CategoryName string   `json:"category_name"`
	CategoryIn   []int64  `json:"category__in"`
	CategoryNotIn []int64 `json:"category__not_in"`
	CategoryAnd  []int64  `json:"category__and"`
	Tag          string   `json:"tag"`
	TagID        int64    `json:"tag_id"`
	TagIn        []int64  `json:"tag__in"`
	TagNotIn     []int64  `json:"tag__not_in"`
	TagAnd       []int64  `json:"tag__and"`
	TagSlugIn    []string `json:"tag_slug__in"`
	TagSlugAnd   []string `json:"tag_slug__and"`
	TaxQuery     []TaxClause `json:"tax_query"`

	// Meta selectors.
	MetaKey     string       `json:"meta_key"`
	MetaValue   string       `json:"meta_value"`
	MetaCompare string       `json:"meta_compare"`
	MetaQuery   []MetaClause `json:"meta_query"`

	// Author selectors.
	Author      int64   `json:"author"`
	AuthorName  string  `json:"author_name"`
	AuthorIn    []int64 `json:"author__in"`
	AuthorNotIn []int64 `json:"author__not_in"`

	// Content selectors.
	PostType   []string `json:"post_type"`   // single element "any" expands at execution
	PostStatus []string `json:"post_status"` // single element "any" likewise
	PostMimeType []string `json:"post_mime_type"`

	// Search.
	S                  string   `json:"s"`
	Sentence           bool     `json:"sentence"`
	Exact              bool     `json:"exact"`
	SearchTerms        []string `json:"search_terms"`
	SearchExcluded     []bool   `json:"search_excluded"` // parallel to SearchTerms
	SearchExcludePrefix string  `json:"search_exclude_prefix"`
	SearchColumns      []string `json:"search_columns"`

	// Password.
	HasPassword  *bool  `json:"has_password"`
	PostPassword string `json:"post_password"`

	// Comment count compare.
	CommentCountValue   int64  `json:"comment_count_value"`
	CommentCountCompare string `json:"comment_count_compare"`

	// Pagination and ordering.
	PostsPerPage int    `json:"posts_per_page"` // -1 means unlimited
	NoPaging     bool   `json:"nopaging"`
	Paged        int    `json:"paged"`
	Page         int    `json:"page"` // content-internal pagination
	CPage        int    `json:"cpage"`
	Offset       int    `json:"offset"`
	HasOffset    bool   `json:"has_offset"`
	Order        string `json:"order"`   // ASC or DESC
	OrderBy      string `json:"orderby"` // raw, space separated or known key
	MenuOrder    int    `json:"menu_order"`
	HasMenuOrder bool   `json:"has_menu_order"`

	// Surface markers.
	Feed            string `json:"feed"`
	Embed           bool   `json:"embed"`
	Preview         bool   `json:"preview"`
	Robots          bool   `json:"robots"`
	Favicon         bool   `json:"favicon"`
	Trackback       bool   `json:"tb"`
	WithComments    bool   `json:"withcomments"`
	WithoutComments bool   `json:"withoutcomments"`

	// Permission mode: "", "readable" or "editable".
	Perm string `json:"perm"`

	// Projection: "", "ids" or "id=>parent".
	Fields string `json:"fields"`

	// Behavior flags.
	SuppressFilters     bool `json:"suppress_filters"`
	CacheResults        bool `json:"cache_results"`
	NoFoundRows         bool `json:"no_found_rows"`
	IgnoreStickyPosts   bool `json:"ignore_sticky_posts"`
	UpdatePostTermCache bool `json:"update_post_term_cache"`
	UpdatePostMetaCache bool `json:"update_post_meta_cache"`
	UpdateMenuItemCache bool `json:"update_menu_item_cache"`
	LazyLoadTermMeta    bool `json:"lazy_load_term_meta"`
}

// PostTypeAny reports the "any" wildcard.
func (v *Vars) PostTypeAny() bool {
	return len(v.PostType) == 1 && v.PostType[0] == "any"
}

// PostStatusAny reports the "any" wildcard.
func (v *Vars) PostStatusAny() bool {
	return len(v.PostStatus) == 1 && v.PostStatus[0] == "any"
}
