package models

// PostTypeCaps names the capabilities permission checks consult for a type.
type PostTypeCaps struct {
	EditPosts        string `json:"edit_posts"`
	EditOthersPosts  string `json:"edit_others_posts"`
	ReadPrivatePosts string `json:"read_private_posts"`
}

// PostType is a read-only content type descriptor.
type PostType struct {
	Name              string       `json:"name"`
	Public            bool         `json:"public"`
	Hierarchical      bool         `json:"hierarchical"`
	HasArchive        bool         `json:"has_archive"`
	ExcludeFromSearch bool         `json:"exclude_from_search"`
	Caps              PostTypeCaps `json:"caps"`
}

// PostStatus is a read-only status descriptor with its visibility flags.
type PostStatus struct {
	Name      string `json:"name"`
	Public    bool   `json:"public"`
	Protected bool   `json:"protected"` // draft/pending family
	Private   bool   `json:"private"`
	Internal  bool   `json:"internal"`
}

// Taxonomy is a read-only taxonomy descriptor. QueryVar is the request key
// that selects terms of this taxonomy ("" disables direct querying).
type Taxonomy struct {
	Name     string `json:"name"`
	QueryVar string `json:"query_var"`
	Public   bool   `json:"public"`
}
