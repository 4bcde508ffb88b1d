package registry

import (
	"sort"

	"ucode/ucode_content_query_service/models"
)

// Registry is the read-only lookup table for post types, statuses and
// taxonomies. The query engine only ever reads it; registration happens
// once at startup by the consuming service.
type Registry struct {
	types      map[string]models.PostType
	statuses   map[string]models.PostStatus
	taxonomies map[string]models.Taxonomy
}

func New() *Registry {
	return &Registry{
		types:      make(map[string]models.PostType),
		statuses:   make(map[string]models.PostStatus),
		taxonomies: make(map[string]models.Taxonomy),
	}
}

// NewDefault returns a registry preloaded with the built-in content types,
// statuses and taxonomies.
func NewDefault() *Registry {
	r := New()

	r.RegisterType(models.PostType{
		Name: "post", Public: true, HasArchive: true,
		Caps: models.PostTypeCaps{EditPosts: "edit_posts", EditOthersPosts: "edit_others_posts", ReadPrivatePosts: "read_private_posts"},
	})
	r.RegisterType(models.PostType{
		Name: "page", Public: true, Hierarchical: true,
		Caps: models.PostTypeCaps{EditPosts: "edit_pages", EditOthersPosts: "edit_others_pages", ReadPrivatePosts: "read_private_pages"},
	})
	r.RegisterType(models.PostType{
		Name: "attachment", Public: true,
		Caps: models.PostTypeCaps{EditPosts: "edit_posts", EditOthersPosts: "edit_others_posts", ReadPrivatePosts: "read_private_posts"},
	})

	r.RegisterStatus(models.PostStatus{Name: "publish", Public: true})
	r.RegisterStatus(models.PostStatus{Name: "future", Protected: true})
	r.RegisterStatus(models.PostStatus{Name: "draft", Protected: true})
	r.RegisterStatus(models.PostStatus{Name: "pending", Protected: true})
	r.RegisterStatus(models.PostStatus{Name: "private", Private: true})
	r.RegisterStatus(models.PostStatus{Name: "trash", Internal: true})
	r.RegisterStatus(models.PostStatus{Name: "auto-draft", Internal: true})
	r.RegisterStatus(models.PostStatus{Name: "inherit", Internal: true})

	r.RegisterTaxonomy(models.Taxonomy{Name: "category", QueryVar: "category_name", Public: true})
	r.RegisterTaxonomy(models.Taxonomy{Name: "post_tag", QueryVar: "tag", Public: true})

	return r
}

func (r *Registry) RegisterType(t models.PostType)       { r.types[t.Name] = t }
func (r *Registry) RegisterStatus(s models.PostStatus)   { r.statuses[s.Name] = s }
func (r *Registry) RegisterTaxonomy(t models.Taxonomy)   { r.taxonomies[t.Name] = t }

func (r *Registry) PostType(name string) (models.PostType, bool) {
	t, ok := r.types[name]
	return t, ok
}

func (r *Registry) PostStatus(name string) (models.PostStatus, bool) {
	s, ok := r.statuses[name]
	return s, ok
}

func (r *Registry) Taxonomy(name string) (models.Taxonomy, bool) {
	t, ok := r.taxonomies[name]
	return t, ok
}

// PostTypeNames returns every registered type name, sorted for determinism.
func (r *Registry) PostTypeNames() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// SearchableTypeNames returns public types not excluded from search, sorted.
func (r *Registry) SearchableTypeNames() []string {
	names := make([]string, 0, len(r.types))
	for name, t := range r.types {
		if t.Public && !t.ExcludeFromSearch {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return names
}

// StatusNamesBy returns status names matching the predicate, sorted.
func (r *Registry) StatusNamesBy(match func(models.PostStatus) bool) []string {
	names := make([]string, 0, len(r.statuses))
	for name, s := range r.statuses {
		if match(s) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return names
}

// Taxonomies returns every registered taxonomy, sorted by name.
func (r *Registry) Taxonomies() []models.Taxonomy {
	names := make([]string, 0, len(r.taxonomies))
	for name := range r.taxonomies {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]models.Taxonomy, 0, len(names))
	for _, name := range names {
		out = append(out, r.taxonomies[name])
	}

	return out
}
