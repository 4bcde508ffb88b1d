package query

import (
	"context"
	"encoding/json"
	"strings"

	"ucode/ucode_content_query_service/models"
	"ucode/ucode_content_query_service/pkg/helper"

	"github.com/spf13/cast"
)

// Parse normalizes the raw request into q.Vars and runs the classification
// pass. Malformed input never fails the call; it lands in the 404 terminal
// state instead. The only error path is a storage failure during queried
// object resolution.
func (q *Query) Parse(ctx context.Context, raw Request) error {
	// The request stays the caller's; alias rewriting works on a copy.
	req := make(Request, len(raw))
	for k, val := range raw {
		req[k] = val
	}
	q.Raw = req
	q.Vars = models.Vars{}
	q.resetFlags()
	q.queriedObject = nil
	q.queriedObjectID = 0
	q.taxClauses = nil
	q.queriedTerms = nil
	q.metaAliases = nil
	q.Posts = nil
	q.PostIDs = nil
	q.IDParents = nil
	q.Comments = nil
	q.PostCount = 0
	q.FoundPosts = 0
	q.MaxNumPages = 0
	q.CurrentPost = -1
	q.BeforeLoop = true
	q.InTheLoop = false

	q.fillVars(req)

	if err := q.classify(ctx); err != nil {
		return err
	}

	if q.Vars.Error == "404" {
		q.Set404()
	}

	// Embed only survives on a singular or not-found view.
	q.IsEmbed = q.IsEmbed && (q.IsSingular || q.Is404)

	q.varsHash = hashVars(q.Vars)
	q.deps.Hooks.runParseQuery(q)

	return nil
}

// fillVars maps the untyped request into the typed record: defaults for
// absent keys, coercion for present ones, legacy alias resolution.
func (q *Query) fillVars(raw Request) {
	v := &q.Vars

	// Defaults that are not the zero value.
	v.Order = "DESC"
	v.CacheResults = true
	v.UpdatePostTermCache = true
	v.UpdatePostMetaCache = true
	v.LazyLoadTermMeta = true
	v.SearchExcludePrefix = "-"
	v.PostsPerPage = q.deps.Site.PostsPerPage()

	// Legacy aliases.
	if val, ok := raw["subpost"]; ok {
		if _, has := raw["attachment"]; !has {
			raw["attachment"] = val
		}
		delete(raw, "subpost")
	}
	if val, ok := raw["subpost_id"]; ok {
		if _, has := raw["attachment_id"]; !has {
			raw["attachment_id"] = val
		}
		delete(raw, "subpost_id")
	}

	if val, ok := raw["p"]; ok {
		if n, err := cast.ToInt64E(val); err == nil && n < 0 {
			// A malformed primary selector forces a not-found result.
			v.Error = "404"
		} else {
			v.P = helper.AbsInt(val)
		}
	}

	v.PageID = helper.AbsInt(raw["page_id"])
	v.AttachmentID = helper.AbsInt(raw["attachment_id"])
	v.Attachment = strings.TrimSpace(cast.ToString(raw["attachment"]))
	v.Name = strings.TrimSpace(cast.ToString(raw["name"]))
	v.Pagename = strings.Trim(strings.TrimSpace(cast.ToString(raw["pagename"])), "/")

	v.PostIn = helper.ToIDList(raw["post__in"])
	v.PostNotIn = helper.ToIDList(raw["post__not_in"])
	v.PostNameIn = helper.ToStringList(raw["post_name__in"])

	if val, ok := raw["post_parent"]; ok {
		v.HasPostParent = true
		v.PostParent = helper.AbsInt(val)
	}
	v.PostParentIn = helper.ToIDList(raw["post_parent__in"])
	v.PostParentNotIn = helper.ToIDList(raw["post_parent__not_in"])

	v.Second = int(helper.AbsInt(raw["second"]))
	v.Minute = int(helper.AbsInt(raw["minute"]))
	v.Hour = int(helper.AbsInt(raw["hour"]))
	v.Day = int(helper.AbsInt(raw["day"]))
	v.Monthnum = int(helper.AbsInt(raw["monthnum"]))
	v.Year = int(helper.AbsInt(raw["year"]))
	v.M = helper.Digits(raw["m"])
	v.DateQuery = parseDateClauses(raw["date_query"])

	if val, ok := raw["cat"]; ok {
		for _, part := range helper.ToStringList(val) {
			n := cast.ToInt64(part)
			switch {
			case n > 0:
				if v.Cat == 0 {
					v.Cat = n
				} else {
					v.CategoryIn = append(v.CategoryIn, n)
				}
			case n < 0:
				v.CategoryNotIn = append(v.CategoryNotIn, -n)
			}
		}
	}
	v.CategoryName = strings.Trim(cast.ToString(raw["category_name"]), "/")
	v.CategoryIn = append(v.CategoryIn, helper.ToIDList(raw["category__in"])...)
	v.CategoryNotIn = append(v.CategoryNotIn, helper.ToIDList(raw["category__not_in"])...)
	v.CategoryAnd = helper.ToIDList(raw["category__and"])

	v.Tag = strings.TrimSpace(cast.ToString(raw["tag"]))
	v.TagID = helper.AbsInt(raw["tag_id"])
	v.TagIn = helper.ToIDList(raw["tag__in"])
	v.TagNotIn = helper.ToIDList(raw["tag__not_in"])
	v.TagAnd = helper.ToIDList(raw["tag__and"])
	v.TagSlugIn = helper.ToStringList(raw["tag_slug__in"])
	v.TagSlugAnd = helper.ToStringList(raw["tag_slug__and"])
	v.TaxQuery = parseTaxClauses(raw["tax_query"])

	v.MetaKey = cast.ToString(raw["meta_key"])
	v.MetaValue = cast.ToString(raw["meta_value"])
	v.MetaCompare = cast.ToString(raw["meta_compare"])
	v.MetaQuery = parseMetaClauses(raw["meta_query"])

	if val, ok := raw["author"]; ok {
		n := cast.ToInt64(val)
		if n < 0 {
			v.AuthorNotIn = append(v.AuthorNotIn, -n)
		} else {
			v.Author = n
		}
	}
	v.AuthorName = strings.TrimSpace(cast.ToString(raw["author_name"]))
	v.AuthorIn = append(v.AuthorIn, helper.ToIDList(raw["author__in"])...)
	v.AuthorNotIn = append(v.AuthorNotIn, helper.ToIDList(raw["author__not_in"])...)

	v.PostType = helper.ToStringList(raw["post_type"])
	v.PostStatus = helper.ToStringList(raw["post_status"])
	v.PostMimeType = helper.ToStringList(raw["post_mime_type"])

	if val, ok := raw["s"]; ok {
		v.S = cast.ToString(val)
		if len(v.S) > maxSearchLength() {
			v.S = ""
		}
	}
	v.Sentence = cast.ToBool(raw["sentence"])
	v.Exact = cast.ToBool(raw["exact"])
	v.SearchColumns = helper.ToStringList(raw["search_columns"])
	q.parseSearchTerms()

	if val, ok := raw["has_password"]; ok {
		b := cast.ToBool(val)
		v.HasPassword = &b
	}
	v.PostPassword = cast.ToString(raw["post_password"])

	if val, ok := raw["comment_count"]; ok {
		switch cc := val.(type) {
		case map[string]any:
			v.CommentCountValue = helper.AbsInt(cc["value"])
			v.CommentCountCompare = normalizeCompare(cast.ToString(cc["compare"]))
		default:
			v.CommentCountValue = helper.AbsInt(val)
			v.CommentCountCompare = "="
		}
	}

	if val, ok := raw["posts_per_page"]; ok {
		v.PostsPerPage = cast.ToInt(val)
		if v.PostsPerPage < -1 {
			v.PostsPerPage = -v.PostsPerPage
		}
	}
	v.NoPaging = cast.ToBool(raw["nopaging"]) || v.PostsPerPage == -1
	v.Paged = int(helper.AbsInt(raw["paged"]))
	v.Page = int(helper.AbsInt(raw["page"]))
	v.CPage = int(helper.AbsInt(raw["cpage"]))

	if val, ok := raw["offset"]; ok {
		v.HasOffset = true
		v.Offset = int(helper.AbsInt(val))
	}

	if order := strings.ToUpper(cast.ToString(raw["order"])); order == "ASC" {
		v.Order = "ASC"
	}
	v.OrderBy = strings.TrimSpace(strings.Join(helper.ToStringList(raw["orderby"]), " "))

	if val, ok := raw["menu_order"]; ok {
		v.HasMenuOrder = true
		v.MenuOrder = int(helper.AbsInt(val))
	}

	switch cast.ToString(raw["fields"]) {
	case "ids":
		v.Fields = "ids"
	case "id=>parent":
		v.Fields = "id=>parent"
	}

	v.Feed = cast.ToString(raw["feed"])
	v.Embed = cast.ToBool(raw["embed"])
	v.Preview = cast.ToBool(raw["preview"])
	v.Robots = cast.ToBool(raw["robots"])
	v.Favicon = cast.ToBool(raw["favicon"])
	v.Trackback = cast.ToBool(raw["tb"])
	v.WithComments = cast.ToBool(raw["withcomments"])
	v.WithoutComments = cast.ToBool(raw["withoutcomments"])

	switch cast.ToString(raw["perm"]) {
	case "readable":
		v.Perm = "readable"
	case "editable":
		v.Perm = "editable"
	}

	if val, ok := raw["suppress_filters"]; ok {
		v.SuppressFilters = cast.ToBool(val)
	}
	if val, ok := raw["cache_results"]; ok {
		v.CacheResults = cast.ToBool(val)
	}
	if val, ok := raw["no_found_rows"]; ok {
		v.NoFoundRows = cast.ToBool(val)
	}
	if val, ok := raw["ignore_sticky_posts"]; ok {
		v.IgnoreStickyPosts = cast.ToBool(val)
	}
	if val, ok := raw["update_post_term_cache"]; ok {
		v.UpdatePostTermCache = cast.ToBool(val)
	}
	if val, ok := raw["update_post_meta_cache"]; ok {
		v.UpdatePostMetaCache = cast.ToBool(val)
	}
	if val, ok := raw["update_menu_item_cache"]; ok {
		v.UpdateMenuItemCache = cast.ToBool(val)
	}
	if val, ok := raw["lazy_load_term_meta"]; ok {
		v.LazyLoadTermMeta = cast.ToBool(val)
	} else {
		v.LazyLoadTermMeta = v.UpdatePostTermCache
	}
}

// refreshDerived re-normalizes derived state after an extension mutated
// q.Vars past its fingerprint: hooks may blank previously filled keys, so
// execution must not trust stale derivations.
func (q *Query) refreshDerived() {
	v := &q.Vars

	if len(v.S) > maxSearchLength() {
		v.S = ""
	}
	q.parseSearchTerms()

	v.PostType = helper.SanitizeKeyList(v.PostType)
	v.PostStatus = helper.SanitizeKeyList(v.PostStatus)

	if v.Order != "ASC" {
		v.Order = "DESC"
	}
	if v.SearchExcludePrefix == "" {
		v.SearchExcludePrefix = "-"
	}
	if v.PostsPerPage == 0 {
		v.PostsPerPage = q.deps.Site.PostsPerPage()
	}
	v.NoPaging = v.NoPaging || v.PostsPerPage == -1

	q.varsHash = hashVars(q.Vars)
}

// classify runs the ordered flag cascade over the filled record.
func (q *Query) classify(ctx context.Context) error {
	v := &q.Vars

	switch {
	case v.Attachment != "" || v.AttachmentID > 0:
		q.IsSingle = true
		q.IsAttachment = true
		if v.Attachment != "" && v.Name == "" {
			v.Name = v.Attachment
		}
	case v.Name != "":
		q.IsSingle = true
	case v.P > 0:
		q.IsSingle = true
	case v.Pagename != "" || v.PageID > 0:
		q.IsPage = true
	default:
		q.classifyArchive()
	}

	if v.Feed != "" {
		q.IsFeed = true
	}
	q.IsEmbed = v.Embed
	q.IsTrackback = v.Trackback
	q.IsRobots = v.Robots
	q.IsFavicon = v.Favicon
	q.IsPreview = v.Preview
	if v.Paged > 1 {
		q.IsPaged = true
	}

	q.IsSingular = q.IsSingle || q.IsPage || q.IsAttachment

	if q.IsFeed && (v.WithComments || (!v.WithoutComments && q.IsSingular)) {
		q.IsCommentFeed = true
	}

	if !(q.IsSingular || q.IsArchive || q.IsSearch || q.IsFeed ||
		(q.deps.InREST && q.IsMain()) || q.IsTrackback || v.Error == "404" ||
		q.deps.InAdmin || q.IsRobots || q.IsFavicon) {
		q.IsHome = true
	}

	q.applyFrontPageOverride()

	if err := q.resolveQueriedObject(ctx); err != nil {
		return err
	}

	v.PostType = helper.SanitizeKeyList(v.PostType)
	v.PostStatus = helper.SanitizeKeyList(v.PostStatus)

	if q.IsPostsPage && !v.WithComments {
		q.IsCommentFeed = false
	}

	// Step 8 corrections can flip page/single flags, so recompute.
	q.IsSingular = q.IsSingle || q.IsPage || q.IsAttachment

	return nil
}

// classifyArchive is the non-singular cascade: search, then time and date
// granularity from finest to coarsest, then taxonomy, author and post type
// archive.
func (q *Query) classifyArchive() {
	v := &q.Vars

	// The flag follows the requested string, before the length cap blanks
	// an oversized one.
	if cast.ToString(q.Raw["s"]) != "" {
		q.IsSearch = true
	}

	if v.Second > 0 {
		q.IsTime = true
		q.IsDate = true
	}
	if v.Minute > 0 {
		q.IsTime = true
		q.IsDate = true
	}
	if v.Hour > 0 {
		q.IsTime = true
		q.IsDate = true
	}

	if v.Day > 0 {
		if !q.IsDate {
			q.IsDay = true
			q.IsDate = true
		}
		if v.Monthnum > 0 && v.Year > 0 && !validCalendarDate(v.Year, v.Monthnum, v.Day) {
			v.Error = "404"
			q.IsDay = false
		}
	}
	if v.Monthnum > 0 && !q.IsDate {
		if v.Monthnum > 12 {
			v.Error = "404"
		} else {
			q.IsMonth = true
			q.IsDate = true
		}
	}
	if v.Year > 0 && !q.IsDate {
		q.IsYear = true
		q.IsDate = true
	}

	if v.M != "" && !q.IsDate {
		q.IsDate = true
		switch {
		case len(v.M) > 9:
			q.IsTime = true
		case len(v.M) > 7:
			q.IsDay = true
		case len(v.M) > 5:
			q.IsMonth = true
		default:
			q.IsYear = true
		}
	}

	// Deliberately re-entrant: the taxonomy sub-parser runs over the
	// normalized record built so far.
	q.parseTaxQuery()
	for _, clause := range q.taxClauses {
		if clause.Operator == "NOT IN" || clause.Operator == "NOT EXISTS" {
			continue
		}
		switch clause.Taxonomy {
		case "category":
			q.IsCategory = true
		case "post_tag":
			q.IsTag = true
		default:
			if _, ok := q.deps.Registry.Taxonomy(clause.Taxonomy); ok {
				q.IsTax = true
			}
		}
	}

	if v.Author > 0 || len(v.AuthorIn) > 0 || v.AuthorName != "" {
		q.IsAuthor = true
	}

	if len(v.PostType) == 1 && !v.PostTypeAny() {
		if t, ok := q.deps.Registry.PostType(v.PostType[0]); ok && t.HasArchive {
			q.IsPostTypeArchive = true
		}
	}

	q.IsArchive = q.IsPostTypeArchive || q.IsDate || q.IsAuthor ||
		q.IsCategory || q.IsTag || q.IsTax
}

// applyFrontPageOverride flips a bare home request into the configured
// static front page. Sole sanctioned exception to flag-family exclusivity.
func (q *Query) applyFrontPageOverride() {
	v := &q.Vars

	if !q.IsHome || q.deps.Site.ShowOnFront() != "page" || q.deps.Site.PageOnFront() == 0 {
		return
	}

	for key, val := range q.Raw {
		switch key {
		case "preview", "page", "paged", "cpage":
			continue
		case "pagename":
			if cast.ToString(val) == "" {
				continue
			}
		}
		if !recognizedKeys[key] {
			continue
		}
		// A surviving substantive parameter: leave the query alone.
		return
	}

	q.IsPage = true
	q.IsHome = false
	v.PageID = q.deps.Site.PageOnFront()

	// The home listing becomes one page, so listing pagination becomes
	// content-internal pagination.
	if v.Paged > 0 {
		v.Page = v.Paged
		v.Paged = 0
		q.IsPaged = false
	}
}

// resolveQueriedObject settles pagename/page_id into a concrete row and
// applies the posts-page, privacy-policy and slug-collision corrections.
func (q *Query) resolveQueriedObject(ctx context.Context) error {
	v := &q.Vars

	if v.Pagename != "" && (q.IsPage || q.IsSingle) {
		types := []string{"page", "attachment"}
		pg, err := q.deps.Storage.Posts().GetByPath(ctx, v.Pagename, types)
		if err != nil {
			return err
		}

		if pg != nil && pg.PostType == "attachment" &&
			usesPostnamePermalinks(q.deps.Site.PermalinkStructure()) {
			// A non-attachment post sharing the slug wins the URL.
			leaf := v.Pagename
			if idx := strings.LastIndex(leaf, "/"); idx >= 0 {
				leaf = leaf[idx+1:]
			}
			post, err := q.deps.Storage.Posts().GetByName(ctx, leaf, "post")
			if err != nil {
				return err
			}
			if post != nil {
				pg = post
				q.IsPage = false
				q.IsAttachment = false
				q.IsSingle = true
				v.Name = leaf
			}
		}

		if pg != nil {
			q.queriedObject = &models.QueriedObject{Kind: models.QueriedPost, Post: pg}
			q.queriedObjectID = pg.ID

			if pg.ID == q.deps.Site.PageForPosts() && q.deps.Site.PageForPosts() > 0 {
				q.IsPage = false
				q.IsHome = true
				q.IsPostsPage = true
			}
		}
	}

	if v.PageID > 0 {
		q.queriedObjectID = v.PageID

		if v.PageID == q.deps.Site.PageForPosts() && q.deps.Site.PageForPosts() > 0 {
			q.IsPage = false
			q.IsHome = true
			q.IsPostsPage = true
		}
	}

	if q.IsPage && q.queriedObjectID > 0 &&
		q.queriedObjectID == q.deps.Site.PrivacyPolicyPage() {
		q.IsPrivacyPolicy = true
	}

	if q.IsAuthor && q.queriedObjectID == 0 && v.Author > 0 {
		q.queriedObjectID = v.Author
	}

	return nil
}

// parseTaxQuery folds the shorthand taxonomy vars and any explicit clause
// list into one clause set.
func (q *Query) parseTaxQuery() {
	v := &q.Vars
	clauses := append([]models.TaxClause{}, v.TaxQuery...)

	if v.Cat != 0 {
		clauses = append(clauses, models.TaxClause{
			Taxonomy: "category", Field: "term_id",
			Terms: []string{cast.ToString(v.Cat)}, Operator: "IN", IncludeChildren: true,
		})
	}
	if v.CategoryName != "" {
		name := v.CategoryName
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		clauses = append(clauses, models.TaxClause{
			Taxonomy: "category", Field: "slug",
			Terms: []string{name}, Operator: "IN", IncludeChildren: true,
		})
	}
	if len(v.CategoryIn) > 0 {
		clauses = append(clauses, models.TaxClause{
			Taxonomy: "category", Field: "term_id",
			Terms: toStringIDs(v.CategoryIn), Operator: "IN",
		})
	}
	if len(v.CategoryNotIn) > 0 {
		clauses = append(clauses, models.TaxClause{
			Taxonomy: "category", Field: "term_id",
			Terms: toStringIDs(v.CategoryNotIn), Operator: "NOT IN",
		})
	}
	if len(v.CategoryAnd) > 0 {
		clauses = append(clauses, models.TaxClause{
			Taxonomy: "category", Field: "term_id",
			Terms: toStringIDs(v.CategoryAnd), Operator: "AND",
		})
	}

	if v.Tag != "" {
		op := "IN"
		sep := ","
		if strings.Contains(v.Tag, "+") {
			op = "AND"
			sep = "+"
		}
		terms := make([]string, 0)
		for _, t := range strings.Split(v.Tag, sep) {
			t = strings.TrimSpace(t)
			if t != "" {
				terms = append(terms, t)
			}
		}
		clauses = append(clauses, models.TaxClause{
			Taxonomy: "post_tag", Field: "slug", Terms: terms, Operator: op,
		})
	}
	if v.TagID != 0 {
		clauses = append(clauses, models.TaxClause{
			Taxonomy: "post_tag", Field: "term_id",
			Terms: []string{cast.ToString(v.TagID)}, Operator: "IN",
		})
	}
	if len(v.TagIn) > 0 {
		clauses = append(clauses, models.TaxClause{
			Taxonomy: "post_tag", Field: "term_id", Terms: toStringIDs(v.TagIn), Operator: "IN",
		})
	}
	if len(v.TagNotIn) > 0 {
		clauses = append(clauses, models.TaxClause{
			Taxonomy: "post_tag", Field: "term_id", Terms: toStringIDs(v.TagNotIn), Operator: "NOT IN",
		})
	}
	if len(v.TagAnd) > 0 {
		clauses = append(clauses, models.TaxClause{
			Taxonomy: "post_tag", Field: "term_id", Terms: toStringIDs(v.TagAnd), Operator: "AND",
		})
	}
	if len(v.TagSlugIn) > 0 {
		clauses = append(clauses, models.TaxClause{
			Taxonomy: "post_tag", Field: "slug", Terms: v.TagSlugIn, Operator: "IN",
		})
	}
	if len(v.TagSlugAnd) > 0 {
		clauses = append(clauses, models.TaxClause{
			Taxonomy: "post_tag", Field: "slug", Terms: v.TagSlugAnd, Operator: "AND",
		})
	}

	q.taxClauses = clauses
}

var recognizedKeys = map[string]bool{
	"error": true, "m": true, "p": true, "post_parent": true, "subpost": true,
	"subpost_id": true, "attachment": true, "attachment_id": true, "name": true,
	"pagename": true, "page_id": true, "second": true, "minute": true,
	"hour": true, "day": true, "monthnum": true, "year": true, "w": true,
	"category_name": true, "tag": true, "cat": true, "tag_id": true,
	"author": true, "author_name": true, "feed": true, "tb": true,
	"paged": true, "meta_key": true, "meta_value": true, "preview": true,
	"s": true, "sentence": true, "title": true, "fields": true,
	"menu_order": true, "embed": true, "category__in": true,
	"category__not_in": true, "category__and": true, "post__in": true,
	"post__not_in": true, "post_name__in": true, "tag__in": true,
	"tag__not_in": true, "tag__and": true, "tag_slug__in": true,
	"tag_slug__and": true, "post_parent__in": true, "post_parent__not_in": true,
	"author__in": true, "author__not_in": true, "search_columns": true,
	"page": true, "cpage": true, "robots": true, "favicon": true,
	"post_type": true, "post_status": true, "posts_per_page": true,
	"nopaging": true, "offset": true, "order": true, "orderby": true,
	"tax_query": true, "meta_query": true, "date_query": true,
	"comment_count": true, "perm": true, "post_mime_type": true,
	"has_password": true, "post_password": true, "exact": true,
	"withcomments": true, "withoutcomments": true,
}

func toStringIDs(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = cast.ToString(id)
	}

	return out
}

func normalizeCompare(op string) string {
	switch op {
	case "=", "!=", ">", ">=", "<", "<=":
		return op
	default:
		return "="
	}
}

// parseTaxClauses accepts either a typed clause list or loose maps.
func parseTaxClauses(val any) []models.TaxClause {
	if val == nil {
		return nil
	}

	if typed, ok := val.([]models.TaxClause); ok {
		return typed
	}

	return jsonRoundTrip[models.TaxClause](val)
}

func parseMetaClauses(val any) []models.MetaClause {
	if val == nil {
		return nil
	}

	if typed, ok := val.([]models.MetaClause); ok {
		return typed
	}

	return jsonRoundTrip[models.MetaClause](val)
}

func parseDateClauses(val any) []models.DateClause {
	if val == nil {
		return nil
	}

	if typed, ok := val.([]models.DateClause); ok {
		return typed
	}

	return jsonRoundTrip[models.DateClause](val)
}

func jsonRoundTrip[T any](val any) []T {
	data, err := json.Marshal(val)
	if err != nil {
		return nil
	}

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}

	return out
}
