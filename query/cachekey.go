package query

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"

	"ucode/ucode_content_query_service/config"
	"ucode/ucode_content_query_service/models"
	"ucode/ucode_content_query_service/storage"
)

// cachedQuery is what one resolved plan stores: the ID-level result plus the
// pagination totals. Full rows live in the per-post domain, not here.
type cachedQuery struct {
	PostIDs     []int64           `json:"post_ids"`
	IDParents   []models.IDParent `json:"id_parents"`
	FoundPosts  int64             `json:"found_posts"`
	MaxNumPages int64             `json:"max_num_pages"`
}

// volatileVarKeys never change the row set, so the cache key ignores them.
// Fields is volatile too: the cached entry always carries IDs.
var volatileVarKeys = []string{
	"suppress_filters",
	"cache_results",
	"fields",
	"update_post_term_cache",
	"update_post_meta_cache",
	"update_menu_item_cache",
	"lazy_load_term_meta",
}

// cacheKey fingerprints the canonicalized record plus the final SQL text.
// Requests differing only in volatile knobs, type/status order or an
// implicit-versus-explicit date ordering share a key. The last-changed
// tokens version the whole keyspace, so invalidation is a token bump.
func (q *Query) cacheKey(sql string) string {
	data, err := json.Marshal(q.Vars)
	if err != nil {
		return ""
	}

	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return ""
	}

	for _, key := range volatileVarKeys {
		delete(record, key)
	}

	types := append([]string{}, q.queriedPostTypes()...)
	sort.Strings(types)
	record["post_type"] = types

	statuses := append([]string{}, q.Vars.PostStatus...)
	sort.Strings(statuses)
	record["post_status"] = statuses

	if q.Vars.OrderBy == "" {
		record["orderby"] = "date"
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return ""
	}

	// The placeholder token is random per process; strip it so the key is
	// stable across restarts.
	sum := md5.Sum(append(payload, storage.RemovePlaceholderEscape(sql)...))

	token := q.deps.Cache.LastChanged(config.CacheDomainPosts)
	if len(q.taxClauses) > 0 {
		token += ":" + q.deps.Cache.LastChanged(config.CacheDomainTerms)
	}

	return "query:" + hex.EncodeToString(sum[:]) + ":" + token
}

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))

	return hex.EncodeToString(sum[:])
}
