package config

const ErrNoRows = "no rows in result set"

// Object cache domains. The engine reads last-changed tokens for these;
// bumping them is the mutation side's job.
const (
	CacheDomainPosts       = "posts"
	CacheDomainPostQueries = "post_queries"
	CacheDomainPostMeta    = "post_meta"
	CacheDomainTerms       = "terms"
	CacheDomainComments    = "comments"
)

// Historically tuned policy thresholds. These are deployment policy, not
// correctness invariants; do not treat them as optimal for every data
// distribution.
const (
	// SplitQueryThreshold is the page size below which the execution engine
	// prefers an ID-only query followed by bulk hydration.
	SplitQueryThreshold = 500

	// SearchRelevanceTermLimit caps how many search terms still get the
	// all-terms/any-term relevance tiers in ORDER BY.
	SearchRelevanceTermLimit = 7

	// MaxSearchLength discards absurdly long search strings.
	MaxSearchLength = 1600
)
