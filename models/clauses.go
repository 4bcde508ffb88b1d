package models

// SQLClauses holds the assembled fragments of one posts query. Concatenation
// order is fixed:
//
//	SELECT <distinct> <fields> FROM posts <join> WHERE 1=1 <where> <groupby> <orderby> <limits>
//
// Fragment ordering matters both for duplicate-predicate correctness and for
// cache-key determinism, so external mutation rounds always see the whole
// set at once.
type SQLClauses struct {
	Distinct string `json:"distinct"`
	Fields   string `json:"fields"`
	Join     string `json:"join"`
	Where    string `json:"where"`
	GroupBy  string `json:"groupby"`
	OrderBy  string `json:"orderby"`
	Limits   string `json:"limits"`
}

// DateClause is one declarative date predicate. Zero-valued numeric parts
// are unset. Compare applies to the set parts ("=", "<", "<=", ">", ">=");
// empty means equality.
type DateClause struct {
	Column  string `json:"column"`
	Compare string `json:"compare"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Day     int    `json:"day"`
	Hour    int    `json:"hour"`
	Minute  int    `json:"minute"`
	Second  int    `json:"second"`
}

// TaxClause is one declarative taxonomy predicate handed to the taxonomy
// predicate generator.
type TaxClause struct {
	Taxonomy        string   `json:"taxonomy"`
	Field           string   `json:"field"` // term_id, slug, name
	Terms           []string `json:"terms"`
	Operator        string   `json:"operator"` // IN, NOT IN, AND, EXISTS, NOT EXISTS
	IncludeChildren bool     `json:"include_children"`
}

// MetaClause is one declarative meta predicate. Name keys a clause for
// ORDER BY resolution ("orderby": "<name>").
type MetaClause struct {
	Name    string   `json:"name"`
	Key     string   `json:"key"`
	Value   []string `json:"value"`
	Compare string   `json:"compare"` // =, !=, LIKE, IN, BETWEEN, EXISTS, NOT EXISTS
	Type    string   `json:"type"`    // CHAR, NUMERIC, ...
}

// PredicateSQL is what a predicate generator returns: ready-to-append JOIN
// and WHERE text for the primary table.
type PredicateSQL struct {
	Join  string `json:"join"`
	Where string `json:"where"`
}

// TaxPredicateSQL additionally reports which taxonomy/term pairs the clauses
// touched, for classification and queried-object resolution.
type TaxPredicateSQL struct {
	PredicateSQL
	QueriedTerms map[string][]string `json:"queried_terms"` // taxonomy -> terms
}

// MetaPredicateSQL additionally exposes the per-clause aliases so ORDER BY
// can sort by a named meta clause.
type MetaPredicateSQL struct {
	PredicateSQL
	ClauseAliases map[string]MetaClauseAlias `json:"clause_aliases"`
}

type MetaClauseAlias struct {
	Alias string `json:"alias"`
	Cast  string `json:"cast"` // SQL type the value column is cast to
}

// OrderPair is one parsed orderby entry after allow-list mapping.
type OrderPair struct {
	Expr string `json:"expr"`
	Desc bool   `json:"desc"`
}
