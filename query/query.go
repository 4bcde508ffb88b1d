package query

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"

	"ucode/ucode_content_query_service/cache"
	"ucode/ucode_content_query_service/models"
	"ucode/ucode_content_query_service/pkg/logger"
	"ucode/ucode_content_query_service/registry"
	"ucode/ucode_content_query_service/storage"

	"github.com/google/uuid"
)

// Request is the raw, untrusted parameter bag.
type Request map[string]any

// TaxSQLBuilderI is the external taxonomy predicate generator.
type TaxSQLBuilderI interface {
	GetSQL(ctx context.Context, clauses []models.TaxClause, table, idCol string) (models.TaxPredicateSQL, error)
}

// MetaSQLBuilderI is the external meta predicate generator.
type MetaSQLBuilderI interface {
	GetSQL(ctx context.Context, clauses []models.MetaClause, table, idCol string) (models.MetaPredicateSQL, error)
}

// Deps wires the engine's collaborators. Everything ambient in the original
// design (current user, admin context, main-query identity) is explicit
// here.
type Deps struct {
	Storage  storage.StorageI
	Cache    cache.Cache
	Registry *registry.Registry
	Site     SiteI
	Tax      TaxSQLBuilderI
	Meta     MetaSQLBuilderI
	Hooks    *Hooks
	Log      logger.LoggerI

	CurrentUser *models.User
	InAdmin     bool
	InREST      bool

	// MainQueryID identifies the request's main query; a Query whose ID
	// equals it is the main query. No global lookup involved.
	MainQueryID string

	// ExternalObjectCache mirrors config.Config.ExternalObjectCache.
	ExternalObjectCache bool
}

// Query resolves one request: normalize, assemble, execute, iterate.
// Reusable: a second Run resets all state.
type Query struct {
	ID string

	Raw  Request
	Vars models.Vars

	// Classification flags. Families are mutually exclusive except where
	// the front-page override documents otherwise.
	IsSingle          bool
	IsPage            bool
	IsAttachment      bool
	IsSingular        bool
	IsArchive         bool
	IsDate            bool
	IsYear            bool
	IsMonth           bool
	IsDay             bool
	IsTime            bool
	IsAuthor          bool
	IsCategory        bool
	IsTag             bool
	IsTax             bool
	IsSearch          bool
	IsFeed            bool
	IsCommentFeed     bool
	IsTrackback       bool
	IsHome            bool
	IsPostsPage       bool
	IsPrivacyPolicy   bool
	Is404             bool
	IsEmbed           bool
	IsPaged           bool
	IsPreview         bool
	IsRobots          bool
	IsFavicon         bool
	IsPostTypeArchive bool

	// Assembled SQL.
	Clauses models.SQLClauses
	SQL     string

	// Results.
	Posts       []models.Post
	PostIDs     []int64
	IDParents   []models.IDParent
	Comments    []models.Comment
	PostCount   int
	FoundPosts  int64
	MaxNumPages int64

	// Iteration cursor.
	CurrentPost int
	InTheLoop   bool
	BeforeLoop  bool
	current     *PostContext

	queriedObject   *models.QueriedObject
	queriedObjectID int64

	taxClauses   []models.TaxClause
	queriedTerms map[string][]string
	metaAliases  map[string]models.MetaClauseAlias

	varsHash string

	deps Deps
}

// New builds a Query with its own identity handle.
func New(deps Deps) *Query {
	if deps.Cache == nil {
		deps.Cache = cache.Noop()
	}
	if deps.Registry == nil {
		deps.Registry = registry.NewDefault()
	}
	if deps.Site == nil {
		deps.Site = &StaticSite{}
	}

	return &Query{
		ID:          uuid.NewString(),
		BeforeLoop:  true,
		CurrentPost: -1,
		deps:        deps,
	}
}

// IsMain reports whether this query is the request's main query, by
// explicit identity comparison.
func (q *Query) IsMain() bool {
	return q.ID != "" && q.ID == q.deps.MainQueryID
}

// resetFlags clears every classification flag.
func (q *Query) resetFlags() {
	q.IsSingle = false
	q.IsPage = false
	q.IsAttachment = false
	q.IsSingular = false
	q.IsArchive = false
	q.IsDate = false
	q.IsYear = false
	q.IsMonth = false
	q.IsDay = false
	q.IsTime = false
	q.IsAuthor = false
	q.IsCategory = false
	q.IsTag = false
	q.IsTax = false
	q.IsSearch = false
	q.IsFeed = false
	q.IsCommentFeed = false
	q.IsTrackback = false
	q.IsHome = false
	q.IsPostsPage = false
	q.IsPrivacyPolicy = false
	q.Is404 = false
	q.IsEmbed = false
	q.IsPaged = false
	q.IsPreview = false
	q.IsRobots = false
	q.IsFavicon = false
	q.IsPostTypeArchive = false
}

// Set404 enters the not-found terminal state: every classification flag is
// wiped except the feed flag, then the 404 flag is raised. Reachable only
// from normalization, never from the loop.
func (q *Query) Set404() {
	isFeed := q.IsFeed

	q.resetFlags()
	q.Is404 = true
	q.IsFeed = isFeed
}

// QueriedObject resolves lazily into the tagged union variant selected by
// the classification flags.
func (q *Query) QueriedObject() *models.QueriedObject {
	if q.queriedObject == nil {
		return &models.QueriedObject{Kind: models.QueriedNone}
	}

	return q.queriedObject
}

func (q *Query) QueriedObjectID() int64 {
	return q.queriedObjectID
}

// hashVars fingerprints the normalized parameter record. Struct
// serialization is field-ordered, so the hash is stable across runs.
func hashVars(v models.Vars) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}

	sum := md5.Sum(data)

	return hex.EncodeToString(sum[:])
}

func (q *Query) logger() logger.LoggerI {
	if q.deps.Log != nil {
		return q.deps.Log
	}

	return logger.NewNop()
}
