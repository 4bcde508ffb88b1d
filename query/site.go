package query

import (
	"strings"
	"time"
)

// SiteI exposes the site configuration reads the engine performs: front
// page wiring, pagination defaults, sticky set, permalink style.
type SiteI interface {
	// ShowOnFront is "posts" or "page".
	ShowOnFront() string
	PageOnFront() int64
	PageForPosts() int64
	PrivacyPolicyPage() int64
	PostsPerPage() int
	PostsPerRSS() int
	StickyPosts() []int64
	PermalinkStructure() string
	// Now returns the current local time in stored-date form, used when a
	// preview stamps a protected row's date for rendering.
	Now() string
}

// StaticSite is a fixed-value SiteI, enough for the demo and for tests.
type StaticSite struct {
	FrontMode        string // "posts" or "page"
	FrontPageID      int64
	PostsPageID      int64
	PrivacyPageID    int64
	PerPage          int
	PerRSS           int
	Stickies         []int64
	PermalinkPattern string
	Clock            func() time.Time
}

func (s *StaticSite) ShowOnFront() string {
	if s.FrontMode == "" {
		return "posts"
	}
	return s.FrontMode
}

func (s *StaticSite) PageOnFront() int64       { return s.FrontPageID }
func (s *StaticSite) PageForPosts() int64      { return s.PostsPageID }
func (s *StaticSite) PrivacyPolicyPage() int64 { return s.PrivacyPageID }

func (s *StaticSite) PostsPerPage() int {
	if s.PerPage == 0 {
		return 10
	}
	return s.PerPage
}

func (s *StaticSite) PostsPerRSS() int {
	if s.PerRSS == 0 {
		return 10
	}
	return s.PerRSS
}

func (s *StaticSite) StickyPosts() []int64 { return s.Stickies }

func (s *StaticSite) PermalinkStructure() string { return s.PermalinkPattern }

func (s *StaticSite) Now() string {
	now := time.Now()
	if s.Clock != nil {
		now = s.Clock()
	}

	return now.Format("2006-01-02 15:04:05")
}

// usesPostnamePermalinks reports a permalink structure whose first dynamic
// tag is the post name, which makes page and post slugs collide.
func usesPostnamePermalinks(structure string) bool {
	idx := strings.Index(structure, "%postname%")
	if idx < 0 {
		return false
	}

	return !strings.Contains(structure[:idx], "%")
}
