package service

import (
	"context"
	"time"

	"github.com/helpinghands/volunteer-dashboard/pkg/querycache"
)

// Query cache invalidation tags. A mutation invalidates every tag covering
// data it changed.
const (
	TagStats      = "stats"
	TagTrends     = "trends"
	TagCategories = "categories"
	TagRoles      = "roles"
)

var (
	dashboardStatsQuery = querycache.Query{
		Name: "dashboard_stats",
		TTL:  60 * time.Second,
		Tags: []string{TagStats},
	}
	monthlyTrendsQuery = querycache.Query{
		Name: "monthly_trends",
		TTL:  60 * time.Second,
		Tags: []string{TagStats, TagTrends},
	}
	activeCategoriesQuery = querycache.Query{
		Name: "active_categories",
		TTL:  300 * time.Second,
		Tags: []string{TagCategories},
	}
	roleDefinitionsQuery = querycache.Query{
		Name: "role_definitions",
		TTL:  300 * time.Second,
		Tags: []string{TagRoles},
	}
)

// TagInvalidator is the write side of the query cache.
type TagInvalidator interface {
	InvalidateTags(ctx context.Context, tags ...string) error
}
