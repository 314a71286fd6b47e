package generator

import (
	"github.com/UnitVectorY-Labs/cratebadges/internal/crates"
	"github.com/UnitVectorY-Labs/cratebadges/internal/keywords"
)

// DashboardViewModel is used for the index page.
type DashboardViewModel struct {
	TotalRows     int
	TotalCrates   int
	ErrorCount    int
	UniqueTypes   int
	ReservedNames int
	Categories    []BadgeCategory
	Statuses      []StatusCount
	TopKeywords   []keywords.Count
	LastUpdated   string
}

// BadgeCategory groups badge types by category.
type BadgeCategory struct {
	Name   string
	Badges []BadgeSummary
}

// BadgeSummary is one badge type with its usage counts.
type BadgeSummary struct {
	BadgeType string
	ID        string
	// Known is false for tags without a strict shape.
	Known  bool
	Rows   int
	Crates int
	// Fallback counts rows of a known tag that were decoded as Other.
	Fallback int
}

// StatusCount is the number of maintenance badges declaring a status.
type StatusCount struct {
	Status string
	Count  int
}

// KindPageViewModel is used for the per badge type pages.
type KindPageViewModel struct {
	// ID is the page file name without extension, unique per badge type.
	ID          string
	BadgeType   string
	Category    string
	Known       bool
	Rows        []KindRow
	LastUpdated string
}

// KindRow is one decoded row shown on a badge type page.
type KindRow struct {
	CrateID    crates.ID
	Fallback   bool
	Keywords   []string
	Attributes []Attribute
}

// Attribute is a name/value pair in display order.
type Attribute struct {
	Name  string
	Value string
}
