// Package generator renders a static HTML report of the badge rows in a
// registry dump.
package generator

import (
	"context"
	"encoding/hex"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/UnitVectorY-Labs/cratebadges/internal/badges"
	"github.com/UnitVectorY-Labs/cratebadges/internal/crates"
	"github.com/UnitVectorY-Labs/cratebadges/internal/dump"
	"github.com/UnitVectorY-Labs/cratebadges/internal/keywords"
	"github.com/UnitVectorY-Labs/cratebadges/internal/maintenance"
	"github.com/UnitVectorY-Labs/cratebadges/internal/reserved"
)

const (
	CategoryCI          = "CI"
	CategoryCoverage    = "Coverage"
	CategoryMaintenance = "Maintenance"
	CategoryOther       = "Other"
)

const topKeywordCount = 20

// Options configures a report run.
type Options struct {
	DumpDir   string
	OutputDir string
	// Templates must contain templates/index.html, templates/kind.html and
	// templates/style.css.
	Templates fs.FS
	Workers   int
	Policy    dump.Policy
	Logger    *zap.Logger
}

// Data is everything the report is built from.
type Data struct {
	Rows     []badges.Row
	Errors   int
	Keywords *keywords.Index
	Reserved reserved.Set
}

// Run executes the generation phase.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("starting generation", zap.String("dump", opts.DumpDir), zap.String("output", opts.OutputDir))

	data, err := Load(ctx, opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(opts.OutputDir, "kinds"), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", opts.OutputDir, err)
	}

	tmpl, err := template.ParseFS(opts.Templates, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	lastUpdated := time.Now().UTC().Format("January 2, 2006 15:04 MST")
	dashboard, pages := build(data, lastUpdated)

	if err := renderTemplate(tmpl, filepath.Join(opts.OutputDir, "index.html"), "index.html", dashboard); err != nil {
		return err
	}
	for _, page := range pages {
		path := filepath.Join(opts.OutputDir, "kinds", page.ID+".html")
		if err := renderTemplate(tmpl, path, "kind.html", page); err != nil {
			return err
		}
	}

	if err := copyFile(opts.Templates, "templates/style.css", filepath.Join(opts.OutputDir, "style.css")); err != nil {
		return fmt.Errorf("failed to copy style.css: %w", err)
	}

	logger.Info("generation complete", zap.Int("rows", dashboard.TotalRows), zap.Int("pages", len(pages)))
	return nil
}

// Load decodes the badges table and whichever optional tables exist.
func Load(ctx context.Context, opts Options) (*Data, error) {
	decodeOpts := dump.Options{Workers: opts.Workers, Policy: opts.Policy, Logger: opts.Logger}

	rows, err := decodeTable(ctx, opts.DumpDir, badges.Table, badges.FromRecord, decodeOpts)
	if err != nil {
		return nil, err
	}
	data := &Data{Rows: rows.Rows, Errors: len(rows.Errors)}

	if dump.Exists(opts.DumpDir, keywords.Table) && dump.Exists(opts.DumpDir, keywords.CrateKeywordTable) {
		kws, err := decodeTable(ctx, opts.DumpDir, keywords.Table, keywords.FromRecord, decodeOpts)
		if err != nil {
			return nil, err
		}
		links, err := decodeTable(ctx, opts.DumpDir, keywords.CrateKeywordTable, keywords.CrateKeywordFromRecord, decodeOpts)
		if err != nil {
			return nil, err
		}
		data.Keywords = keywords.NewIndex(kws.Rows, links.Rows)
	}

	if dump.Exists(opts.DumpDir, reserved.Table) {
		names, err := decodeTable(ctx, opts.DumpDir, reserved.Table, reserved.FromRecord, decodeOpts)
		if err != nil {
			return nil, err
		}
		data.Reserved = reserved.NewSet(names.Rows)
	}

	return data, nil
}

func decodeTable[T any](ctx context.Context, dir, name string, from dump.FromRecord[T], opts dump.Options) (*dump.Result[T], error) {
	table, closer, err := dump.Open(dir, name)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	result, err := dump.DecodeAll(ctx, table, from, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", dump.Path(dir, name), err)
	}
	return result, nil
}

type typeInfo struct {
	summary BadgeSummary
	crates  map[crates.ID]bool
	rows    []KindRow
}

func build(data *Data, lastUpdated string) (DashboardViewModel, []KindPageViewModel) {
	vm := DashboardViewModel{
		TotalRows:     len(data.Rows),
		ErrorCount:    data.Errors,
		ReservedNames: len(data.Reserved),
		LastUpdated:   lastUpdated,
	}

	types := make(map[string]*typeInfo)
	statusCounts := make(map[maintenance.Status]int)
	allCrates := make(map[crates.ID]bool)
	var crateIDs []crates.ID

	for _, row := range data.Rows {
		badgeType := row.Kind.BadgeType()
		info, ok := types[badgeType]
		if !ok {
			info = &typeInfo{
				summary: BadgeSummary{BadgeType: badgeType, Known: badges.IsKnown(badgeType)},
				crates:  make(map[crates.ID]bool),
			}
			types[badgeType] = info
		}

		_, fallback := row.Kind.(badges.Other)
		info.summary.Rows++
		if fallback && info.summary.Known {
			info.summary.Fallback++
		}
		info.crates[row.CrateID] = true

		kindRow := KindRow{
			CrateID:    row.CrateID,
			Fallback:   fallback,
			Attributes: sortedAttributes(row.Kind.Attributes()),
		}
		if data.Keywords != nil {
			kindRow.Keywords = data.Keywords.ForCrate(row.CrateID)
		}
		info.rows = append(info.rows, kindRow)

		if m, ok := row.Kind.(badges.Maintenance); ok {
			statusCounts[m.Status]++
		}

		if !allCrates[row.CrateID] {
			allCrates[row.CrateID] = true
			crateIDs = append(crateIDs, row.CrateID)
		}
	}
	vm.TotalCrates = len(allCrates)
	vm.UniqueTypes = len(types)

	for _, status := range maintenance.All() {
		vm.Statuses = append(vm.Statuses, StatusCount{Status: string(status), Count: statusCounts[status]})
	}

	if data.Keywords != nil {
		vm.TopKeywords = data.Keywords.Top(crateIDs, topKeywordCount)
	}

	names := make([]string, 0, len(types))
	for badgeType := range types {
		names = append(names, badgeType)
	}
	ids := pageIDs(names)

	categoryMap := make(map[string][]BadgeSummary)
	var pages []KindPageViewModel
	for badgeType, info := range types {
		info.summary.ID = ids[badgeType]
		info.summary.Crates = len(info.crates)
		category := categoryOf(badgeType)
		categoryMap[category] = append(categoryMap[category], info.summary)

		sort.SliceStable(info.rows, func(i, j int) bool {
			return info.rows[i].CrateID < info.rows[j].CrateID
		})
		pages = append(pages, KindPageViewModel{
			ID:          info.summary.ID,
			BadgeType:   badgeType,
			Category:    category,
			Known:       info.summary.Known,
			Rows:        info.rows,
			LastUpdated: lastUpdated,
		})
	}
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].BadgeType < pages[j].BadgeType
	})

	// Sort categories with Other last, and badges by row count within.
	var categories []string
	for cat := range categoryMap {
		if cat != CategoryOther {
			categories = append(categories, cat)
		}
	}
	sort.Strings(categories)
	if _, ok := categoryMap[CategoryOther]; ok {
		categories = append(categories, CategoryOther)
	}

	for _, cat := range categories {
		summaries := categoryMap[cat]
		sort.Slice(summaries, func(i, j int) bool {
			if summaries[i].Rows != summaries[j].Rows {
				return summaries[i].Rows > summaries[j].Rows
			}
			return summaries[i].BadgeType < summaries[j].BadgeType
		})
		vm.Categories = append(vm.Categories, BadgeCategory{Name: cat, Badges: summaries})
	}

	return vm, pages
}

func categoryOf(badgeType string) string {
	switch badgeType {
	case badges.TypeAppveyor, badges.TypeAzureDevops, badges.TypeBitbucketPipelines,
		badges.TypeCircleCI, badges.TypeCirrusCI, badges.TypeGitLab, badges.TypeTravisCI:
		return CategoryCI
	case badges.TypeCodecov, badges.TypeCoveralls:
		return CategoryCoverage
	case badges.TypeMaintenance, badges.TypeIsItMaintainedIssueResolution, badges.TypeIsItMaintainedOpenIssues:
		return CategoryMaintenance
	}
	return CategoryOther
}

func sortedAttributes(attrs map[string]string) []Attribute {
	out := make([]Attribute, 0, len(attrs))
	for name, value := range attrs {
		out = append(out, Attribute{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

func renderTemplate(tmpl *template.Template, path, name string, data interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()
	if err := tmpl.ExecuteTemplate(file, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return nil
}

func copyFile(fsys fs.FS, src, dst string) error {
	sourceFile, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	return err
}

// pageIDs assigns every badge type a distinct file name. A tag that is
// already in urlized form keeps it; any other tag gets a short hash of the
// tag appended, plus a counter in the unlikely case that still collides.
func pageIDs(badgeTypes []string) map[string]string {
	sorted := append([]string(nil), badgeTypes...)
	sort.Strings(sorted)

	ids := make(map[string]string, len(sorted))
	taken := make(map[string]bool, len(sorted))
	for _, t := range sorted {
		if urlize(t) == t && t != "" {
			ids[t] = t
			taken[t] = true
		}
	}
	for _, t := range sorted {
		if _, ok := ids[t]; ok {
			continue
		}
		sum := blake3.Sum256([]byte(t))
		base := urlize(t) + "-" + hex.EncodeToString(sum[:4])
		id := base
		for n := 2; taken[id]; n++ {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		ids[t] = id
		taken[id] = true
	}
	return ids
}

// urlize turns a badge type into a file name. Tags are free-form, so
// anything outside [a-z0-9-] becomes '-'.
func urlize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, name)
}
