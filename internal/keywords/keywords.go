// Package keywords decodes the keywords and crates_keywords dump tables.
package keywords

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/UnitVectorY-Labs/cratebadges/internal/crates"
	"github.com/UnitVectorY-Labs/cratebadges/internal/dump"
)

// Table names.
const (
	Table             = "keywords"
	CrateKeywordTable = "crates_keywords"
)

// ID is the primary key of keywords.csv.
type ID uint32

// ParseID parses a decimal keyword key.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid keyword id %q: %w", s, err)
	}
	return ID(n), nil
}

// Row is one row of keywords.csv.
type Row struct {
	ID          ID
	Keyword     string
	CratesCount uint32
	CreatedAt   time.Time
}

// FromRecord decodes a keywords.csv row.
func FromRecord(headers, fields []string) (Row, error) {
	cols, err := dump.Project(headers, fields, "id", "keyword", "crates_cnt", "created_at")
	if err != nil {
		return Row{}, err
	}
	id, err := ParseID(cols[0])
	if err != nil {
		return Row{}, err
	}
	count, err := strconv.ParseUint(cols[2], 10, 32)
	if err != nil {
		return Row{}, fmt.Errorf("invalid crates_cnt %q: %w", cols[2], err)
	}
	created, err := dump.ParseTime(cols[3])
	if err != nil {
		return Row{}, err
	}
	return Row{ID: id, Keyword: cols[1], CratesCount: uint32(count), CreatedAt: created}, nil
}

// CrateKeyword is one row of crates_keywords.csv.
type CrateKeyword struct {
	CrateID   crates.ID
	KeywordID ID
}

// CrateKeywordFromRecord decodes a crates_keywords.csv row.
func CrateKeywordFromRecord(headers, fields []string) (CrateKeyword, error) {
	cols, err := dump.Project(headers, fields, "crate_id", "keyword_id")
	if err != nil {
		return CrateKeyword{}, err
	}
	crateID, err := crates.ParseID(cols[0])
	if err != nil {
		return CrateKeyword{}, err
	}
	keywordID, err := ParseID(cols[1])
	if err != nil {
		return CrateKeyword{}, err
	}
	return CrateKeyword{CrateID: crateID, KeywordID: keywordID}, nil
}

// Index joins keywords to the crates that use them.
type Index struct {
	keywords map[ID]Row
	byCrate  map[crates.ID][]ID
}

// NewIndex builds an index. Links to unknown keyword ids are kept out of
// the per-crate lists.
func NewIndex(rows []Row, links []CrateKeyword) *Index {
	idx := &Index{
		keywords: make(map[ID]Row, len(rows)),
		byCrate:  make(map[crates.ID][]ID),
	}
	for _, row := range rows {
		idx.keywords[row.ID] = row
	}
	for _, link := range links {
		if _, ok := idx.keywords[link.KeywordID]; !ok {
			continue
		}
		idx.byCrate[link.CrateID] = append(idx.byCrate[link.CrateID], link.KeywordID)
	}
	return idx
}

func (idx *Index) keyword(id ID) (Row, bool) {
	row, ok := idx.keywords[id]
	return row, ok
}

// ForCrate returns the keyword strings of a crate in sorted order.
func (idx *Index) ForCrate(id crates.ID) []string {
	var out []string
	for _, kid := range idx.byCrate[id] {
		if row, ok := idx.keyword(kid); ok {
			out = append(out, row.Keyword)
		}
	}
	sort.Strings(out)
	return out
}

// Count is a keyword with the number of crates it was counted for.
type Count struct {
	Keyword string
	Crates  int
}

// Top counts keywords across the given crates and returns the n most
// frequent, ties broken alphabetically. Each crate counts once per keyword.
func (idx *Index) Top(ids []crates.ID, n int) []Count {
	seen := make(map[crates.ID]bool, len(ids))
	counts := make(map[string]int)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		for _, kw := range idx.ForCrate(id) {
			counts[kw]++
		}
	}

	out := make([]Count, 0, len(counts))
	for kw, c := range counts {
		out = append(out, Count{Keyword: kw, Crates: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Crates != out[j].Crates {
			return out[i].Crates > out[j].Crates
		}
		return out[i].Keyword < out[j].Keyword
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
