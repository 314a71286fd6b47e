// Package badges decodes rows of the badges.csv dump table into typed badge
// kinds.
//
// Each row names a crate, a badge_type tag and a JSON attribute blob. Known
// tags are decoded strictly into their own struct. Unknown tags, and known
// tags whose attributes do not fit the strict shape, become Other with the
// tag and attributes preserved. Only rows that even Other cannot hold fail.
//
// Decoding is pure and safe for concurrent use.
package badges

import (
	"encoding/json"
	"fmt"

	"github.com/UnitVectorY-Labs/cratebadges/internal/crates"
	"github.com/UnitVectorY-Labs/cratebadges/internal/dump"
)

// Table is the dump table name for badge rows.
const Table = "badges"

// Column names of the badges table.
const (
	ColumnCrateID    = "crate_id"
	ColumnBadgeType  = "badge_type"
	ColumnAttributes = "attributes"
)

// Columns lists the exact column set of the badges table.
var Columns = []string{ColumnCrateID, ColumnBadgeType, ColumnAttributes}

// Record is a raw badge row before decoding.
type Record struct {
	CrateID    string
	BadgeType  string
	Attributes string
}

// Fields returns the record's values in Columns order.
func (r Record) Fields() []string {
	return []string{r.CrateID, r.BadgeType, r.Attributes}
}

// Row is one decoded badge row.
type Row struct {
	CrateID crates.ID
	Kind    Kind
}

// FromRecord decodes a raw CSV row. It is a dump.FromRecord.
func FromRecord(headers, fields []string) (Row, error) {
	cols, err := dump.Project(headers, fields, Columns...)
	if err != nil {
		return Row{}, &DecodeError{Code: CodeRawRecord, Err: err}
	}
	return Decode(Record{CrateID: cols[0], BadgeType: cols[1], Attributes: cols[2]})
}

var _ dump.FromRecord[Row] = FromRecord

// Decode turns one raw record into a Row.
func Decode(rec Record) (Row, error) {
	id, err := crates.ParseID(rec.CrateID)
	if err != nil {
		return Row{}, &DecodeError{Code: CodeOwnerKey, Field: ColumnCrateID, Err: err}
	}
	kind, err := DecodeKind(rec.BadgeType, rec.Attributes)
	if err != nil {
		return Row{}, err
	}
	return Row{CrateID: id, Kind: kind}, nil
}

// DecodeKind decodes a tag and attribute blob. A known tag whose strict
// decode fails is handled exactly like an unknown tag.
func DecodeKind(badgeType, attributes string) (Kind, error) {
	if s, ok := lookup(badgeType); ok {
		if kind, ok := decodeStrict(s, attributes); ok {
			return kind, nil
		}
	}

	other, err := decodeOther(badgeType, attributes)
	if err != nil {
		return nil, &DecodeError{Code: CodeAttributes, Field: ColumnAttributes, Err: err}
	}
	return other, nil
}

// Exported is the serialized form of a Row used for re-export.
type Exported struct {
	CrateID    crates.ID         `json:"crate_id" cbor:"crate_id"`
	BadgeType  string            `json:"badge_type" cbor:"badge_type"`
	Attributes map[string]string `json:"attributes" cbor:"attributes"`
}

// Export flattens the row into its tag and canonical attribute map.
func (r Row) Export() Exported {
	return Exported{
		CrateID:    r.CrateID,
		BadgeType:  r.Kind.BadgeType(),
		Attributes: r.Kind.Attributes(),
	}
}

// MarshalJSON encodes the row in its Exported form.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Export())
}

// Record re-encodes the row as a raw record. Decoding the result yields a
// Row equal to r.
func (r Row) Record() (Record, error) {
	blob, err := json.Marshal(r.Kind.Attributes())
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode attributes: %w", err)
	}
	return Record{
		CrateID:    r.CrateID.String(),
		BadgeType:  r.Kind.BadgeType(),
		Attributes: string(blob),
	}, nil
}
