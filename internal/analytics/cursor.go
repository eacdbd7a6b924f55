package analytics

import (
	"regexp"
	"strconv"
	"strings"
)

// Cursors are opaque pipe-delimited composite keys whose components are laid
// out in the report's sort order. Every decode is resilient to client
// garbage: a cursor that fails to parse is treated as absent, which serves
// the first page. The "strictly after" predicates here must mirror the SQL
// ORDER BY exactly (label desc, then secondary keys asc) or paging would skip
// or repeat group rows.

var (
	dayLabelRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	monthLabelRe = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

func validLabel(label string, viewBy ViewBy) bool {
	if viewBy == ViewByMonth {
		return monthLabelRe.MatchString(label)
	}
	return dayLabelRe.MatchString(label)
}

// LabelCursor addresses date-only reports sorted by label descending.
type LabelCursor struct {
	Label string
}

// DecodeLabelCursor parses a bare day or month label. ok is false for any
// malformed input.
func DecodeLabelCursor(raw string, viewBy ViewBy) (LabelCursor, bool) {
	if raw == "" || !validLabel(raw, viewBy) {
		return LabelCursor{}, false
	}
	return LabelCursor{Label: raw}, true
}

// Encode renders the cursor back to its opaque form.
func (c LabelCursor) Encode() string { return c.Label }

// After reports whether a row label sorts strictly after the cursor under
// label-descending order.
func (c LabelCursor) After(label string) bool { return label < c.Label }

// EntityCursor addresses (label, entity) reports sorted label desc, id asc.
type EntityCursor struct {
	Label    string
	EntityID int64
}

// DecodeEntityCursor parses "label|entityID".
func DecodeEntityCursor(raw string, viewBy ViewBy) (EntityCursor, bool) {
	parts := strings.Split(raw, "|")
	if len(parts) != 2 || !validLabel(parts[0], viewBy) {
		return EntityCursor{}, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return EntityCursor{}, false
	}
	return EntityCursor{Label: parts[0], EntityID: id}, true
}

func (c EntityCursor) Encode() string {
	return c.Label + "|" + strconv.FormatInt(c.EntityID, 10)
}

// After implements the two-column keyset predicate:
// label < cLabel OR (label = cLabel AND id > cID).
func (c EntityCursor) After(label string, entityID int64) bool {
	if label != c.Label {
		return label < c.Label
	}
	return entityID > c.EntityID
}

// TimebandCursor addresses (label, weekday, hour) reports sorted label desc,
// weekday asc, hour asc. Weekday is ISO numbered 1..7.
type TimebandCursor struct {
	Label   string
	Weekday int
	Hour    int
}

// DecodeTimebandCursor parses "label|weekday|hour" with range checks on both
// numeric components.
func DecodeTimebandCursor(raw string, viewBy ViewBy) (TimebandCursor, bool) {
	parts := strings.Split(raw, "|")
	if len(parts) != 3 || !validLabel(parts[0], viewBy) {
		return TimebandCursor{}, false
	}
	weekday, err := strconv.Atoi(parts[1])
	if err != nil || weekday < 1 || weekday > 7 {
		return TimebandCursor{}, false
	}
	hour, err := strconv.Atoi(parts[2])
	if err != nil || hour < 0 || hour > 23 {
		return TimebandCursor{}, false
	}
	return TimebandCursor{Label: parts[0], Weekday: weekday, Hour: hour}, true
}

func (c TimebandCursor) Encode() string {
	return c.Label + "|" + strconv.Itoa(c.Weekday) + "|" + strconv.Itoa(c.Hour)
}

// After nests the keyset comparison across all three sort columns.
func (c TimebandCursor) After(label string, weekday, hour int) bool {
	if label != c.Label {
		return label < c.Label
	}
	if weekday != c.Weekday {
		return weekday > c.Weekday
	}
	return hour > c.Hour
}

// RowCursor addresses the raw per-order listing, keyed on the last row id
// under id-descending order.
type RowCursor struct {
	ID int64
}

// DecodeRowCursor parses a bare integer row id.
func DecodeRowCursor(raw string) (RowCursor, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return RowCursor{}, false
	}
	return RowCursor{ID: id}, true
}

func (c RowCursor) Encode() string { return strconv.FormatInt(c.ID, 10) }

// After reports whether a row id sorts strictly after the cursor.
func (c RowCursor) After(id int64) bool { return id < c.ID }
