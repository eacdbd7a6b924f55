package analytics

import "testing"

func TestDecodeLabelCursor(t *testing.T) {
	if c, ok := DecodeLabelCursor("2025-11-02", ViewByDay); !ok || c.Label != "2025-11-02" {
		t.Fatalf("expected valid day cursor, got %v %v", c, ok)
	}
	if c, ok := DecodeLabelCursor("2025-11", ViewByMonth); !ok || c.Label != "2025-11" {
		t.Fatalf("expected valid month cursor, got %v %v", c, ok)
	}
}

func TestDecodeLabelCursorGarbageIsAbsent(t *testing.T) {
	cases := []struct {
		raw    string
		viewBy ViewBy
	}{
		{"", ViewByDay},
		{"yesterday", ViewByDay},
		{"2025-11", ViewByDay},         // month label on a day report
		{"2025-11-02", ViewByMonth},    // day label on a month report
		{"2025-11-02|7", ViewByDay},    // wrong arity
		{"2025-13-99x", ViewByDay},     // shape mismatch
	}
	for _, tc := range cases {
		if _, ok := DecodeLabelCursor(tc.raw, tc.viewBy); ok {
			t.Fatalf("cursor %q must decode as absent", tc.raw)
		}
	}
}

func TestLabelCursorRoundTripAndPredicate(t *testing.T) {
	c, ok := DecodeLabelCursor("2025-11-02", ViewByDay)
	if !ok {
		t.Fatal("decode failed")
	}
	if c.Encode() != "2025-11-02" {
		t.Fatalf("round trip mismatch: %s", c.Encode())
	}
	// Labels sort descending, so "after" means strictly smaller.
	if !c.After("2025-11-01") {
		t.Fatal("2025-11-01 sorts after the cursor")
	}
	if c.After("2025-11-02") || c.After("2025-11-03") {
		t.Fatal("rows at or before the cursor must be excluded")
	}
}

func TestDecodeEntityCursor(t *testing.T) {
	c, ok := DecodeEntityCursor("2025-11-02|17", ViewByDay)
	if !ok || c.Label != "2025-11-02" || c.EntityID != 17 {
		t.Fatalf("unexpected cursor %+v ok=%v", c, ok)
	}
	if c.Encode() != "2025-11-02|17" {
		t.Fatalf("round trip mismatch: %s", c.Encode())
	}
}

func TestDecodeEntityCursorGarbageIsAbsent(t *testing.T) {
	for _, raw := range []string{
		"2025-11-02",        // missing id
		"2025-11-02|x",      // non-numeric id
		"2025-11-02|0",      // ids start at 1
		"2025-11-02|-4",     // negative id
		"2025-11-02|1|2",    // wrong arity
		"not-a-date|1",      // bad label
	} {
		if _, ok := DecodeEntityCursor(raw, ViewByDay); ok {
			t.Fatalf("cursor %q must decode as absent", raw)
		}
	}
}

func TestEntityCursorPredicateMirrorsSort(t *testing.T) {
	c := EntityCursor{Label: "2025-11-02", EntityID: 10}
	// Sort is label desc, id asc. Strictly after therefore means an older
	// label, or the same label with a larger id.
	if !c.After("2025-11-01", 1) {
		t.Fatal("older label must qualify")
	}
	if !c.After("2025-11-02", 11) {
		t.Fatal("same label larger id must qualify")
	}
	if c.After("2025-11-02", 10) || c.After("2025-11-02", 9) {
		t.Fatal("same label smaller-or-equal id must not qualify")
	}
	if c.After("2025-11-03", 99) {
		t.Fatal("newer label must not qualify")
	}
}

func TestDecodeTimebandCursor(t *testing.T) {
	c, ok := DecodeTimebandCursor("2025-11|3|14", ViewByMonth)
	if !ok || c.Label != "2025-11" || c.Weekday != 3 || c.Hour != 14 {
		t.Fatalf("unexpected cursor %+v ok=%v", c, ok)
	}
	if c.Encode() != "2025-11|3|14" {
		t.Fatalf("round trip mismatch: %s", c.Encode())
	}
}

func TestDecodeTimebandCursorRangeChecks(t *testing.T) {
	for _, raw := range []string{
		"2025-11|0|14",  // weekday below ISO range
		"2025-11|8|14",  // weekday above ISO range
		"2025-11|3|24",  // hour out of range
		"2025-11|3|-1",  // negative hour
		"2025-11|3",     // wrong arity
		"2025-11|three|14",
	} {
		if _, ok := DecodeTimebandCursor(raw, ViewByMonth); ok {
			t.Fatalf("cursor %q must decode as absent", raw)
		}
	}
}

func TestTimebandCursorPredicateNesting(t *testing.T) {
	c := TimebandCursor{Label: "2025-11-02", Weekday: 3, Hour: 12}
	if !c.After("2025-11-01", 1, 0) {
		t.Fatal("older label qualifies regardless of time")
	}
	if !c.After("2025-11-02", 4, 0) {
		t.Fatal("same label later weekday qualifies")
	}
	if !c.After("2025-11-02", 3, 13) {
		t.Fatal("same label same weekday later hour qualifies")
	}
	if c.After("2025-11-02", 3, 12) || c.After("2025-11-02", 3, 11) || c.After("2025-11-02", 2, 23) {
		t.Fatal("rows at or before the cursor must be excluded")
	}
}

func TestDecodeRowCursor(t *testing.T) {
	if c, ok := DecodeRowCursor("12345"); !ok || c.ID != 12345 {
		t.Fatalf("unexpected cursor %+v ok=%v", c, ok)
	}
	for _, raw := range []string{"", "abc", "0", "-1", "1|2"} {
		if _, ok := DecodeRowCursor(raw); ok {
			t.Fatalf("cursor %q must decode as absent", raw)
		}
	}
	c := RowCursor{ID: 100}
	if !c.After(99) || c.After(100) || c.After(101) {
		t.Fatal("row predicate must mirror id-descending order")
	}
}

func TestBuildPageTrimsAndSetsNextCursor(t *testing.T) {
	rows := []SalesEntry{
		{SalesRow: SalesRow{Label: "2025-11-03"}},
		{SalesRow: SalesRow{Label: "2025-11-02"}},
		{SalesRow: SalesRow{Label: "2025-11-01"}},
	}
	encode := func(e SalesEntry) string { return e.Label }

	page := BuildPage(rows, 2, encode)
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items got %d", len(page.Items))
	}
	if page.NextCursor == nil || *page.NextCursor != "2025-11-02" {
		t.Fatalf("next cursor must come from the last returned row, got %v", page.NextCursor)
	}

	page = BuildPage(rows, 3, encode)
	if page.NextCursor != nil {
		t.Fatalf("exactly size rows means no further page, got %v", *page.NextCursor)
	}

	page = BuildPage(nil, 2, encode)
	if page.Items == nil || len(page.Items) != 0 || page.NextCursor != nil {
		t.Fatalf("empty input must yield empty items and no cursor: %+v", page)
	}
}
