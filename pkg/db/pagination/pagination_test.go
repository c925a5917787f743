package pagination

import (
	"strconv"
	"testing"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2026-01-02T15:04:05Z"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	cursor, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cursor.ID != "42" || cursor.CreatedAt != "2026-01-02T15:04:05Z" {
		t.Fatalf("round trip mismatch: %+v", cursor)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	if _, err := DecodeCursor("!!not base64!!"); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
	if _, err := DecodeCursor("bm90IGpzb24"); err == nil {
		t.Fatalf("expected error for non-json payload")
	}
}

func TestBuildCursorPageInfo(t *testing.T) {
	type row struct{ ID int }
	extract := func(r *row) string { return strconv.Itoa(r.ID) }

	if info := BuildCursorPageInfo[row](nil, 10, extract); info.HasMore || info.NextPageToken != "" {
		t.Fatalf("empty page must have no next token: %+v", info)
	}

	// Fetching limit+1 rows signals another page.
	rows := []*row{{1}, {2}, {3}}
	info := BuildCursorPageInfo(rows, 2, extract)
	if !info.HasMore {
		t.Fatalf("expected has_more with an extra row")
	}
	if info.NextPageToken != "2" {
		t.Fatalf("next token must come from the last kept row, got %q", info.NextPageToken)
	}

	info = BuildCursorPageInfo(rows[:2], 2, extract)
	if info.HasMore {
		t.Fatalf("exact page must not report more")
	}
	if info.NextPageToken != "2" {
		t.Fatalf("unexpected next token %q", info.NextPageToken)
	}
}
