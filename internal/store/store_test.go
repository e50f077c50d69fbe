package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "rock.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestInsertAndGet(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	journal := st.Table("journal")

	first, err := journal.Insert(ctx, Document{"week_num": 1, "day_num": 1, "done": false})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	second, err := journal.Insert(ctx, Document{"week_num": 1, "day_num": 2, "done": false})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if second <= first {
		t.Fatalf("expected increasing ids, got %d then %d", first, second)
	}

	doc, ok, err := journal.Get(ctx, second)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if doc["day_num"] != float64(2) {
		t.Fatalf("unexpected day_num %v", doc["day_num"])
	}

	if _, ok, err := journal.Get(ctx, 999); err != nil || ok {
		t.Fatalf("expected absent document, ok=%v err=%v", ok, err)
	}
}

func TestUpsertMergesFields(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	sessions := st.Table("sessions")

	id, err := sessions.Insert(ctx, Document{"started_at": "2026-01-01T10:00:00Z", "duration": nil, "done": false})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := sessions.Upsert(ctx, Document{"done": true, "duration": 301.5}, id); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	doc, _, err := sessions.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc["started_at"] != "2026-01-01T10:00:00Z" {
		t.Fatalf("expected untouched started_at, got %v", doc["started_at"])
	}
	if doc["done"] != true || doc["duration"] != 301.5 {
		t.Fatalf("unexpected merged doc %+v", doc)
	}
}

func TestUpsertCreatesAtID(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	status := st.Table("status")

	if err := status.Upsert(ctx, Document{"d_id": 7}, 1); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	doc, ok, err := status.Get(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if doc["d_id"] != float64(7) {
		t.Fatalf("unexpected pointer %v", doc["d_id"])
	}
}

func TestSearchByFieldInInsertionOrder(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	journal := st.Table("journal")

	for _, doc := range []Document{
		{"week_num": 1, "day_num": 1, "done": true},
		{"week_num": 2, "day_num": 1, "done": false},
		{"week_num": 1, "day_num": 2, "done": false},
	} {
		if _, err := journal.Insert(ctx, doc); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	week1, err := journal.Search(ctx, "week_num", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(week1) != 2 {
		t.Fatalf("expected 2 week-1 days, got %d", len(week1))
	}
	if week1[0].ID >= week1[1].ID {
		t.Fatalf("expected insertion order, got %d then %d", week1[0].ID, week1[1].ID)
	}

	done, err := journal.Search(ctx, "done", true)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(done) != 1 || done[0].Doc["day_num"] != float64(1) {
		t.Fatalf("unexpected done search result %+v", done)
	}
}

func TestDropTablesResetsIDs(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, err := st.Table("journal").Insert(ctx, Document{"day_num": 1}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := st.Table("journal").Insert(ctx, Document{"day_num": 2}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := st.DropTables(ctx); err != nil {
		t.Fatalf("drop tables: %v", err)
	}
	records, err := st.Table("journal").Search(ctx, "day_num", 2)
	if err != nil {
		t.Fatalf("search after drop: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty table after drop, got %d", len(records))
	}
	id, err := st.Table("journal").Insert(ctx, Document{"day_num": 1})
	if err != nil {
		t.Fatalf("insert after drop: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected ids to restart at 1, got %d", id)
	}
}

func TestInvalidTableName(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.Table("bad name;").Insert(context.Background(), Document{}); err == nil {
		t.Fatalf("expected invalid table name error")
	}
}

func TestEncodeDecodeStruct(t *testing.T) {
	type day struct {
		WeekNum  int     `json:"week_num"`
		Sessions []int64 `json:"sessions"`
	}
	doc, err := Encode(day{WeekNum: 3, Sessions: []int64{4, 5}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out day
	if err := Decode(doc, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.WeekNum != 3 || len(out.Sessions) != 2 || out.Sessions[1] != 5 {
		t.Fatalf("unexpected decoded struct %+v", out)
	}
}
