package tracker

import (
	"context"

	"github.com/verte-zerg/rock/internal/store"
)

type sqliteJournal struct {
	st *store.Store
}

// SQLiteJournal exposes a sqlite document store as a JournalStore.
func SQLiteJournal(st *store.Store) JournalStore {
	return sqliteJournal{st: st}
}

func (j sqliteJournal) Table(name string) Table {
	return j.st.Table(name)
}

func (j sqliteJournal) DropTables(ctx context.Context) error {
	return j.st.DropTables(ctx)
}
