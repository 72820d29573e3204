package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/dukerupert/notesapi/internal/config"
	"github.com/dukerupert/notesapi/internal/database"
	"github.com/dukerupert/notesapi/internal/model"
)

func setupNoteTestDB(t *testing.T) *NoteStore {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewNoteStore(db, db.Dialect)
}

func strPtr(s string) *string { return &s }

func TestNoteCRUD(t *testing.T) {
	ns := setupNoteTestDB(t)
	runNoteCRUD(t, ns)
}

// TestNoteCRUDPostgres runs the same lifecycle against a real PostgreSQL
// server when NOTES_TEST_POSTGRES_URL points at one.
func TestNoteCRUDPostgres(t *testing.T) {
	url := os.Getenv("NOTES_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("NOTES_TEST_POSTGRES_URL not set")
	}
	db, err := database.Open(context.Background(), config.DBConfig{
		Driver:       config.DriverPostgres,
		URL:          url,
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// keep the lifecycle inside a transaction so the shared database stays clean
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	t.Cleanup(func() { tx.Rollback() })

	runNoteCRUD(t, NewNoteStore(tx, db.Dialect))
}

func runNoteCRUD(t *testing.T, ns *NoteStore) {
	t.Helper()
	ctx := context.Background()

	// Create
	note, err := ns.Create(ctx, "Groceries", strPtr("milk, eggs"))
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	if note.ID == 0 {
		t.Error("expected generated id")
	}
	if note.Name != "Groceries" {
		t.Errorf("name = %q, want %q", note.Name, "Groceries")
	}
	if note.Description == nil || *note.Description != "milk, eggs" {
		t.Errorf("description = %v, want %q", note.Description, "milk, eggs")
	}

	// Get by ID
	got, err := ns.GetByID(ctx, note.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if got == nil {
		t.Fatal("expected note, got nil")
	}
	if got.Name != "Groceries" {
		t.Errorf("name = %q, want %q", got.Name, "Groceries")
	}

	// Update both fields
	updated, err := ns.Update(ctx, note.ID, model.NotePatch{
		Name:        model.Some("Shopping"),
		Description: model.Some("bread"),
	})
	if err != nil {
		t.Fatalf("update note: %v", err)
	}
	if updated == nil {
		t.Fatal("expected updated note, got nil")
	}
	if updated.ID != note.ID {
		t.Errorf("id = %d, want %d", updated.ID, note.ID)
	}
	if updated.Name != "Shopping" {
		t.Errorf("name = %q, want %q", updated.Name, "Shopping")
	}
	if updated.Description == nil || *updated.Description != "bread" {
		t.Errorf("description = %v, want %q", updated.Description, "bread")
	}

	// Delete
	deleted, err := ns.Delete(ctx, note.ID)
	if err != nil {
		t.Fatalf("delete note: %v", err)
	}
	if !deleted {
		t.Error("expected delete to report a removed row")
	}
	got, err = ns.GetByID(ctx, note.ID)
	if err != nil {
		t.Fatalf("get deleted note: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestNoteCreateWithoutDescription(t *testing.T) {
	ns := setupNoteTestDB(t)

	note, err := ns.Create(context.Background(), "Bare", nil)
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	if note.Description != nil {
		t.Errorf("description = %q, want nil", *note.Description)
	}
}

func TestNoteNotFound(t *testing.T) {
	ns := setupNoteTestDB(t)
	ctx := context.Background()

	got, err := ns.GetByID(ctx, 999)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if got != nil {
		t.Error("expected nil for non-existent note")
	}

	updated, err := ns.Update(ctx, 999, model.NotePatch{Name: model.Some("x")})
	if err != nil {
		t.Fatalf("update note: %v", err)
	}
	if updated != nil {
		t.Error("expected nil update for non-existent note")
	}

	updated, err = ns.Update(ctx, 999, model.NotePatch{})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if updated != nil {
		t.Error("expected nil empty update for non-existent note")
	}

	deleted, err := ns.Delete(ctx, 999)
	if err != nil {
		t.Fatalf("delete note: %v", err)
	}
	if deleted {
		t.Error("expected delete of non-existent note to report false")
	}
}

func TestNoteListInsertionOrder(t *testing.T) {
	ns := setupNoteTestDB(t)
	ctx := context.Background()

	empty, err := ns.List(ctx)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}

	names := []string{"first", "second", "third"}
	for _, name := range names {
		if _, err := ns.Create(ctx, name, nil); err != nil {
			t.Fatalf("create %q: %v", name, err)
		}
	}

	notes, err := ns.List(ctx)
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != len(names) {
		t.Fatalf("got %d notes, want %d", len(notes), len(names))
	}
	for i, want := range names {
		if notes[i].Name != want {
			t.Errorf("notes[%d].name = %q, want %q", i, notes[i].Name, want)
		}
	}
}

func TestNotePartialUpdate(t *testing.T) {
	ns := setupNoteTestDB(t)
	ctx := context.Background()

	note, _ := ns.Create(ctx, "Keep me", strPtr("old"))

	// description only
	updated, err := ns.Update(ctx, note.ID, model.NotePatch{Description: model.Some("new")})
	if err != nil {
		t.Fatalf("update description: %v", err)
	}
	if updated.Name != "Keep me" {
		t.Errorf("name = %q, want unchanged %q", updated.Name, "Keep me")
	}
	if updated.Description == nil || *updated.Description != "new" {
		t.Errorf("description = %v, want %q", updated.Description, "new")
	}

	// name only
	updated, err = ns.Update(ctx, note.ID, model.NotePatch{Name: model.Some("Renamed")})
	if err != nil {
		t.Fatalf("update name: %v", err)
	}
	if updated.Description == nil || *updated.Description != "new" {
		t.Errorf("description = %v, want unchanged %q", updated.Description, "new")
	}

	// explicit null clears description
	updated, err = ns.Update(ctx, note.ID, model.NotePatch{Description: model.Null()})
	if err != nil {
		t.Fatalf("clear description: %v", err)
	}
	if updated.Description != nil {
		t.Errorf("description = %q, want nil", *updated.Description)
	}
	if updated.Name != "Renamed" {
		t.Errorf("name = %q, want %q", updated.Name, "Renamed")
	}

	// empty patch is a read
	same, err := ns.Update(ctx, note.ID, model.NotePatch{})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if same.Name != "Renamed" || same.Description != nil {
		t.Errorf("empty update changed note: %+v", same)
	}
}

func TestNoteNullNameRejected(t *testing.T) {
	ns := setupNoteTestDB(t)
	ctx := context.Background()

	note, _ := ns.Create(ctx, "Named", nil)

	_, err := ns.Update(ctx, note.ID, model.NotePatch{Name: model.Null()})
	if err == nil {
		t.Fatal("expected NOT NULL violation")
	}
	if !database.IsConstraintViolation(err) {
		t.Errorf("expected constraint violation, got %v", err)
	}
}

func TestNoteIDsNotReused(t *testing.T) {
	ns := setupNoteTestDB(t)
	ctx := context.Background()

	first, _ := ns.Create(ctx, "one", nil)
	second, _ := ns.Create(ctx, "two", nil)
	if _, err := ns.Delete(ctx, second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	third, err := ns.Create(ctx, "three", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if third.ID <= second.ID {
		t.Errorf("id %d reused or went backwards (first %d, deleted %d)", third.ID, first.ID, second.ID)
	}
}

func TestNoteStoreInsideRolledBackTx(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	err = db.Session(ctx, func(tx *sql.Tx) error {
		if _, err := NewNoteStore(tx, db.Dialect).Create(ctx, "ghost", nil); err != nil {
			return err
		}
		return sql.ErrTxDone
	})
	if err == nil {
		t.Fatal("expected session error")
	}

	notes, err := NewNoteStore(db, db.Dialect).List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("got %d notes after rollback, want 0", len(notes))
	}
}
