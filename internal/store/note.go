package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/notesapi/internal/database"
	"github.com/dukerupert/notesapi/internal/model"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type NoteStore struct {
	db      DBTX
	dialect database.Dialect
}

// NewNoteStore binds a store to db, normally the transaction of the current session.
func NewNoteStore(db DBTX, dialect database.Dialect) *NoteStore {
	return &NoteStore{db: db, dialect: dialect}
}

func scanNote(scanner interface{ Scan(...any) error }) (*model.Note, error) {
	var n model.Note
	var description sql.NullString

	if err := scanner.Scan(&n.ID, &n.Name, &description); err != nil {
		return nil, err
	}
	if description.Valid {
		n.Description = &description.String
	}
	return &n, nil
}

const noteCols = `id, name, description`

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (s *NoteStore) Create(ctx context.Context, name string, description *string) (*model.Note, error) {
	row := s.db.QueryRowContext(ctx,
		s.dialect.Rebind(`INSERT INTO notes (name, description) VALUES (?, ?) RETURNING `+noteCols),
		name, nullString(description),
	)
	n, err := scanNote(row)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return n, nil
}

// GetByID returns nil, nil when no note has the id.
func (s *NoteStore) GetByID(ctx context.Context, id int64) (*model.Note, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(`SELECT `+noteCols+` FROM notes WHERE id = ?`), id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// List returns every note in insertion order. The result is never nil.
func (s *NoteStore) List(ctx context.Context) ([]model.Note, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+noteCols+` FROM notes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// Update writes only the fields set in patch and returns the stored note,
// or nil, nil when no note has the id.
func (s *NoteStore) Update(ctx context.Context, id int64, patch model.NotePatch) (*model.Note, error) {
	if patch.Empty() {
		return s.GetByID(ctx, id)
	}

	var sets []string
	var args []any
	if patch.Name.Set {
		sets = append(sets, "name = ?")
		args = append(args, nullString(patch.Name.Value))
	}
	if patch.Description.Set {
		sets = append(sets, "description = ?")
		args = append(args, nullString(patch.Description.Value))
	}
	args = append(args, id)

	row := s.db.QueryRowContext(ctx,
		s.dialect.Rebind(`UPDATE notes SET `+strings.Join(sets, ", ")+` WHERE id = ? RETURNING `+noteCols),
		args...,
	)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return n, nil
}

// Delete reports whether a note was removed.
func (s *NoteStore) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM notes WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return count > 0, nil
}
