package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/notesapi/internal/database"
	"github.com/dukerupert/notesapi/internal/model"
	"github.com/dukerupert/notesapi/internal/store"
	"github.com/dukerupert/notesapi/internal/websocket"
)

var errNoteNotFound = errors.New("note not found")

type NoteHandler struct {
	db     *database.DB
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewNoteHandler(db *database.DB, hub *websocket.Hub, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{db: db, hub: hub, logger: logger}
}

func (h *NoteHandler) broadcast(action string, id int64, note *model.Note) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.NoteMessage(action, id, note))
	}
}

func (h *NoteHandler) notes(tx *sql.Tx) *store.NoteStore {
	return store.NewNoteStore(tx, h.db.Dialect)
}

// noteRequest is the body of POST and PUT. Presence is tracked per field so
// PUT can apply partial updates.
type noteRequest struct {
	Name        model.OptionalString `json:"name"`
	Description model.OptionalString `json:"description"`
}

// validate checks field values; requireName is set for create.
func (req noteRequest) validate(requireName bool) string {
	if !req.Name.Set {
		if requireName {
			return "name is required"
		}
		return ""
	}
	if req.Name.Value == nil || *req.Name.Value == "" {
		return "name must be a non-empty string"
	}
	return ""
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(true); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	h.logger.Info("creating note", "name", *req.Name.Value)

	var note *model.Note
	err := h.db.Session(r.Context(), func(tx *sql.Tx) error {
		var err error
		note, err = h.notes(tx).Create(r.Context(), *req.Name.Value, req.Description.Value)
		return err
	})
	if err != nil {
		h.logger.Error("create note", "error", err)
		writeError(w, http.StatusBadRequest, "failed to create note")
		return
	}

	h.logger.Info("note created", "id", note.ID)
	h.broadcast(websocket.ActionCreated, note.ID, note)

	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	var notes []model.Note
	err := h.db.Session(r.Context(), func(tx *sql.Tx) error {
		var err error
		notes, err = h.notes(tx).List(r.Context())
		return err
	})
	if err != nil {
		h.logger.Error("list notes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}

	h.logger.Debug("listed notes", "count", len(notes))
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var note *model.Note
	err = h.db.Session(r.Context(), func(tx *sql.Tx) error {
		var err error
		note, err = h.notes(tx).GetByID(r.Context(), id)
		return err
	})
	if err != nil {
		h.logger.Error("get note", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get note")
		return
	}
	if note == nil {
		h.logger.Warn("note not found", "id", id)
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(false); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	h.logger.Info("updating note", "id", id, "name_set", req.Name.Set, "description_set", req.Description.Set)

	var note *model.Note
	err = h.db.Session(r.Context(), func(tx *sql.Tx) error {
		notes := h.notes(tx)
		existing, err := notes.GetByID(r.Context(), id)
		if err != nil {
			return err
		}
		if existing == nil {
			return errNoteNotFound
		}
		note, err = notes.Update(r.Context(), id, model.NotePatch{
			Name:        req.Name,
			Description: req.Description,
		})
		if err != nil {
			return err
		}
		if note == nil {
			return errNoteNotFound
		}
		return nil
	})
	switch {
	case errors.Is(err, errNoteNotFound):
		h.logger.Warn("note not found for update", "id", id)
		writeError(w, http.StatusNotFound, "note not found")
		return
	case database.IsConstraintViolation(err):
		h.logger.Warn("update note rejected", "id", id, "error", err)
		writeError(w, http.StatusBadRequest, "note rejected by storage")
		return
	case err != nil:
		h.logger.Error("update note", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update note")
		return
	}

	h.logger.Info("note updated", "id", id)
	h.broadcast(websocket.ActionUpdated, id, note)

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	h.logger.Info("deleting note", "id", id)

	err = h.db.Session(r.Context(), func(tx *sql.Tx) error {
		notes := h.notes(tx)
		existing, err := notes.GetByID(r.Context(), id)
		if err != nil {
			return err
		}
		if existing == nil {
			return errNoteNotFound
		}
		deleted, err := notes.Delete(r.Context(), id)
		if err != nil {
			return err
		}
		if !deleted {
			return errNoteNotFound
		}
		return nil
	})
	switch {
	case errors.Is(err, errNoteNotFound):
		h.logger.Warn("note not found for deletion", "id", id)
		writeError(w, http.StatusNotFound, "note not found")
		return
	case err != nil:
		h.logger.Error("delete note", "id", id, "error", err)
		writeError(w, http.StatusBadRequest, "failed to delete note")
		return
	}

	h.logger.Info("note deleted", "id", id)
	h.broadcast(websocket.ActionDeleted, id, nil)

	w.WriteHeader(http.StatusNoContent)
}
