package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/goliatone/go-formbuilder/pkg/builder"
	"github.com/goliatone/go-formbuilder/pkg/fieldtypes"
	"github.com/goliatone/go-formbuilder/pkg/inspector"
	"github.com/goliatone/go-formbuilder/pkg/operations"
	"github.com/goliatone/go-formbuilder/pkg/registry"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
	"github.com/goliatone/go-formbuilder/pkg/session"
)

type sessionResponse struct {
	ID          string                 `json:"id"`
	SchemaID    string                 `json:"schemaId,omitempty"`
	Name        string                 `json:"name"`
	Version     string                 `json:"version,omitempty"`
	Description string                 `json:"description,omitempty"`
	Dirty       bool                   `json:"dirty"`
	Revision    uint64                 `json:"revision"`
	Selected    string                 `json:"selected,omitempty"`
	Schema      schemadoc.Schema       `json:"schema"`
	UISchema    schemadoc.UISchema     `json:"uiSchema"`
	Fields      []operations.FieldInfo `json:"fields"`
}

func newSessionResponse(sess *session.Session) sessionResponse {
	record := sess.Record()
	b := sess.Builder()
	doc := b.Document()
	fields := b.Fields()
	if fields == nil {
		fields = []operations.FieldInfo{}
	}
	return sessionResponse{
		ID:          record.ID,
		SchemaID:    record.SchemaID,
		Name:        record.Name,
		Version:     record.Version,
		Description: record.Description,
		Dirty:       sess.Dirty(),
		Revision:    b.Revision(),
		Selected:    b.Selected(),
		Schema:      doc.Schema,
		UISchema:    doc.UI,
		Fields:      fields,
	}
}

type sessionSummary struct {
	ID        string     `json:"id"`
	SchemaID  string     `json:"schemaId,omitempty"`
	Name      string     `json:"name"`
	Version   string     `json:"version,omitempty"`
	Open      bool       `json:"open"`
	Dirty     bool       `json:"dirty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func (s *Server) listFieldTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"fieldTypes": s.cfg.Engine.FieldTypes().All()})
}

type createSessionRequest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
	UISchema    json.RawMessage `json:"uiSchema"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Version != "" && !registry.ValidVersion(req.Version) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid version: "+req.Version)
		return
	}

	e := s.sessions.create(session.Record{
		Name:        strings.TrimSpace(req.Name),
		Version:     req.Version,
		Description: req.Description,
		Schema:      documentString(req.Schema),
		UISchema:    documentString(req.UISchema),
	})
	e.mu.Lock()
	defer e.mu.Unlock()
	writeJSON(w, http.StatusCreated, newSessionResponse(e.session))
}

// documentString accepts a document either as a JSON object or as a JSON
// string holding the serialised document.
func documentString(raw json.RawMessage) string {
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		return encoded
	}
	return string(raw)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	seen := make(map[string]bool)
	out := []sessionSummary{}
	for _, e := range s.sessions.snapshot() {
		e.mu.Lock()
		record := e.session.Record()
		summary := sessionSummary{
			ID:       record.ID,
			SchemaID: record.SchemaID,
			Name:     record.Name,
			Version:  record.Version,
			Open:     true,
			Dirty:    e.session.Dirty(),
		}
		e.mu.Unlock()
		if !record.UpdatedAt.IsZero() {
			at := record.UpdatedAt
			summary.UpdatedAt = &at
		}
		seen[record.ID] = true
		out = append(out, summary)
	}

	records, err := s.cfg.Store.List(r.Context())
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	for _, record := range records {
		if seen[record.ID] {
			continue
		}
		at := record.UpdatedAt
		out = append(out, sessionSummary{
			ID:        record.ID,
			SchemaID:  record.SchemaID,
			Name:      record.Name,
			Version:   record.Version,
			UpdatedAt: &at,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

type updateSessionRequest struct {
	Name        *string `json:"name"`
	Version     *string `json:"version"`
	Description *string `json:"description"`
}

func (s *Server) updateSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req updateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Version != nil && !registry.ValidVersion(*req.Version) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid version: "+*req.Version)
		return
	}
	if req.Name != nil && !sess.SetName(strings.TrimSpace(*req.Name)) {
		writeError(w, http.StatusConflict, "CONFLICT", "published resources cannot be renamed")
		return
	}
	if req.Version != nil && !sess.SetVersion(*req.Version) {
		writeError(w, http.StatusConflict, "CONFLICT", "published resources are versioned on publish")
		return
	}
	if req.Description != nil {
		sess.SetDescription(*req.Description)
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

// deleteSession closes the session and removes its draft.
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	wasOpen := s.sessions.close(id)
	err := s.cfg.Store.Delete(r.Context(), id)
	if err != nil && !(wasOpen && errors.Is(err, session.ErrNotFound)) {
		errorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// patchDocument applies an RFC 7386 merge patch over
// {"schema": ..., "uiSchema": ...}.
func (s *Server) patchDocument(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	defer r.Body.Close()
	patch, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if err := sess.Apply(patch); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) getChanges(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	patch, err := sess.Changes()
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	writeRaw(w, http.StatusOK, "application/merge-patch+json", patch)
}

func (s *Server) revert(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Revert()
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) save(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	record, err := sess.Save(r.Context(), s.cfg.Store)
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type publishRequest struct {
	Increment string `json:"increment"`
}

func (s *Server) publish(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if s.cfg.Publisher == nil {
		writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "publishing is not configured")
		return
	}
	var req publishRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	increment, err := session.ParseIncrement(req.Increment)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if strings.TrimSpace(sess.Record().Name) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "name is required to publish")
		return
	}

	record, err := sess.Publish(r.Context(), s.cfg.Publisher, increment)
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	if err := s.cfg.Store.Put(r.Context(), record); err != nil {
		errorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type dragRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type dragResponse struct {
	Dragged builder.DragItem `json:"dragged"`
	Label   string           `json:"label"`
}

// drag starts a drag. Palette items are addressed by field type, canvas
// items by field name.
func (s *Server) drag(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req dragRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	id := req.ID
	if req.Kind == "palette" {
		id = builder.PaletteID(fieldtypes.FieldType(req.ID))
	}

	b := sess.Builder()
	b.DragStart(id)
	item, ok := b.Dragged()
	if !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown drag item: "+req.ID)
		return
	}
	writeJSON(w, http.StatusOK, dragResponse{Dragged: item, Label: b.DraggedLabel()})
}

func (s *Server) cancelDrag(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Builder().DragCancel()
	w.WriteHeader(http.StatusNoContent)
}

type dropRequest struct {
	Over string `json:"over"`
}

func (s *Server) drop(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req dropRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	changed := sess.Builder().Drop(req.Over)
	writeJSON(w, http.StatusOK, map[string]any{
		"changed": changed,
		"session": newSessionResponse(sess),
	})
}

type selectRequest struct {
	Field string `json:"field"`
}

func (s *Server) selectField(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	b := sess.Builder()
	if req.Field == "" {
		b.ClearSelection()
	} else {
		if !b.Document().Schema.Properties.Has(req.Field) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "field not found: "+req.Field)
			return
		}
		b.Select(req.Field)
	}
	writeJSON(w, http.StatusOK, map[string]string{"selected": b.Selected()})
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (s *Server) reorder(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	b := sess.Builder()
	b.ReorderFields(req.From, req.To)
	writeJSON(w, http.StatusOK, map[string]any{"order": b.Document().UI.Order})
}

func (s *Server) getInspector(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	view, ok := sess.Inspector().View()
	if !ok {
		writeError(w, http.StatusNotFound, "NO_SELECTION", "no field is selected")
		return
	}
	writeJSON(w, http.StatusOK, inspectorResponse{View: view, Widgets: inspector.WidgetChoices()})
}

type inspectorResponse struct {
	inspector.View
	Widgets []inspector.WidgetChoice `json:"widgets"`
}
