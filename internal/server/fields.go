package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formbuilder/pkg/fieldtypes"
	"github.com/goliatone/go-formbuilder/pkg/operations"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
	"github.com/goliatone/go-formbuilder/pkg/session"
)

type fieldResponse struct {
	operations.FieldInfo
	Schema    schemadoc.FieldSchema      `json:"schema"`
	UISchema  *schemadoc.FieldUISchema   `json:"uiSchema,omitempty"`
	Condition *operations.FieldCondition `json:"condition,omitempty"`
}

// lookupField writes a 404 and returns false when name is not a field of
// the session document.
func lookupField(w http.ResponseWriter, r *http.Request, sess *session.Session) (string, bool) {
	name := chi.URLParam(r, "name")
	if !sess.Document().Schema.Properties.Has(name) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "field not found: "+name)
		return "", false
	}
	return name, true
}

func newFieldResponse(sess *session.Session, name string) (fieldResponse, bool) {
	doc := sess.Document()
	info, ok := sess.Engine().FieldInfo(doc, name)
	if !ok {
		return fieldResponse{}, false
	}
	field, _ := doc.Schema.Field(name)
	out := fieldResponse{FieldInfo: info, Schema: field}
	if entry, ok := doc.UI.Field(name); ok {
		out.UISchema = &entry
	}
	if cond, ok := sess.Engine().FieldCondition(doc.Schema, name); ok {
		out.Condition = &cond
	}
	return out, true
}

func (s *Server) listFields(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	fields := sess.Builder().Fields()
	if fields == nil {
		fields = []operations.FieldInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fields":  fields,
		"sources": sess.Engine().ConditionSourceFields(sess.Document().Schema),
	})
}

type addFieldRequest struct {
	Type string `json:"type"`
}

func (s *Server) addField(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req addFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	name, ok := sess.Builder().AddField(fieldtypes.FieldType(req.Type))
	if !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown field type: "+req.Type)
		return
	}
	field, _ := newFieldResponse(sess, name)
	writeJSON(w, http.StatusCreated, field)
}

func (s *Server) getField(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	name, ok := lookupField(w, r, sess)
	if !ok {
		return
	}
	field, _ := newFieldResponse(sess, name)
	writeJSON(w, http.StatusOK, field)
}

func (s *Server) deleteField(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	name, ok := lookupField(w, r, sess)
	if !ok {
		return
	}
	sess.Builder().DeleteField(name)
	w.WriteHeader(http.StatusNoContent)
}

// patchFieldSchema merges the body into the field schema. Null values
// clear keys.
func (s *Server) patchFieldSchema(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	name, ok := lookupField(w, r, sess)
	if !ok {
		return
	}
	var update schemadoc.Update
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	sess.Builder().UpdateFieldSchema(name, update)
	field, _ := newFieldResponse(sess, name)
	writeJSON(w, http.StatusOK, field)
}

func (s *Server) patchFieldUI(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	name, ok := lookupField(w, r, sess)
	if !ok {
		return
	}
	var update schemadoc.Update
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	sess.Builder().UpdateFieldUISchema(name, update)
	field, _ := newFieldResponse(sess, name)
	writeJSON(w, http.StatusOK, field)
}

type renameRequest struct {
	Name string `json:"name"`
}

func (s *Server) renameField(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	name, ok := lookupField(w, r, sess)
	if !ok {
		return
	}
	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	newName := strings.TrimSpace(req.Name)
	if newName == name {
		field, _ := newFieldResponse(sess, name)
		writeJSON(w, http.StatusOK, field)
		return
	}
	if !sess.Builder().RenameField(name, newName) {
		writeError(w, http.StatusConflict, "CONFLICT", "cannot rename "+name+" to "+req.Name)
		return
	}
	field, _ := newFieldResponse(sess, newName)
	writeJSON(w, http.StatusOK, field)
}

func (s *Server) toggleRequired(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	name, ok := lookupField(w, r, sess)
	if !ok {
		return
	}
	sess.Builder().ToggleRequired(name)
	field, _ := newFieldResponse(sess, name)
	writeJSON(w, http.StatusOK, field)
}

// putCondition makes the field depend on a value of another field with a
// closed value set.
func (s *Server) putCondition(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	name, ok := lookupField(w, r, sess)
	if !ok {
		return
	}
	var cond operations.FieldCondition
	if err := decodeJSON(r, &cond); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if cond.DependsOnField == "" || cond.DependsOnValue == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "dependsOnField and dependsOnValue are required")
		return
	}
	if cond.DependsOnField == name {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "a field cannot depend on itself")
		return
	}
	if !isConditionSource(sess, cond.DependsOnField) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "not a condition source: "+cond.DependsOnField)
		return
	}

	sess.Builder().UpdateCondition(name, &cond)
	field, _ := newFieldResponse(sess, name)
	writeJSON(w, http.StatusOK, field)
}

func (s *Server) deleteCondition(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	name, ok := lookupField(w, r, sess)
	if !ok {
		return
	}
	sess.Builder().UpdateCondition(name, nil)
	field, _ := newFieldResponse(sess, name)
	writeJSON(w, http.StatusOK, field)
}

func isConditionSource(sess *session.Session, name string) bool {
	for _, source := range sess.Engine().ConditionSourceFields(sess.Document().Schema) {
		if source.Name == name {
			return true
		}
	}
	return false
}
