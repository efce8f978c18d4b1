package server

import (
	"net/http"

	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/session"
)

// reserved query parameters of the HTML preview; every other parameter is
// a form value.
var previewParams = map[string]bool{
	"theme":                    true,
	"variant":                  true,
	"validate":                 true,
	render.HiddenSchemaName:    true,
	render.HiddenSchemaVersion: true,
}

func (s *Server) renderPreview(w http.ResponseWriter, r *http.Request, sess *session.Session, name string, options render.Options) {
	renderer, err := s.cfg.Renderers.Get(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	out, err := renderer.Render(r.Context(), sess.Document(), options)
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	writeRaw(w, http.StatusOK, renderer.ContentType(), out)
}

// previewJSON returns the preview-transformed schema and UI schema.
func (s *Server) previewJSON(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	s.renderPreview(w, r, sess, "json", render.Options{})
}

// previewHTML renders the preview form. Query parameters fill in form
// values; validate=true also shows validation messages for them.
func (s *Server) previewHTML(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	query := r.URL.Query()
	values := make(map[string]any)
	for key := range query {
		if previewParams[key] {
			continue
		}
		values[key] = query.Get(key)
	}

	options := render.Options{
		Values:  values,
		Theme:   query.Get("theme"),
		Variant: query.Get("variant"),
		Hidden:  submissionFields(sess.Record()),
	}
	if query.Get("validate") == "true" {
		options.Issues = s.cfg.Validator.Validate(r.Context(), sess.Document(), values).Issues
	}
	s.renderPreview(w, r, sess, "html", options)
}

// submissionFields tags the preview form with the schema it was rendered
// from.
func submissionFields(record session.Record) map[string]string {
	var fields []render.HiddenField
	if record.Name != "" {
		fields = append(fields, render.SchemaField(record.Name))
	}
	if record.Version != "" {
		fields = append(fields, render.VersionField(record.Version))
	}
	return render.MergeHiddenFields(nil, fields...)
}

type validateRequest struct {
	Values map[string]any `json:"values"`
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Values == nil {
		req.Values = map[string]any{}
	}
	writeJSON(w, http.StatusOK, s.cfg.Validator.Validate(r.Context(), sess.Document(), req.Values))
}
