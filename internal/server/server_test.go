package server_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formbuilder/internal/server"
	"github.com/goliatone/go-formbuilder/pkg/session"
)

type fakePublisher struct {
	requests []session.PublishRequest
}

func (p *fakePublisher) Publish(_ context.Context, req session.PublishRequest) (session.Published, error) {
	p.requests = append(p.requests, req)
	return session.Published{SchemaID: "2281_" + req.Name + "_" + req.Version, Version: req.Version}, nil
}

func newHandler(t *testing.T, cfg server.Config) http.Handler {
	t.Helper()
	s, err := server.New(cfg)
	require.NoError(t, err)
	return s.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type sessionBody struct {
	ID       string `json:"id"`
	SchemaID string `json:"schemaId"`
	Name     string `json:"name"`
	Version  string `json:"version"`
	Dirty    bool   `json:"dirty"`
	Selected string `json:"selected"`
	Fields   []struct {
		Name      string `json:"name"`
		FieldType string `json:"fieldType"`
		Required  bool   `json:"required"`
	} `json:"fields"`
}

type fieldBody struct {
	Name      string         `json:"name"`
	Title     string         `json:"title"`
	FieldType string         `json:"fieldType"`
	Required  bool           `json:"required"`
	Schema    map[string]any `json:"schema"`
	Condition *struct {
		DependsOnField string `json:"dependsOnField"`
		DependsOnValue string `json:"dependsOnValue"`
	} `json:"condition"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func createSession(t *testing.T, h http.Handler, body any) sessionBody {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/sessions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[sessionBody](t, rec)
}

func TestHealthz(t *testing.T) {
	h := newHandler(t, server.Config{})
	rec := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestFieldTypes(t *testing.T) {
	h := newHandler(t, server.Config{})
	rec := do(t, h, http.MethodGet, "/v1/field-types", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		FieldTypes []struct {
			Type   string `json:"type"`
			Widget string `json:"widget"`
		} `json:"fieldTypes"`
	}](t, rec)
	require.Len(t, body.FieldTypes, 9)
	assert.Equal(t, "text", body.FieldTypes[0].Type)
	assert.Equal(t, "TextWidget", body.FieldTypes[0].Widget)
}

func TestCreateSession(t *testing.T) {
	h := newHandler(t, server.Config{})

	empty := createSession(t, h, nil)
	assert.NotEmpty(t, empty.ID)
	assert.Empty(t, empty.Fields)

	seeded := createSession(t, h, map[string]any{
		"name":     "contact",
		"version":  "2.0",
		"schema":   `{"type":"object","properties":{"email":{"type":"string","format":"email"}}}`,
		"uiSchema": map[string]any{"email": map[string]any{"ui:widget": "TextWidget"}},
	})
	assert.Equal(t, "contact", seeded.Name)
	assert.Equal(t, "2.0", seeded.Version)
	require.Len(t, seeded.Fields, 1)
	assert.Equal(t, "email", seeded.Fields[0].Name)
	assert.False(t, seeded.Dirty)

	rec := do(t, h, http.MethodPost, "/v1/sessions", map[string]any{"version": "1.0.0"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, rec).Code)
}

func TestUnknownSession(t *testing.T) {
	h := newHandler(t, server.Config{})
	rec := do(t, h, http.MethodGet, "/v1/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[errorBody](t, rec).Code)
}

func TestFieldEditing(t *testing.T) {
	h := newHandler(t, server.Config{})
	id := createSession(t, h, map[string]any{"name": "contact"}).ID
	base := "/v1/sessions/" + id

	rec := do(t, h, http.MethodPost, base+"/fields", map[string]string{"type": "text"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "text", decode[fieldBody](t, rec).Name)

	rec = do(t, h, http.MethodPost, base+"/fields", map[string]string{"type": "select"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "select", decode[fieldBody](t, rec).FieldType)

	rec = do(t, h, http.MethodPost, base+"/fields", map[string]string{"type": "slider"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, base+"/fields/text/schema", map[string]any{"title": "Namn", "description": nil})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Namn", decode[fieldBody](t, rec).Title)

	rec = do(t, h, http.MethodPatch, base+"/fields/text/ui", map[string]any{"ui:widget": "TextareaWidget"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "textarea", decode[fieldBody](t, rec).FieldType)

	rec = do(t, h, http.MethodPost, base+"/fields/text/rename", map[string]string{"name": "select"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/fields/text/rename", map[string]string{"name": "fullName"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "fullName", decode[fieldBody](t, rec).Name)

	rec = do(t, h, http.MethodPost, base+"/fields/fullName/required", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[fieldBody](t, rec).Required)

	rec = do(t, h, http.MethodPost, base+"/fields/fullName/required", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[fieldBody](t, rec).Required)

	rec = do(t, h, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sess := decode[sessionBody](t, rec)
	require.Len(t, sess.Fields, 2)
	assert.Equal(t, "fullName", sess.Fields[0].Name)
	assert.Equal(t, "select", sess.Fields[1].Name)

	rec = do(t, h, http.MethodPost, base+"/reorder", map[string]int{"from": 1, "to": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"order":["select","fullName"]}`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, base+"/fields/select", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, base+"/fields/select", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConditions(t *testing.T) {
	h := newHandler(t, server.Config{})
	id := createSession(t, h, map[string]any{"name": "contact"}).ID
	base := "/v1/sessions/" + id

	for _, ft := range []string{"select", "text"} {
		rec := do(t, h, http.MethodPost, base+"/fields", map[string]string{"type": ft})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(t, h, http.MethodPut, base+"/fields/text/condition", map[string]any{"dependsOnField": "text", "dependsOnValue": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPut, base+"/fields/text/condition", map[string]any{"dependsOnField": "select"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, base+"/fields/text/condition", map[string]any{
		"dependsOnField":      "select",
		"dependsOnValue":      "option1",
		"requiredWhenVisible": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	field := decode[fieldBody](t, rec)
	require.NotNil(t, field.Condition)
	assert.Equal(t, "select", field.Condition.DependsOnField)
	assert.Equal(t, "option1", field.Condition.DependsOnValue)

	rec = do(t, h, http.MethodPost, base+"/validate", map[string]any{"values": map[string]any{"select": "option1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[struct {
		Valid  bool `json:"valid"`
		Issues []struct {
			Field   string `json:"field"`
			Keyword string `json:"keyword"`
		} `json:"issues"`
	}](t, rec)
	assert.False(t, result.Valid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "text", result.Issues[0].Field)
	assert.Equal(t, "required", result.Issues[0].Keyword)

	rec = do(t, h, http.MethodPost, base+"/validate", map[string]any{"values": map[string]any{"select": "option2"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":true}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, base+"/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	preview := decode[struct {
		Schema struct {
			Properties map[string]any `json:"properties"`
			AllOf      []struct {
				Then struct {
					Properties map[string]any `json:"properties"`
				} `json:"then"`
			} `json:"allOf"`
		} `json:"schema"`
	}](t, rec)
	assert.NotContains(t, preview.Schema.Properties, "text")
	require.Len(t, preview.Schema.AllOf, 1)
	assert.Contains(t, preview.Schema.AllOf[0].Then.Properties, "text")

	rec = do(t, h, http.MethodGet, base+"/preview.html?select=option2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), `data-field="select"`)
	assert.NotContains(t, rec.Body.String(), `data-field="text"`)
	assert.Contains(t, rec.Body.String(), `<input type="hidden" name="_schema" value="contact">`)

	rec = do(t, h, http.MethodGet, base+"/preview.html?select=option1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-field="text"`)

	rec = do(t, h, http.MethodDelete, base+"/fields/text/condition", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[fieldBody](t, rec).Condition)
}

func TestDragAndDrop(t *testing.T) {
	h := newHandler(t, server.Config{})
	id := createSession(t, h, nil).ID
	base := "/v1/sessions/" + id

	rec := do(t, h, http.MethodPost, base+"/drag", map[string]string{"kind": "palette", "id": "unknown"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/drag", map[string]string{"kind": "palette", "id": "checkbox"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Kryssruta", decode[struct {
		Label string `json:"label"`
	}](t, rec).Label)

	rec = do(t, h, http.MethodPost, base+"/drop", map[string]string{"over": "canvas-drop-zone"})
	require.Equal(t, http.StatusOK, rec.Code)
	dropped := decode[struct {
		Changed bool        `json:"changed"`
		Session sessionBody `json:"session"`
	}](t, rec)
	assert.True(t, dropped.Changed)
	assert.Equal(t, "checkbox", dropped.Session.Selected)
	require.Len(t, dropped.Session.Fields, 1)
	assert.Equal(t, "checkbox", dropped.Session.Fields[0].FieldType)

	rec = do(t, h, http.MethodPost, base+"/drop", map[string]string{"over": "canvas-drop-zone"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[struct {
		Changed bool `json:"changed"`
	}](t, rec).Changed)

	rec = do(t, h, http.MethodGet, base+"/inspector", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	inspected := decode[struct {
		Field   string `json:"field"`
		Widgets []struct {
			Value string `json:"value"`
		} `json:"widgets"`
	}](t, rec)
	assert.Equal(t, "checkbox", inspected.Field)
	require.Len(t, inspected.Widgets, 9)
	assert.Equal(t, "", inspected.Widgets[0].Value)

	rec = do(t, h, http.MethodPost, base+"/select", map[string]string{"field": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, base+"/inspector", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NO_SELECTION", decode[errorBody](t, rec).Code)

	rec = do(t, h, http.MethodPost, base+"/select", map[string]string{"field": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveChangesAndReopen(t *testing.T) {
	store := session.NewMemoryStore()
	h := newHandler(t, server.Config{Store: store})
	id := createSession(t, h, map[string]any{"name": "contact"}).ID
	base := "/v1/sessions/" + id

	rec := do(t, h, http.MethodPost, base+"/fields", map[string]string{"type": "text"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[session.Record](t, rec)
	assert.Equal(t, id, saved.ID)
	assert.Contains(t, saved.Schema, `"text"`)

	rec = do(t, h, http.MethodGet, base+"/changes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{}", rec.Body.String())

	rec = do(t, h, http.MethodPatch, base+"/fields/text/schema", map[string]any{"title": "Namn"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, base+"/changes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"schema":{"properties":{"text":{"title":"Namn"}}}}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, base+"/revert", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[sessionBody](t, rec).Dirty)

	rec = do(t, h, http.MethodPatch, base+"/document", `{"schema":{"required":["text"]}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decode[sessionBody](t, rec)
	assert.True(t, patched.Dirty)
	require.Len(t, patched.Fields, 1)
	assert.True(t, patched.Fields[0].Required)

	other := newHandler(t, server.Config{Store: store})
	rec = do(t, other, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reopened := decode[sessionBody](t, rec)
	assert.False(t, reopened.Dirty)
	require.Len(t, reopened.Fields, 1)
	assert.False(t, reopened.Fields[0].Required)

	rec = do(t, h, http.MethodGet, "/v1/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Sessions []struct {
			ID    string `json:"id"`
			Open  bool   `json:"open"`
			Dirty bool   `json:"dirty"`
		} `json:"sessions"`
	}](t, rec)
	require.Len(t, list.Sessions, 1)
	assert.True(t, list.Sessions[0].Open)
	assert.True(t, list.Sessions[0].Dirty)

	rec = do(t, h, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateSessionAndPublish(t *testing.T) {
	publisher := &fakePublisher{}
	store := session.NewMemoryStore()
	h := newHandler(t, server.Config{Store: store, Publisher: publisher})
	id := createSession(t, h, nil).ID
	base := "/v1/sessions/" + id

	rec := do(t, h, http.MethodPost, base+"/publish", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, base, map[string]any{"name": "contact", "version": "1.0"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "contact", decode[sessionBody](t, rec).Name)

	rec = do(t, h, http.MethodPost, base+"/publish", map[string]string{"increment": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/publish", map[string]string{"increment": "MAJOR"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[session.Record](t, rec)
	assert.Equal(t, "2281_contact_1.0", first.SchemaID)

	rec = do(t, h, http.MethodPost, base+"/publish", map[string]string{"increment": "MAJOR"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2.0", decode[session.Record](t, rec).Version)
	require.Len(t, publisher.requests, 2)

	stored, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "2281_contact_2.0", stored.SchemaID)

	rec = do(t, h, http.MethodPatch, base, map[string]any{"name": "renamed"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPublishDisabled(t *testing.T) {
	h := newHandler(t, server.Config{})
	id := createSession(t, h, map[string]any{"name": "contact"}).ID
	rec := do(t, h, http.MethodPost, "/v1/sessions/"+id+"/publish", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "UNAVAILABLE", decode[errorBody](t, rec).Code)
}
