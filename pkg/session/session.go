// Package session wraps a builder around one persisted schema resource.
//
// A session remembers the pair it was opened or last saved with, so callers
// can ask whether there are unsaved changes, what they are as a JSON merge
// patch, and which version the next publish will carry.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/goliatone/go-formbuilder/pkg/builder"
	"github.com/goliatone/go-formbuilder/pkg/inspector"
	"github.com/goliatone/go-formbuilder/pkg/operations"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

// InitialVersion is the version of a resource that was never published.
const InitialVersion = "1.0"

// ErrNotFound is returned by stores for unknown ids.
var ErrNotFound = errors.New("session: not found")

// Increment selects which version component a publish bumps.
type Increment string

const (
	Minor Increment = "MINOR"
	Major Increment = "MAJOR"
)

// ParseIncrement accepts MINOR and MAJOR in any case. Blank means Minor.
func ParseIncrement(raw string) (Increment, error) {
	switch Increment(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", Minor:
		return Minor, nil
	case Major:
		return Major, nil
	default:
		return "", fmt.Errorf("session: unknown version increment %q", raw)
	}
}

// Record is the persisted form of a resource. Schema and UISchema hold the
// serialised documents.
type Record struct {
	ID          string    `json:"id"`
	SchemaID    string    `json:"schemaId,omitempty"`
	Name        string    `json:"name"`
	Version     string    `json:"version,omitempty"`
	Description string    `json:"description,omitempty"`
	Schema      string    `json:"schema"`
	UISchema    string    `json:"uiSchema"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsNew reports whether the resource was never published.
func (r Record) IsNew() bool {
	return r.SchemaID == ""
}

// Store persists records.
type Store interface {
	Get(ctx context.Context, id string) (Record, error)
	Put(ctx context.Context, record Record) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Record, error)
}

// PublishRequest is a resource version handed to a Publisher.
type PublishRequest struct {
	Name        string
	Version     string
	Description string
	Pair        schemadoc.Pair
}

// Published identifies the version a Publisher stored.
type Published struct {
	SchemaID string
	Version  string
}

// Publisher stores a new resource version upstream.
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) (Published, error)
}

// Option configures a Session.
type Option func(*Session)

// WithEngine sets the operations engine shared by builder and inspector.
func WithEngine(engine *operations.Engine) Option {
	return func(s *Session) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the uuid generator used for records without id.
func WithIDGenerator(next func() string) Option {
	return func(s *Session) {
		if next != nil {
			s.newID = next
		}
	}
}

// Session is one open resource.
type Session struct {
	mu        sync.Mutex
	record    Record
	saved     schemadoc.Pair
	engine    *operations.Engine
	builder   *builder.Builder
	inspector *inspector.Inspector
	now       func() time.Time
	newID     func() string
}

// Open parses the persisted documents, falling back to empty documents when
// they are blank or malformed, and starts a builder over them.
func Open(record Record, options ...Option) *Session {
	s := &Session{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.engine == nil {
		s.engine = operations.New()
	}
	if record.ID == "" {
		record.ID = s.newID()
	}

	pair := schemadoc.ParsePair(record.Schema, record.UISchema)
	if pair.Schema.Type == "" && !pair.Schema.Properties.Present() {
		pair.Schema = schemadoc.NewSchema()
	}
	s.record = record
	s.saved = pair.Clone()
	s.builder = builder.New(pair, builder.WithEngine(s.engine))
	s.inspector = inspector.New(s.builder, s.engine)
	return s
}

// ID returns the record id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.ID
}

// Record returns the metadata and documents as of the last save.
func (s *Session) Record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

// Builder returns the builder of the session.
func (s *Session) Builder() *builder.Builder {
	return s.builder
}

// Inspector returns the inspector bound to the builder.
func (s *Session) Inspector() *inspector.Inspector {
	return s.inspector
}

// Engine returns the operations engine.
func (s *Session) Engine() *operations.Engine {
	return s.engine
}

// Document returns the current pair.
func (s *Session) Document() schemadoc.Pair {
	return s.builder.Document()
}

// SetName renames a resource that was never published.
func (s *Session) SetName(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.record.IsNew() {
		return false
	}
	s.record.Name = name
	return true
}

// SetVersion sets the initial version of a resource that was never
// published.
func (s *Session) SetVersion(version string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.record.IsNew() {
		return false
	}
	s.record.Version = version
	return true
}

// SetDescription updates the description.
func (s *Session) SetDescription(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record.Description = description
}

// NextVersion returns the version the next publish will carry. New
// resources keep their version, or InitialVersion when none is set.
func (s *Session) NextVersion(increment Increment) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nextVersion(s.record, increment)
}

func nextVersion(record Record, increment Increment) string {
	if record.IsNew() || record.Version == "" {
		if record.Version == "" {
			return InitialVersion
		}
		return record.Version
	}
	major, minor, ok := splitVersion(record.Version)
	if !ok {
		return InitialVersion
	}
	if increment == Major {
		return strconv.Itoa(major+1) + ".0"
	}
	return strconv.Itoa(major) + "." + strconv.Itoa(minor+1)
}

func splitVersion(version string) (int, int, bool) {
	majorPart, minorPart, hasMinor := strings.Cut(strings.TrimSpace(version), ".")
	major, err := strconv.Atoi(majorPart)
	if err != nil || major < 0 {
		return 0, 0, false
	}
	if !hasMinor {
		return major, 0, true
	}
	minor, err := strconv.Atoi(minorPart)
	if err != nil || minor < 0 {
		return 0, 0, false
	}
	return major, minor, true
}

// Dirty reports whether the document differs from the last saved pair.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	saved := s.saved
	s.mu.Unlock()

	before, err := documentJSON(saved)
	if err != nil {
		return true
	}
	after, err := documentJSON(s.builder.Document())
	if err != nil {
		return true
	}
	return string(before) != string(after)
}

// Changes returns the unsaved changes as an RFC 7386 merge patch over
// {"schema": ..., "uiSchema": ...}. No changes yield {}.
func (s *Session) Changes() ([]byte, error) {
	s.mu.Lock()
	saved := s.saved
	s.mu.Unlock()

	before, err := documentJSON(saved)
	if err != nil {
		return nil, err
	}
	after, err := documentJSON(s.builder.Document())
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.CreateMergePatch(before, after)
	if err != nil {
		return nil, fmt.Errorf("session: diff: %w", err)
	}
	return patch, nil
}

// Apply merges an RFC 7386 patch over {"schema": ..., "uiSchema": ...} into
// the current document. Merged objects come back with sorted keys, so
// property order is only kept through ui:order.
func (s *Session) Apply(patch []byte) error {
	current, err := documentJSON(s.builder.Document())
	if err != nil {
		return err
	}
	merged, err := jsonpatch.MergePatch(current, patch)
	if err != nil {
		return fmt.Errorf("session: apply patch: %w", err)
	}
	var doc struct {
		Schema json.RawMessage `json:"schema"`
		UI     json.RawMessage `json:"uiSchema"`
	}
	if err := json.Unmarshal(merged, &doc); err != nil {
		return fmt.Errorf("session: apply patch: %w", err)
	}
	pair := schemadoc.NewPair()
	if len(doc.Schema) > 0 && string(doc.Schema) != "null" {
		if pair.Schema, err = schemadoc.ParseSchema(doc.Schema); err != nil {
			return err
		}
	}
	if len(doc.UI) > 0 && string(doc.UI) != "null" {
		if pair.UI, err = schemadoc.ParseUISchema(doc.UI); err != nil {
			return err
		}
	}
	s.builder.Sync(pair)
	return nil
}

// Revert discards unsaved changes.
func (s *Session) Revert() {
	s.mu.Lock()
	saved := s.saved.Clone()
	s.mu.Unlock()
	s.builder.Sync(saved)
}

// Snapshot returns the record with the current documents serialised.
func (s *Session) Snapshot() (Record, error) {
	doc := s.builder.Document()
	schema, ui, err := doc.Strings()
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.record
	record.Schema = schema
	record.UISchema = ui
	record.UpdatedAt = s.now().UTC()
	return record, nil
}

// MarkSaved records record as the saved state.
func (s *Session) MarkSaved(record Record) {
	saved := schemadoc.ParsePair(record.Schema, record.UISchema)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = record
	s.saved = saved
}

// Save writes a snapshot to store and marks it saved.
func (s *Session) Save(ctx context.Context, store Store) (Record, error) {
	record, err := s.Snapshot()
	if err != nil {
		return Record{}, err
	}
	if err := store.Put(ctx, record); err != nil {
		return Record{}, fmt.Errorf("session: save %s: %w", record.ID, err)
	}
	s.MarkSaved(record)
	return record, nil
}

// Publish stores the current document upstream under the next version and
// marks the result saved.
func (s *Session) Publish(ctx context.Context, publisher Publisher, increment Increment) (Record, error) {
	record, err := s.Snapshot()
	if err != nil {
		return Record{}, err
	}
	if strings.TrimSpace(record.Name) == "" {
		return Record{}, errors.New("session: name is required to publish")
	}

	s.mu.Lock()
	version := nextVersion(s.record, increment)
	s.mu.Unlock()

	published, err := publisher.Publish(ctx, PublishRequest{
		Name:        record.Name,
		Version:     version,
		Description: record.Description,
		Pair:        s.builder.Document(),
	})
	if err != nil {
		return Record{}, fmt.Errorf("session: publish %s %s: %w", record.Name, version, err)
	}

	record.SchemaID = published.SchemaID
	record.Version = published.Version
	if record.Version == "" {
		record.Version = version
	}
	s.MarkSaved(record)
	return record, nil
}

func documentJSON(pair schemadoc.Pair) ([]byte, error) {
	out, err := json.Marshal(map[string]any{
		"schema":   pair.Schema,
		"uiSchema": pair.UI,
	})
	if err != nil {
		return nil, fmt.Errorf("session: encode document: %w", err)
	}
	return out, nil
}
