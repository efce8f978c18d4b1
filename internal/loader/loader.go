// Package loader reads persisted schema documents from disk, an fs.FS, or
// over HTTP.
package loader

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

// Options configures a Loader.
type Options struct {
	FileSystem        fs.FS
	HTTPClient        *http.Client
	AllowHTTPFallback bool
	RequestTimeout    time.Duration
}

// Loader implements schemadoc.Loader by delegating to file, fs.FS, or HTTP
// strategies.
type Loader struct {
	fs        fs.FS
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
}

var _ schemadoc.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options Options) *Loader {
	timeout := options.RequestTimeout

	var httpClient *http.Client
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		httpClient = &clone
	case options.AllowHTTPFallback:
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Loader{
		fs:        options.FileSystem,
		http:      httpClient,
		allowHTTP: httpClient != nil,
		timeout:   timeout,
	}
}

// Load fetches the bytes behind src.
func (l *Loader) Load(ctx context.Context, src schemadoc.Source) ([]byte, error) {
	if src == nil {
		return nil, errors.New("loader: source is nil")
	}

	switch src.Kind() {
	case schemadoc.SourceKindFile:
		return loadFile(ctx, src.Location())
	case schemadoc.SourceKindFS:
		return loadFromFS(ctx, l.fs, src.Location())
	case schemadoc.SourceKindURL:
		if !l.allowHTTP {
			return nil, errors.New("loader: http support disabled")
		}
		return loadHTTP(ctx, l.http, src.Location(), l.timeout)
	default:
		return nil, errors.New("loader: unsupported source kind")
	}
}
