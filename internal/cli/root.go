// Package cli implements the schemabuilder command tree.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/internal/loader"
	"github.com/goliatone/go-formbuilder/internal/prompt"
	"github.com/goliatone/go-formbuilder/pkg/operations"
)

// Option customises the command tree.
type Option func(*app)

// WithDriver replaces the terminal prompt driver of the build command.
func WithDriver(driver prompt.Driver) Option {
	return func(a *app) {
		if driver != nil {
			a.driver = driver
		}
	}
}

// WithEngine replaces the operations engine.
func WithEngine(engine *operations.Engine) Option {
	return func(a *app) {
		if engine != nil {
			a.engine = engine
		}
	}
}

type app struct {
	driver  prompt.Driver
	engine  *operations.Engine
	timeout time.Duration
	uiPath  string
	output  string
}

func (a *app) loader() *loader.Loader {
	return loader.New(loader.Options{AllowHTTPFallback: true, RequestTimeout: a.timeout})
}

// NewRootCommand builds the schemabuilder command tree.
func NewRootCommand(options ...Option) *cobra.Command {
	a := &app{}
	for _, opt := range options {
		if opt != nil {
			opt(a)
		}
	}
	if a.engine == nil {
		a.engine = operations.New()
	}

	root := &cobra.Command{
		Use:           "schemabuilder",
		Short:         "Build, preview and validate JSON Schema forms",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.DurationVar(&a.timeout, "timeout", 15*time.Second, "timeout for remote documents")
	flags.StringVar(&a.uiPath, "ui", "", "UI schema path or URL")
	flags.StringVarP(&a.output, "output", "o", "", "output file (stdout if empty)")

	root.AddCommand(
		a.newPreviewCmd(),
		a.newValidateCmd(),
		a.newRenderCmd(),
		a.newImportCmd(),
		a.newBuildCmd(),
	)
	return root
}
