package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/internal/prompt"
	"github.com/goliatone/go-formbuilder/pkg/importer"
	"github.com/goliatone/go-formbuilder/pkg/preview"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
	"github.com/goliatone/go-formbuilder/pkg/session"
	"github.com/goliatone/go-formbuilder/pkg/validation"
)

// ErrInvalid is returned by validate when the data does not satisfy the
// form.
var ErrInvalid = errors.New("form data is invalid")

func (a *app) newPreviewCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "preview <schema>",
		Short: "Print the document as the preview renderer sees it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pair, err := a.loadPair(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := encode(format, preview.Document(pair))
			if err != nil {
				return err
			}
			return a.emit(cmd, data)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	return cmd
}

func (a *app) newValidateCmd() *cobra.Command {
	var dataPath, format string
	cmd := &cobra.Command{
		Use:   "validate <schema>",
		Short: "Validate form data against the preview schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pair, err := a.loadPair(ctx, args[0])
			if err != nil {
				return err
			}
			values, err := a.loadValues(ctx, dataPath)
			if err != nil {
				return err
			}
			result := validation.New().Validate(ctx, pair, values)

			if format == "json" {
				data, err := encode(format, result)
				if err != nil {
					return err
				}
				if err := a.emit(cmd, data); err != nil {
					return err
				}
			} else {
				printIssues(cmd, result)
			}
			if !result.Valid {
				return ErrInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "form data file (JSON or YAML)")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	return cmd
}

func printIssues(cmd *cobra.Command, result validation.Result) {
	out := cmd.OutOrStdout()
	if result.Valid {
		fmt.Fprintln(out, color.GreenString("valid"))
		return
	}
	red := color.New(color.FgRed).SprintFunc()
	for _, issue := range result.Issues {
		field := issue.Field
		if field == "" {
			field = "(form)"
		}
		fmt.Fprintf(out, "%s %s: %s\n", red("✗"), field, issue.Message)
	}
}

func (a *app) newRenderCmd() *cobra.Command {
	var (
		dataPath string
		renderer string
		validate bool
		action   string
	)
	cmd := &cobra.Command{
		Use:   "render <schema>",
		Short: "Render the preview form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pair, err := a.loadPair(ctx, args[0])
			if err != nil {
				return err
			}
			values, err := a.loadValues(ctx, dataPath)
			if err != nil {
				return err
			}
			registry, err := render.DefaultRegistry(render.WithEngine(a.engine))
			if err != nil {
				return err
			}
			r, err := registry.Get(renderer)
			if err != nil {
				return fmt.Errorf("%w (available: %v)", err, registry.List())
			}

			options := render.Options{Values: values, Action: action}
			if validate {
				options.Issues = validation.New().Validate(ctx, pair, values).Issues
			}
			out, err := r.Render(ctx, pair, options)
			if err != nil {
				return err
			}
			return a.emit(cmd, out)
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "form data file (JSON or YAML)")
	cmd.Flags().StringVar(&renderer, "renderer", "html", "renderer name")
	cmd.Flags().BoolVar(&validate, "validate", false, "show validation messages for the data")
	cmd.Flags().StringVar(&action, "action", "", "form action URL")
	return cmd
}

func (a *app) newImportCmd() *cobra.Command {
	var (
		component string
		format    string
		schemaOut string
		uiOut     string
		validate  bool
	)
	cmd := &cobra.Command{
		Use:   "import-openapi <openapi>",
		Short: "Seed a form from an OpenAPI component schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			raw, err := a.loadBytes(ctx, args[0])
			if err != nil {
				return err
			}
			var skipped []string
			pair, err := importer.FromOpenAPI(ctx, raw, component,
				importer.WithEngine(a.engine),
				importer.WithValidation(validate),
				importer.WithSkipped(&skipped),
			)
			if err != nil {
				return err
			}
			for _, name := range skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: nested objects and arrays are not supported\n", color.YellowString("skipped"), name)
			}

			if schemaOut == "" && uiOut == "" {
				data, err := encode(format, pair)
				if err != nil {
					return err
				}
				return a.emit(cmd, data)
			}
			return writePair(cmd, pair, schemaOut, uiOut)
		},
	}
	cmd.Flags().StringVar(&component, "component", "", "component schema name")
	cmd.Flags().StringVar(&schemaOut, "schema-out", "", "write the schema to this file")
	cmd.Flags().StringVar(&uiOut, "ui-out", "", "write the UI schema to this file")
	cmd.Flags().BoolVar(&validate, "validate-spec", false, "validate the OpenAPI document first")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	_ = cmd.MarkFlagRequired("component")
	return cmd
}

// writePair writes the schema and UI schema to separate files. Empty paths
// are skipped.
func writePair(cmd *cobra.Command, pair schemadoc.Pair, schemaPath, uiPath string) error {
	if schemaPath != "" {
		data, err := encode("json", pair.Schema)
		if err != nil {
			return err
		}
		if err := writeFile(cmd, schemaPath, data); err != nil {
			return err
		}
	}
	if uiPath != "" {
		data, err := encode("json", pair.UI)
		if err != nil {
			return err
		}
		if err := writeFile(cmd, uiPath, data); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) newBuildCmd() *cobra.Command {
	var (
		schemaOut string
		uiOut     string
	)
	cmd := &cobra.Command{
		Use:   "build [schema]",
		Short: "Edit a form interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				record session.Record
				err    error
			)
			if len(args) == 1 {
				if record.Schema, err = a.readIfExists(ctx, args[0]); err != nil {
					return err
				}
				if schemaOut == "" {
					schemaOut = args[0]
				}
			}
			if record.UISchema, err = a.readIfExists(ctx, a.uiPath); err != nil {
				return err
			}
			if schemaOut == "" {
				schemaOut = "schema.json"
			}
			if uiOut == "" {
				uiOut = a.uiPath
			}
			if uiOut == "" {
				uiOut = "uischema.json"
			}

			driver := a.driver
			if driver == nil {
				driver = prompt.NewSurvey()
			}
			loop := &buildLoop{
				driver: driver,
				sess:   session.Open(record, session.WithEngine(a.engine)),
				out:    cmd.OutOrStdout(),
				save: func(pair schemadoc.Pair) error {
					return writePair(cmd, pair, schemaOut, uiOut)
				},
			}
			err = loop.run(ctx)
			if errors.Is(err, prompt.ErrAborted) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&schemaOut, "schema-out", "", "schema file to save to (defaults to the input)")
	cmd.Flags().StringVar(&uiOut, "ui-out", "", "UI schema file to save to (defaults to --ui)")
	return cmd
}
