package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cutgraph/pkg/buildinfo"
	"github.com/matzehuels/cutgraph/pkg/cache"
	"github.com/matzehuels/cutgraph/pkg/document"
	"github.com/matzehuels/cutgraph/pkg/errors"
	"github.com/matzehuels/cutgraph/pkg/render"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

const (
	styleSimple   = "simple" // shaded cuts, coloured selection state
	styleMono     = "mono"   // black outlines only
	defaultMargin = 16       // SVG margin around the drawing, in world units
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string          // output file, or base path for multiple formats; "-" for stdout
	formats   []render.Format // output formats
	style     string          // visual style: "simple" or "mono"
	margin    float64         // SVG margin in world units
	noFlags   bool            // ignore selection and highlight state
	fromStore bool            // the argument is a store id
	noCache   bool            // bypass the render cache
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{
		style:  styleSimple,
		margin: defaultMargin,
	}

	cmd := &cobra.Command{
		Use:   "render [document]",
		Short: "Render a document to SVG, DOT or text",
		Long: `Render a document.

Formats:
  svg       native SVG, one rectangle per node
  dot       Graphviz source with one cluster per cut
  graphviz  SVG laid out by Graphviz from the DOT source
  txt       box-drawing characters, as shown by the terminal editor

Rendered output is cached by document content and options.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := parseFormats(formatsStr)
			if err != nil {
				return err
			}
			opts.formats = formats
			if _, err := parseStyle(opts.style); err != nil {
				return err
			}
			src, err := sourceFromArgs(args[0], opts.fromStore)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), src, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple); - for stdout")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, graphviz, txt (comma-separated)")
	cmd.Flags().StringVar(&opts.style, "style", opts.style, "visual style: simple (default), mono")
	cmd.Flags().Float64Var(&opts.margin, "margin", opts.margin, "margin around the drawing")
	cmd.Flags().BoolVar(&opts.noFlags, "no-flags", false, "ignore selection and highlight state")
	cmd.Flags().BoolVar(&opts.fromStore, "id", false, "treat the argument as a store document id")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the render cache")

	return cmd
}

// parseFormats parses the --format flag. If empty, defaults to [svg].
func parseFormats(s string) ([]render.Format, error) {
	if s == "" {
		return []render.Format{render.FormatSVG}, nil
	}
	var out []render.Format
	for _, part := range strings.Split(s, ",") {
		f, err := render.ParseFormat(part)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func parseStyle(s string) (render.Style, error) {
	switch s {
	case styleSimple:
		return render.Simple{}, nil
	case styleMono:
		return render.Mono{}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "invalid style: %s (must be 'simple' or 'mono')", s)
}

// basePath derives the base output path from the output and input paths.
// If output is empty, it strips the extension from input. If output has a
// format extension, it strips that too.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if _, err := render.ParseFormat(strings.TrimPrefix(ext, ".")); err == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func (c *CLI) runRender(ctx context.Context, src source, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	d, t, err := c.load(ctx, cfg, src)
	if err != nil {
		return err
	}
	logger.Infof("Loaded %s: %d nodes", src, t.Len()-1)

	ch, err := newCache(opts.noCache)
	if err != nil {
		return err
	}
	defer ch.Close()

	base := src.id
	if base == "" {
		base = src.path
	}
	base = basePath(opts.output, base)

	for _, f := range opts.formats {
		prog := newProgress(logger)
		data, err := renderCached(ctx, ch, d, t, f, opts)
		if err != nil {
			return fmt.Errorf("render %s: %w", f, err)
		}

		if opts.output == "-" {
			if _, err := os.Stdout.Write(data); err != nil {
				return err
			}
			continue
		}
		path := base + f.Ext()
		if f == render.FormatGraphviz && len(opts.formats) > 1 {
			path = base + "-graphviz" + f.Ext()
		}
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		prog.done(fmt.Sprintf("Rendered %s", filepath.Base(path)))
		printFile(path)
	}
	return nil
}

// renderCached draws t in format f, reusing an earlier drawing of the same
// document with the same options. Graphviz layout runs behind a spinner.
func renderCached(ctx context.Context, ch cache.Cache, d document.Document, t *tree.Tree, f render.Format, opts *renderOpts) ([]byte, error) {
	style, err := parseStyle(opts.style)
	if err != nil {
		return nil, err
	}

	// Identity fields do not change the drawing.
	d.ID, d.Name = "", ""
	raw, err := document.Marshal(d)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "v"+buildinfo.Version+":")
	key := keyer.ArtifactKey(cache.Hash(raw), cache.ArtifactKeyOpts{
		Format: string(f),
		Style:  opts.style,
		Margin: opts.margin,
		Flags:  !opts.noFlags,
	})

	return cache.Fetch(ctx, ch, key, cache.KeyTypeArtifact, 0, func() ([]byte, error) {
		svgOpts := []render.SVGOption{render.WithStyle(style), render.WithMargin(opts.margin)}
		if opts.noFlags {
			svgOpts = append(svgOpts, render.WithoutFlags())
		}
		if f != render.FormatGraphviz {
			return render.Render(ctx, t, f, svgOpts...)
		}
		spinner := newSpinnerWithContext(ctx, "Laying out with Graphviz...")
		spinner.Start()
		defer spinner.Stop()
		return render.Render(ctx, t, f, svgOpts...)
	})
}
