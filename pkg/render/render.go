package render

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/cutgraph/pkg/errors"
	"github.com/matzehuels/cutgraph/pkg/observability"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

// Format names an output of [Render].
type Format string

const (
	FormatSVG      Format = "svg"      // native SVG
	FormatDOT      Format = "dot"      // Graphviz source
	FormatGraphviz Format = "graphviz" // SVG laid out by Graphviz
	FormatText     Format = "txt"      // terminal cells, one line per row
)

// Formats lists every supported format.
var Formats = []Format{FormatSVG, FormatDOT, FormatGraphviz, FormatText}

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unknown output format %q", s)
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatDOT:
		return ".dot"
	case FormatText:
		return ".txt"
	default:
		return ".svg"
	}
}

// Render produces t in format f. SVG options are ignored by the other
// formats.
func Render(ctx context.Context, t *tree.Tree, f Format, opts ...SVGOption) (out []byte, err error) {
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, string(f), t.Len())
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, string(f), len(out), time.Since(start), err) }()

	switch f {
	case FormatSVG:
		return RenderSVG(t, opts...), nil
	case FormatDOT:
		return []byte(ToDOT(t)), nil
	case FormatGraphviz:
		return RenderGraphvizSVG(ctx, ToDOT(t))
	case FormatText:
		return []byte(Text(t)), nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown output format %q", f)
	}
}
