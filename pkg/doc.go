// Package pkg holds the libraries behind cutgraph, an editor for
// existential graphs: nested rectangular cuts enclosing one-letter
// statements.
//
// # Overview
//
// The packages form three layers:
//
//  1. [geom], [config] - plain geometry and grid settings
//  2. [tree], [canvas] - the layout engine and the editing controller
//  3. [document], [store], [render], [cache] - persistence and drawing
//
// [errors] and [observability] run across all of them.
//
// # Architecture
//
//	pointer / keys / script / HTTP
//	         ↓
//	    [canvas] (selection, gestures, undo)
//	         ↓
//	    [tree] (bloom and placement search, predict, commit)
//	         ↓
//	    Listener.Repaint(ids) → [render]
//
// The tree never reads files, flags or global state; everything below
// [canvas] is synchronous and single-threaded.
//
// # Quick Start
//
//	c := canvas.New(config.DefaultGrid())
//	c.PointerMoved(geom.Pt(5, 5))
//	c.AddCut()
//	c.PointerMoved(geom.Pt(20, 20))
//	c.AddStatement('P')
//
//	svg := render.RenderSVG(c.Tree())
//	doc := document.New(c.Tree(), "negated P")
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test -run Example ./pkg/...       # Examples only
//	go test -tags integration ./pkg/...  # Include Redis tests
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/cutgraph/pkg/geom
// [config]: https://pkg.go.dev/github.com/matzehuels/cutgraph/pkg/config
// [tree]: https://pkg.go.dev/github.com/matzehuels/cutgraph/pkg/tree
// [canvas]: https://pkg.go.dev/github.com/matzehuels/cutgraph/pkg/canvas
// [document]: https://pkg.go.dev/github.com/matzehuels/cutgraph/pkg/document
// [store]: https://pkg.go.dev/github.com/matzehuels/cutgraph/pkg/store
// [render]: https://pkg.go.dev/github.com/matzehuels/cutgraph/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/cutgraph/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/cutgraph/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/cutgraph/pkg/observability
package pkg
