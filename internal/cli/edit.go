package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cutgraph/pkg/canvas"
	"github.com/matzehuels/cutgraph/pkg/document"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

// editCommand opens the terminal editor.
func (c *CLI) editCommand() *cobra.Command {
	var (
		fromStore bool
		readOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "edit [document]",
		Short: "Edit a document in the terminal",
		Long: `Edit a document in the terminal, with mouse support.

A missing file is created on first save.

Mouse:
  move              highlight the node under the pointer
  drag              move the selection, pushing neighbours aside
  right-drag        move the selection into the cut under the drop point
  shift-drag        box select; shift-click toggles the highlighted node
  wheel             scroll

Keys:
  x                 new cut at the pointer
  A-Z               new statement at the pointer
  4                 new placeholder at the pointer
  s                 surround the selection with a cut
  d                 dissolve the highlighted cut
  del, backspace    delete the selection
  space             toggle the highlighted node
  ctrl+a, ctrl+d    select children of the highlight, clear the selection
  arrows, home      move the highlight up, down, across, to the root
  u, r              undo, redo
  ctrl+b            show the boxes examined by the last placement
  0                 scroll back to the drawing
  w                 save
  q                 quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := sourceFromArgs(args[0], fromStore)
			if err != nil {
				return err
			}
			return c.runEdit(cmd.Context(), src, readOnly)
		},
	}

	cmd.Flags().BoolVar(&fromStore, "id", false, "treat the argument as a store document id")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "disable saving")

	return cmd
}

func (c *CLI) runEdit(ctx context.Context, src source, readOnly bool) error {
	logger := loggerFromContext(ctx)
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	d, t, err := c.load(ctx, cfg, src)
	if err != nil {
		if src.id != "" || !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		logger.Infof("%s does not exist, starting empty", src)
		t = tree.New(cfg.Grid)
		d = document.Export(t)
	}

	// The TUI owns the terminal, so the canvas does not log.
	cv := canvas.New(t.Grid(), canvas.WithTree(t), canvas.WithHistory(cfg.History.Capacity))

	var save func(document.Document) error
	if !readOnly {
		save = func(d document.Document) error { return c.save(ctx, cfg, src, d) }
	}
	m := newEditorModel(cv, d, src.String(), save)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	if fm, ok := final.(*editorModel); ok && fm.modified {
		printWarning("Quit with unsaved changes to %s", src)
	}
	return nil
}
