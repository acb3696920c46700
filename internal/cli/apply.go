package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cutgraph/pkg/canvas"
	"github.com/matzehuels/cutgraph/pkg/document"
)

// applyOpts holds the command-line flags for the apply command.
type applyOpts struct {
	script    string // script file, "-" for stdin
	output    string // output file; empty rewrites the source
	fromStore bool   // the argument is a store id
	dryRun    bool   // run the script but do not save
	keepGoing bool   // log failed commands and continue
}

// applyCommand runs a script of canvas commands against a document.
func (c *CLI) applyCommand() *cobra.Command {
	var opts applyOpts

	cmd := &cobra.Command{
		Use:   "apply [document]",
		Short: "Run a script of editing commands against a document",
		Long: `Run a script of editing commands against a document.

Each line of the script is one command in the same form the HTTP API
accepts, for example:

  cut 5 5
  statement P 20 20
  select 1
  move 16 0

Blank lines and lines starting with # are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := sourceFromArgs(args[0], opts.fromStore)
			if err != nil {
				return err
			}
			return c.runApply(cmd.Context(), src, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.script, "script", "s", "-", "script file (- for stdin)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the result to this file instead of the source")
	cmd.Flags().BoolVar(&opts.fromStore, "id", false, "treat the argument as a store document id")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "run the script without saving")
	cmd.Flags().BoolVarP(&opts.keepGoing, "keep-going", "k", false, "continue after a failed command")

	return cmd
}

func (c *CLI) runApply(ctx context.Context, src source, opts applyOpts) error {
	logger := loggerFromContext(ctx)
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	cmds, err := readScript(opts.script)
	if err != nil {
		return err
	}

	d, t, err := c.load(ctx, cfg, src)
	if err != nil {
		return err
	}
	logger.Infof("Loaded %s: %d nodes", src, t.Len()-1)

	prog := newProgress(logger)
	cv := canvas.New(t.Grid(), canvas.WithTree(t), canvas.WithLogger(logger), canvas.WithHistory(cfg.History.Capacity))
	failed, err := applyScript(cv, cmds, opts.keepGoing, func(i int, cmd canvas.Command, err error) {
		logger.Warn("command failed", "line", i+1, "command", cmd.String(), "err", err)
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Applied %d commands", len(cmds)))

	out := withTree(d, cv.Tree())
	if opts.dryRun {
		printInfo("Dry run: %d commands, %d failed, nothing saved", len(cmds), failed)
		return nil
	}
	if opts.output != "" {
		if err := document.WriteFile(opts.output, out); err != nil {
			return err
		}
		printSuccess("Applied %d commands", len(cmds)-failed)
		printFile(opts.output)
		return nil
	}
	if err := c.save(ctx, cfg, src, out); err != nil {
		return err
	}
	printSuccess("Applied %d commands", len(cmds)-failed)
	printDetail("Saved %s (%d nodes)", src, cv.Tree().Len()-1)
	return nil
}

// applyScript executes cmds in order. Without keepGoing the first failure
// stops the run and is returned, annotated with its position. With
// keepGoing failures are reported to onError and counted.
func applyScript(cv *canvas.Canvas, cmds []canvas.Command, keepGoing bool, onError func(int, canvas.Command, error)) (failed int, err error) {
	for i, cmd := range cmds {
		if _, err := cv.Execute(cmd); err != nil {
			err = canvas.Classify(err)
			if !keepGoing {
				return failed + 1, fmt.Errorf("command %d (%s): %w", i+1, cmd, err)
			}
			failed++
			if onError != nil {
				onError(i, cmd, err)
			}
		}
	}
	return failed, nil
}

func readScript(path string) ([]canvas.Command, error) {
	var r io.Reader = os.Stdin
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		r = f
	}
	return canvas.ParseScript(r)
}
