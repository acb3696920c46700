package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cutgraph/pkg/config"
	"github.com/matzehuels/cutgraph/pkg/document"
	"github.com/matzehuels/cutgraph/pkg/errors"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

// source names where a document lives: a JSON file, or a store entry when
// id is set.
type source struct {
	path string
	id   string
}

// sourceFromArgs builds a source from a positional argument. With fromStore
// the argument is a document id.
func sourceFromArgs(arg string, fromStore bool) (source, error) {
	if fromStore {
		if err := errors.ValidateDocumentID(arg); err != nil {
			return source{}, err
		}
		return source{id: arg}, nil
	}
	if err := errors.ValidatePath(arg); err != nil {
		return source{}, err
	}
	return source{path: arg}, nil
}

func (s source) String() string {
	if s.id != "" {
		return "store:" + s.id
	}
	return s.path
}

// load reads the document and rebuilds its tree.
func (c *CLI) load(ctx context.Context, cfg config.Config, src source) (document.Document, *tree.Tree, error) {
	if src.id == "" {
		return document.Load(src.path)
	}
	st, err := c.openStore(ctx, cfg)
	if err != nil {
		return document.Document{}, nil, err
	}
	defer st.Close()

	d, err := st.Get(ctx, src.id)
	if err != nil {
		return document.Document{}, nil, err
	}
	t, err := document.Import(d)
	if err != nil {
		return document.Document{}, nil, err
	}
	return d, t, nil
}

// save writes d back to where src points. Store saves keep the id.
func (c *CLI) save(ctx context.Context, cfg config.Config, src source, d document.Document) error {
	if src.id == "" {
		return document.WriteFile(src.path, d)
	}
	st, err := c.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	d.ID = src.id
	return st.Put(ctx, &d)
}

// withTree replaces the layout of d with t, keeping its identity.
func withTree(d document.Document, t *tree.Tree) document.Document {
	out := document.Export(t)
	out.ID, out.Name = d.ID, d.Name
	return out
}

// =============================================================================
// new
// =============================================================================

func (c *CLI) newCommand() *cobra.Command {
	var (
		name    string
		toStore bool
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "new [file]",
		Short: "Create an empty document",
		Long: `Create an empty document on the configured grid.

The document is written to the given file, or with --store saved to the
document store under a fresh id, which is printed.`,
		Args: cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			d := document.New(tree.New(cfg.Grid), name)

			if toStore {
				st, err := c.openStore(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.Put(cmd.Context(), &d); err != nil {
					return err
				}
				printSuccess("Created document %s", StyleHighlight.Render(d.ID))
				printNextStep("Edit it", fmt.Sprintf("%s edit --id %s", appName, d.ID))
				return nil
			}

			if len(args) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "a file name is required unless --store is set")
			}
			path := args[0]
			if err := errors.ValidatePath(path); err != nil {
				return err
			}
			if !strings.HasSuffix(path, ".json") {
				path += ".json"
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", path)
			}
			d.ID = ""
			if err := document.WriteFile(path, d); err != nil {
				return err
			}
			printSuccess("Created document")
			printFile(path)
			printNextStep("Edit it", fmt.Sprintf("%s edit %s", appName, path))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "document name")
	cmd.Flags().BoolVar(&toStore, "store", false, "save to the document store instead of a file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}
