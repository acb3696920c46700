package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cutgraph/pkg/document"
	"github.com/matzehuels/cutgraph/pkg/errors"
)

// storeCommand groups the document store subcommands.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage stored documents",
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storePushCommand())
	cmd.AddCommand(c.storePullCommand())
	cmd.AddCommand(c.storeRemoveCommand())

	return cmd
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored documents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			st, err := c.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printInfo("No stored documents")
				return nil
			}
			for _, e := range entries {
				name := e.Name
				if name == "" {
					name = "-"
				}
				fmt.Printf("%s  %s  %s  %s\n",
					StyleHighlight.Render(e.ID),
					StyleValue.Render(name),
					StyleNumber.Render(fmt.Sprintf("%d nodes", e.Nodes)),
					StyleDim.Render(e.Modified.Local().Format(time.DateTime)))
			}
			return nil
		},
	}
}

// storePushCommand uploads a document file.
func (c *CLI) storePushCommand() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "push [file]",
		Short: "Save a document file to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			// Import validates the layout before it reaches the store.
			d, _, err := document.Load(args[0])
			if err != nil {
				return err
			}
			if id != "" {
				d.ID = id
			}

			st, err := c.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Put(cmd.Context(), &d); err != nil {
				return err
			}
			printSuccess("Stored %s as %s", args[0], StyleHighlight.Render(d.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "store under this id instead of the file's own or a fresh one")

	return cmd
}

// storePullCommand downloads a stored document to a file.
func (c *CLI) storePullCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:               "pull [id]",
		Short:             "Write a stored document to a file",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeDocumentIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			st, err := c.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			d, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = d.ID + ".json"
			}
			if err := errors.ValidatePath(output); err != nil {
				return err
			}
			if err := document.WriteFile(output, d); err != nil {
				return err
			}
			printSuccess("Pulled %s", d.ID)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <id>.json)")

	return cmd
}

func (c *CLI) storeRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "rm [id]...",
		Aliases:           []string{"remove"},
		Short:             "Remove stored documents",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeDocumentIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			st, err := c.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, id := range args {
				if err := st.Delete(cmd.Context(), id); err != nil {
					return err
				}
				printSuccess("Removed %s", id)
			}
			return nil
		},
	}
}
