package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLootCmd(app *application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loot",
		Short: "Loot catalog commands",
	}

	cmd.AddCommand(newLootListCmd(app))
	cmd.AddCommand(newLootAddCmd(app))
	return cmd
}

func newLootListCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List loot items in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(cmd); err != nil {
				return err
			}

			names, err := app.services.Catalog.ListLootItems(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No loot items.")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}

func newLootAddCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a loot item to the catalog",
		Long:  "Adds a loot item. Names are case-sensitive and must be unique; words are joined with a single space.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(cmd); err != nil {
				return err
			}

			item, err := app.services.Catalog.AddLootItem(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added loot item %q (id %d)\n", item.Name, item.ID)
			return nil
		},
	}
}
