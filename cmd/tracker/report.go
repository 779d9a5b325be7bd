package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
)

func newReportCmd(app *application) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show per-room statistics across all runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(cmd); err != nil {
				return err
			}

			reports, err := app.services.Report.Generate(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}
			return printReport(out, reports)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func newDoorsCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "doors <room>",
		Short: "Show left/right door counts for one room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := strconv.Atoi(args[0])
			if err != nil {
				return apperrors.Newf(apperrors.ErrInvalidParam, "房间编号无效: %s", args[0])
			}

			if err := app.setup(cmd); err != nil {
				return err
			}

			counts, err := app.services.Catalog.DoorCounts(cmd.Context(), room)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Room %d: left=%d right=%d\n", room, counts.Left, counts.Right)
			return nil
		},
	}
}
