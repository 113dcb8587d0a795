package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gostatsplot/adapters/postgres"
	"gostatsplot/adapters/report"
	"gostatsplot/internal/errors"
	"gostatsplot/ports"
)

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations (needs DATABASE_URL)",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Database.URL == "" {
				return errors.ConfigInvalid("DATABASE_URL is required")
			}
			db, err := postgres.Connect(cmd.Context(), c.cfg.Database.URL)
			if err != nil {
				return errors.WithCode(errors.CodeDatabaseError, err)
			}
			defer db.Close()

			applied, err := postgres.NewMigrator(db).Up(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			}
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Database.URL == "" {
				return errors.ConfigInvalid("DATABASE_URL is required")
			}
			db, err := postgres.Connect(cmd.Context(), c.cfg.Database.URL)
			if err != nil {
				return errors.WithCode(errors.CodeDatabaseError, err)
			}
			defer db.Close()

			statuses, err := postgres.NewMigrator(db).Status(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MIGRATION\tAPPLIED")
			for _, s := range statuses {
				fmt.Fprintf(w, "%s\t%t\n", s.Name, s.Applied)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(up, status)
	return cmd
}

func newRunsCmd(c *cli) *cobra.Command {
	var filters ports.RunFilters
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctr, err := c.container(cmd.Context())
			if err != nil {
				return err
			}
			defer ctr.Close()

			runs, err := ctr.Runs.List(cmd.Context(), filters)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tOPERATION\tTYPE\tCREATED\tSUBTITLE")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Operation, r.TestType, r.CreatedAt.Format("2006-01-02 15:04"), r.Subtitle)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&filters.Operation, "operation", "", "Only runs of this operation")
	cmd.Flags().IntVar(&filters.Limit, "limit", 20, "Maximum runs listed")
	cmd.Flags().IntVar(&filters.Offset, "offset", 0, "Runs skipped")
	return cmd
}

func newReportCmd(c *cli) *cobra.Command {
	var filters ports.RunFilters
	var title, out string
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render recorded runs as markdown or HTML",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctr, err := c.container(cmd.Context())
			if err != nil {
				return err
			}
			defer ctr.Close()

			runs, err := ctr.Runs.List(cmd.Context(), filters)
			if err != nil {
				return err
			}
			rep := report.New(title, runs)
			body := rep.Markdown()
			if asHTML {
				body = rep.HTML()
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d runs)\n", out, len(runs))
			return nil
		},
	}
	cmd.Flags().StringVar(&filters.Operation, "operation", "", "Only runs of this operation")
	cmd.Flags().IntVar(&filters.Limit, "limit", 50, "Maximum runs included")
	cmd.Flags().StringVar(&title, "title", "gostatsplot runs", "Report title")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file; stdout when empty")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render HTML instead of markdown")
	return cmd
}
