package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/school-indicators-api/internal/models"
	"github.com/noah-isme/school-indicators-api/internal/repository"
	"github.com/noah-isme/school-indicators-api/internal/service"
	"github.com/noah-isme/school-indicators-api/pkg/database"
)

func newProbeCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Inspect the external reporting table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := database.NewPostgres(a.cfg.ExternalDatabase)
			if err != nil {
				return err
			}
			defer db.Close()
			svc := service.NewIndicatorService(repository.NewIndicatorRepository(db), a.logger)
			sample, err := svc.Probe(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printSample(cmd.OutOrStdout(), sample)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum rows to sample")
	return cmd
}

func printSample(w io.Writer, sample *models.IndicatorSample) error {
	if !sample.Exists {
		fmt.Fprintf(w, "table %s not found\n", sample.Table)
		if len(sample.OtherTables) == 0 {
			fmt.Fprintln(w, "no public tables")
			return nil
		}
		fmt.Fprintln(w, "public tables:")
		for _, t := range sample.OtherTables {
			fmt.Fprintf(w, "  %s\n", t)
		}
		return nil
	}

	fmt.Fprintf(w, "table %s: %d sample rows\n", sample.Table, len(sample.Rows))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(sample.Columns, "\t"))
	for _, row := range sample.Rows {
		values := make([]string, len(sample.Columns))
		for i, col := range sample.Columns {
			values[i] = row[col]
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}
	return tw.Flush()
}
