package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/repository"
	"github.com/noah-isme/school-indicators-api/internal/service"
	"github.com/noah-isme/school-indicators-api/pkg/database"
	"github.com/noah-isme/school-indicators-api/pkg/storage"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render indicator reports to files",
	}
	cmd.AddCommand(newExportAtRiskCmd(a), newExportPruneCmd(a))
	return cmd
}

func newExportAtRiskCmd(a *app) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "at-risk",
		Short: "Export students at academic risk as CSV or PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := database.NewPostgres(a.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			kpiSvc := service.NewKPIService(service.KPIServiceParams{
				Repo:   repository.NewKPIRepository(db),
				Logger: a.logger,
			})
			result, err := service.NewExportService(kpiSvc, a.logger).WithTitle(a.cfg.Export.Title).AtRisk(cmd.Context(), format)
			if err != nil {
				return err
			}
			if out == "" {
				out = a.cfg.Export.Dir
			}
			path, err := writeReport(cmd.OutOrStdout(), out, result)
			if err != nil {
				return err
			}
			a.logger.Info("report exported", zap.String("path", path), zap.Int("rows", result.Rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(service.ExportCSV), "csv or pdf")
	cmd.Flags().StringVar(&out, "out", "", "output file or directory, - for stdout (default EXPORT_DIR)")
	return cmd
}

// writeReport stores the payload at out. A path with an extension names the
// file, anything else is a directory that receives the generated filename,
// and "-" streams to stdout.
func writeReport(stdout io.Writer, out string, result *service.ExportResult) (string, error) {
	if out == "-" {
		_, err := stdout.Write(result.Payload)
		return "stdout", err
	}
	dir, name := out, result.Filename
	if filepath.Ext(out) != "" {
		dir, name = filepath.Dir(out), filepath.Base(out)
	}
	store, err := storage.NewReportStore(dir)
	if err != nil {
		return "", err
	}
	return store.Save(name, result.Payload)
}

func newExportPruneCmd(a *app) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete exported reports older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := storage.NewReportStore(a.cfg.Export.Dir)
			if err != nil {
				return err
			}
			removed, err := store.Prune(olderThan, time.Now())
			if err != nil {
				return err
			}
			for _, name := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			a.logger.Info("reports pruned", zap.Int("removed", len(removed)), zap.Duration("older_than", olderThan))
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "minimum report age")
	return cmd
}
