package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/stwalsh4118/cadastre/internal/config"
	"github.com/stwalsh4118/cadastre/internal/logger"
	"github.com/stwalsh4118/cadastre/internal/report"
)

func newPDFMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdf-match --xml-dir <dir> --scan-dir <dir>",
		Short: "Match the PDF names referenced by one commune against its scanned files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if cfg.Ingest.RootDir == "" {
				return fmt.Errorf("--xml-dir is required")
			}
			dirs := resolveMatchDirs(cfg.Ingest.RootDir, cfg.Report.ScanDir, cmd.Flags().Changed("scan-dir"))
			xmlDir, scanDir := dirs.xml, dirs.scan
			out := cmd.OutOrStdout()

			if _, err := os.Stat(scanDir); os.IsNotExist(err) {
				fmt.Fprintf(out, "Scan directory not found: %s\n", scanDir)
			}

			result, err := report.MatchCommune(dirs.commune, xmlDir, scanDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Scanned %d XML files (%d unreadable), found %d unique PDF names\n",
				result.References.XMLFiles, result.References.Unparseable, len(result.References.ByName))
			fmt.Fprintf(out, "Found %d PDF files, %d unique names\n\n", result.PDFOnDisk, len(result.OnDisk))

			report.PrintMatch(out, result)
			return nil
		},
	}

	cmd.Flags().String("xml-dir", "", "directory of XML documents (XML_DIR)")
	cmd.Flags().String("scan-dir", "", "directory of scanned PDF files (REPORT_SCAN_DIR)")
	return cmd
}

type matchDirs struct {
	commune string
	xml     string
	scan    string
}

// resolveMatchDirs names the commune after the parent of the xml directory.
// A relative scan directory that was not given explicitly sits next to the
// xml directory.
func resolveMatchDirs(xmlDir, scanDir string, scanDirSet bool) matchDirs {
	xmlDir = filepath.Clean(xmlDir)
	parent := filepath.Dir(xmlDir)
	if !scanDirSet && !filepath.IsAbs(scanDir) {
		scanDir = filepath.Join(parent, scanDir)
	}
	return matchDirs{commune: filepath.Base(parent), xml: xmlDir, scan: scanDir}
}

func newPDFReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdf-report --base-dir <dir> [--out-dir <dir>]",
		Short: "Cross-reference every commune and write summary, CSV and XLSX reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.ValidateReport(); err != nil {
				return err
			}
			if cfg.Report.BaseDir == "" {
				return fmt.Errorf("--base-dir is required")
			}
			if info, err := os.Stat(cfg.Report.BaseDir); err != nil || !info.IsDir() {
				return fmt.Errorf("base directory not found: %s", cfg.Report.BaseDir)
			}
			log := logger.New(cfg.Server.Env)
			out := cmd.OutOrStdout()

			scanner := report.NewScanner(log, report.ScannerOptions{
				XMLDir:  cfg.Report.XMLDir,
				ScanDir: cfg.Report.ScanDir,
				Workers: cfg.Report.Workers,
				Out:     out,
			})
			results, err := scanner.ScanAll(cmd.Context(), cfg.Report.BaseDir)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return fmt.Errorf("no commune under %s has a %s/ directory", cfg.Report.BaseDir, cfg.Report.XMLDir)
			}

			files, err := report.WriteAll(cfg.Report.OutputDir, results, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "\nReports written:")
			fmt.Fprintf(out, "   summary:   %s\n", files.Summary)
			fmt.Fprintf(out, "   detail:    %s\n", files.Detail)
			fmt.Fprintf(out, "   unmatched: %s\n", files.Unmatched)
			fmt.Fprintf(out, "   workbook:  %s\n\n", files.Workbook)

			report.PrintTotals(out, results)
			log.Info("PDF report finished", map[string]interface{}{
				"communes": len(results),
				"out_dir":  cfg.Report.OutputDir,
			})
			return nil
		},
	}

	cmd.Flags().String("base-dir", "", "directory holding one folder per commune (REPORT_BASE_DIR)")
	cmd.Flags().String("out-dir", "", "directory the reports are written to (REPORT_OUTPUT_DIR)")
	return cmd
}
