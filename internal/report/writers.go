package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	rule          = "===================================================================================================="
	statusMatched = "matched"
	kindMissing   = "missing from scan directory"
	kindOrphan    = "not referenced in XML"

	// utf8BOM lets spreadsheet tools detect the encoding of the CSV files.
	utf8BOM = "\ufeff"
)

var (
	detailHeader    = []string{"Commune", "PDF name", "URL in XML", "XML file", "Scan path", "Status"}
	unmatchedHeader = []string{"Commune", "PDF name", "URL in XML", "XML file", "Kind", "Note"}
	summaryHeader   = []string{"Commune", "XML files", "PDF referenced", "PDF on disk", "Matched", "Match rate %"}
)

// detailRows lists one row per matched name, referencing document and
// path on disk.
func detailRows(results []*CommuneResult) [][]string {
	var rows [][]string
	for _, r := range results {
		for _, name := range r.Matched {
			for _, ref := range r.References.ByName[name] {
				for _, path := range r.OnDisk[name] {
					rows = append(rows, []string{r.Name, name, ref.URL, ref.XMLFile, path, statusMatched})
				}
			}
		}
	}
	return rows
}

// unmatchedRows lists referenced names missing on disk, then files on
// disk that no document references.
func unmatchedRows(results []*CommuneResult) [][]string {
	var rows [][]string
	for _, r := range results {
		for _, name := range r.Missing {
			for _, ref := range r.References.ByName[name] {
				rows = append(rows, []string{r.Name, name, ref.URL, ref.XMLFile, kindMissing,
					"referenced in XML but not present in the scan directory"})
			}
		}
		for _, name := range r.Unreferenced {
			for _, path := range r.OnDisk[name] {
				rows = append(rows, []string{r.Name, name, "", "", kindOrphan,
					"present in the scan directory at " + path})
			}
		}
	}
	return rows
}

func summaryRows(results []*CommuneResult) [][]string {
	rows := make([][]string, 0, len(results)+1)
	for _, r := range results {
		rows = append(rows, []string{
			r.Name,
			fmt.Sprint(r.References.XMLFiles),
			fmt.Sprint(len(r.References.ByName)),
			fmt.Sprint(r.PDFOnDisk),
			fmt.Sprint(len(r.Matched)),
			fmt.Sprintf("%.1f", r.MatchRate()),
		})
	}
	t := Sum(results)
	rows = append(rows, []string{
		"TOTAL",
		fmt.Sprint(t.XMLFiles),
		fmt.Sprint(t.Referenced),
		fmt.Sprint(t.OnDisk),
		fmt.Sprint(t.Matched),
		fmt.Sprintf("%.1f", t.MatchRate()),
	})
	return rows
}

// WriteSummary writes the plain-text overview of a multi-commune run.
func WriteSummary(w io.Writer, results []*CommuneResult, generatedAt time.Time) error {
	t := Sum(results)

	var b strings.Builder
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "PDF CROSS-REFERENCE SUMMARY - ALL COMMUNES")
	fmt.Fprintf(&b, "Generated: %s\n", generatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "TOTALS:")
	writeTotals(&b, "   ", t)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "PER COMMUNE:")
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] COMMUNE: %s\n", i+1, r.Name)
		fmt.Fprintf(&b, "     XML files:        %d\n", r.References.XMLFiles)
		fmt.Fprintf(&b, "     PDF referenced:   %d\n", len(r.References.ByName))
		fmt.Fprintf(&b, "     PDF on disk:      %d\n", r.PDFOnDisk)
		fmt.Fprintf(&b, "     Matched:          %d\n", len(r.Matched))
		if len(r.References.ByName) > 0 {
			fmt.Fprintf(&b, "     Match rate:       %.1f%%\n", r.MatchRate())
		}
		fmt.Fprintln(&b)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTotals(b *strings.Builder, indent string, t Totals) {
	fmt.Fprintf(b, "%sCommunes:          %d\n", indent, t.Communes)
	fmt.Fprintf(b, "%sXML files:         %d\n", indent, t.XMLFiles)
	fmt.Fprintf(b, "%sPDF referenced:    %d\n", indent, t.Referenced)
	fmt.Fprintf(b, "%sPDF on disk:       %d\n", indent, t.OnDisk)
	fmt.Fprintf(b, "%sMatched:           %d\n", indent, t.Matched)
	if t.Referenced > 0 {
		fmt.Fprintf(b, "%sMatch rate:        %.1f%%\n", indent, t.MatchRate())
	}
}

// WriteDetailCSV writes one row per matched reference, prefixed with a
// UTF-8 byte order mark.
func WriteDetailCSV(w io.Writer, results []*CommuneResult) error {
	return writeCSV(w, detailHeader, detailRows(results))
}

// WriteUnmatchedCSV writes the names found on only one side, prefixed with
// a UTF-8 byte order mark.
func WriteUnmatchedCSV(w io.Writer, results []*CommuneResult) error {
	return writeCSV(w, unmatchedHeader, unmatchedRows(results))
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// Files are the paths written by WriteAll.
type Files struct {
	Summary   string
	Detail    string
	Unmatched string
	Workbook  string
}

// WriteAll writes every report of a run into outDir, creating it if
// needed. File names carry the timestamp of now.
func WriteAll(outDir string, results []*CommuneResult, now time.Time) (Files, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Files{}, fmt.Errorf("failed to create report directory: %w", err)
	}

	ts := now.Format("20060102_150405")
	files := Files{
		Summary:   filepath.Join(outDir, "summary_"+ts+".txt"),
		Detail:    filepath.Join(outDir, "detail_"+ts+".csv"),
		Unmatched: filepath.Join(outDir, "unmatched_"+ts+".csv"),
		Workbook:  filepath.Join(outDir, "report_"+ts+".xlsx"),
	}

	writers := []struct {
		path  string
		write func(io.Writer) error
	}{
		{files.Summary, func(w io.Writer) error { return WriteSummary(w, results, now) }},
		{files.Detail, func(w io.Writer) error { return WriteDetailCSV(w, results) }},
		{files.Unmatched, func(w io.Writer) error { return WriteUnmatchedCSV(w, results) }},
	}
	for _, wr := range writers {
		if err := writeFile(wr.path, wr.write); err != nil {
			return Files{}, err
		}
	}

	if err := WriteWorkbook(files.Workbook, results); err != nil {
		return Files{}, err
	}
	return files, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// PrintTotals writes the closing totals of a multi-commune run.
func PrintTotals(w io.Writer, results []*CommuneResult) {
	var b strings.Builder
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "TOTALS")
	fmt.Fprintln(&b, rule)
	writeTotals(&b, "", Sum(results))
	fmt.Fprintln(&b, rule)
	io.WriteString(w, b.String())
}

const (
	shownMatches = 20
	shownPaths   = 3
	shownSamples = 10
)

// PrintMatch writes the console report of a single commune.
func PrintMatch(w io.Writer, r *CommuneResult) {
	var b strings.Builder
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "MATCH RESULTS")
	fmt.Fprintln(&b, rule)

	if len(r.Matched) > 0 {
		fmt.Fprintf(&b, "\nFOUND %d MATCHING FILES:\n\n", len(r.Matched))
		for i, name := range r.Matched[:min(shownMatches, len(r.Matched))] {
			paths := r.OnDisk[name]
			fmt.Fprintf(&b, "[%d] %s\n", i+1, name)
			fmt.Fprintf(&b, "    found at %d locations:\n", len(paths))
			for _, p := range paths[:min(shownPaths, len(paths))] {
				fmt.Fprintf(&b, "       %s\n", p)
			}
			fmt.Fprintf(&b, "    referenced by %d XML files\n\n", len(r.References.ByName[name]))
		}
		if len(r.Matched) > shownMatches {
			fmt.Fprintf(&b, "    ... and %d more matches\n", len(r.Matched)-shownMatches)
		}
	} else {
		fmt.Fprintln(&b, "\nNO MATCHING FILES FOUND")
		if names := r.References.Names(); len(names) > 0 {
			fmt.Fprintf(&b, "\nFirst %d PDF names from XML:\n", shownSamples)
			for i, n := range names[:min(shownSamples, len(names))] {
				fmt.Fprintf(&b, "   %d. %s\n", i+1, n)
			}
		}
		if names := r.OnDisk.Names(); len(names) > 0 {
			fmt.Fprintf(&b, "\nFirst %d PDF names on disk:\n", shownSamples)
			for i, n := range names[:min(shownSamples, len(names))] {
				fmt.Fprintf(&b, "   %d. %s\n", i+1, n)
			}
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "SUMMARY")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "PDF names from XML:    %d\n", len(r.References.ByName))
	fmt.Fprintf(&b, "PDF names on disk:     %d\n", len(r.OnDisk))
	fmt.Fprintf(&b, "Matched:               %d\n", len(r.Matched))
	fmt.Fprintf(&b, "Match rate:            %.1f%%\n", r.MatchRate())
	fmt.Fprintln(&b, rule)
	io.WriteString(w, b.String())
}
