package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/stwalsh4118/cadastre/internal/discovery"
	"github.com/stwalsh4118/cadastre/internal/logger"
	"golang.org/x/sync/errgroup"
)

// CommuneResult is the cross-reference of one commune.
type CommuneResult struct {
	Name         string
	References   *References
	OnDisk       Index
	PDFOnDisk    int
	Matched      []string
	Missing      []string
	Unreferenced []string
}

// MatchRate is the share of referenced names found on disk, in percent.
func (c *CommuneResult) MatchRate() float64 {
	return rate(len(c.Matched), len(c.References.ByName))
}

func rate(matched, referenced int) float64 {
	if referenced == 0 {
		return 0
	}
	return float64(matched) * 100 / float64(referenced)
}

// MatchCommune cross-references the documents under xmlDir with the PDF
// files under scanDir. A missing xmlDir yields an empty result.
func MatchCommune(name, xmlDir, scanDir string) (*CommuneResult, error) {
	result := &CommuneResult{
		Name:       name,
		References: &References{ByName: map[string][]Reference{}},
		OnDisk:     Index{},
	}
	if _, err := os.Stat(xmlDir); os.IsNotExist(err) {
		return result, nil
	}

	refs, err := ExtractPDFReferences(xmlDir)
	if err != nil {
		return nil, err
	}
	idx, count, err := IndexPDFFiles(scanDir)
	if err != nil {
		return nil, err
	}
	result.References = refs
	result.OnDisk = idx
	result.PDFOnDisk = count

	for _, n := range refs.Names() {
		if _, ok := idx[n]; ok {
			result.Matched = append(result.Matched, n)
		} else {
			result.Missing = append(result.Missing, n)
		}
	}
	for _, n := range idx.Names() {
		if _, ok := refs.ByName[n]; !ok {
			result.Unreferenced = append(result.Unreferenced, n)
		}
	}
	return result, nil
}

// Totals sums the results of several communes.
type Totals struct {
	Communes   int
	XMLFiles   int
	Referenced int
	OnDisk     int
	Matched    int
}

// MatchRate is the share of referenced names found on disk, in percent.
func (t Totals) MatchRate() float64 {
	return rate(t.Matched, t.Referenced)
}

// Sum adds up results.
func Sum(results []*CommuneResult) Totals {
	t := Totals{Communes: len(results)}
	for _, r := range results {
		t.XMLFiles += r.References.XMLFiles
		t.Referenced += len(r.References.ByName)
		t.OnDisk += r.PDFOnDisk
		t.Matched += len(r.Matched)
	}
	return t
}

// ScannerOptions configures a Scanner.
type ScannerOptions struct {
	XMLDir  string // name of the document directory inside a commune
	ScanDir string // name of the scanned-file directory inside a commune
	Workers int
	Out     io.Writer
}

// Scanner cross-references every commune below a base directory.
type Scanner struct {
	log  *logger.Logger
	opts ScannerOptions
	mu   sync.Mutex
}

// NewScanner creates a Scanner.
func NewScanner(log *logger.Logger, opts ScannerOptions) *Scanner {
	if opts.XMLDir == "" {
		opts.XMLDir = "xml"
	}
	if opts.ScanDir == "" {
		opts.ScanDir = "ho-so-quet"
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Scanner{log: log, opts: opts}
}

// ScanAll matches every child directory of baseDir holding an XMLDir.
// Communes run concurrently; results keep commune name order. The first
// error cancels the remaining communes.
func (s *Scanner) ScanAll(ctx context.Context, baseDir string) ([]*CommuneResult, error) {
	communes, err := discovery.FindMarkedDirs(baseDir, s.opts.XMLDir)
	if err != nil {
		return nil, err
	}
	s.log.Info("Scanning communes", map[string]interface{}{
		"base_dir": baseDir,
		"communes": len(communes),
		"workers":  s.opts.Workers,
	})

	results := make([]*CommuneResult, len(communes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	done := 0
	for i, c := range communes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scanDir := filepath.Join(filepath.Dir(c.Dir), s.opts.ScanDir)
			r, err := MatchCommune(c.Name, c.Dir, scanDir)
			if err != nil {
				return fmt.Errorf("commune %s: %w", c.Name, err)
			}
			results[i] = r

			s.mu.Lock()
			done++
			fmt.Fprintf(s.opts.Out, "[%d/%d] %s: XML %d, PDF referenced %d, PDF on disk %d, matched %d\n",
				done, len(communes), r.Name, r.References.XMLFiles, len(r.References.ByName), r.PDFOnDisk, len(r.Matched))
			s.mu.Unlock()

			s.log.Debug("Commune matched", map[string]interface{}{
				"commune":     r.Name,
				"unparseable": r.References.Unparseable,
				"matched":     len(r.Matched),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
