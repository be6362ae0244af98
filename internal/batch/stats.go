package batch

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/stwalsh4118/cadastre/internal/metrics"
	"github.com/stwalsh4118/cadastre/internal/models"
	"github.com/stwalsh4118/cadastre/internal/services"
)

// Summary is a point-in-time copy of the run counters.
type Summary struct {
	FilesProcessed int
	FilesFailed    int
	Counts         map[models.Kind]services.KindCount
}

// Stats aggregates counters across workers. It is owned by one Runner and
// mirrors every update to the run metrics.
type Stats struct {
	mu      sync.Mutex
	summary Summary
	metrics *metrics.Metrics
}

// NewStats creates zeroed counters. m may be nil.
func NewStats(m *metrics.Metrics) *Stats {
	return &Stats{
		summary: Summary{Counts: make(map[models.Kind]services.KindCount, len(models.LoadOrder))},
		metrics: m,
	}
}

// RecordSuccess adds the counts of one loaded document.
func (s *Stats) RecordSuccess(result services.LoadResult, d time.Duration) {
	s.mu.Lock()
	s.summary.FilesProcessed++
	for _, k := range models.LoadOrder {
		c := result.Get(k)
		total := s.summary.Counts[k]
		total.Inserted += c.Inserted
		total.Skipped += c.Skipped
		s.summary.Counts[k] = total
	}
	s.mu.Unlock()

	s.metrics.FileDone(true, d)
	for _, k := range models.LoadOrder {
		c := result.Get(k)
		s.metrics.Records(string(k), c.Inserted, c.Skipped)
	}
}

// RecordFailure counts one failed document. It contributes nothing else.
func (s *Stats) RecordFailure(d time.Duration) {
	s.mu.Lock()
	s.summary.FilesFailed++
	s.mu.Unlock()

	s.metrics.FileDone(false, d)
}

// Snapshot returns a copy of the counters.
func (s *Stats) Snapshot() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Summary{
		FilesProcessed: s.summary.FilesProcessed,
		FilesFailed:    s.summary.FilesFailed,
		Counts:         make(map[models.Kind]services.KindCount, len(s.summary.Counts)),
	}
	for k, c := range s.summary.Counts {
		out.Counts[k] = c
	}
	return out
}

var kindLabels = map[models.Kind]string{
	models.KindParcel:      "ThuaDat (parcels)",
	models.KindPerson:      "CaNhan (persons)",
	models.KindCertificate: "GiayChungNhan (certificates)",
	models.KindComponent:   "HoSo (document components)",
}

// Print writes the summary table to w.
func (s Summary) Print(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROCESSING SUMMARY")
	fmt.Fprintf(tw, "Files processed:\t%d\n", s.FilesProcessed)
	fmt.Fprintf(tw, "Files failed:\t%d\n", s.FilesFailed)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Kind\tInserted\tSkipped")
	for _, k := range []models.Kind{models.KindParcel, models.KindPerson, models.KindCertificate, models.KindComponent} {
		c := s.Counts[k]
		fmt.Fprintf(tw, "%s\t%d\t%d\n", kindLabels[k], c.Inserted, c.Skipped)
	}
	tw.Flush()
}
