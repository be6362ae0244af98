package batch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/cadastre/internal/discovery"
	"github.com/stwalsh4118/cadastre/internal/logger"
	"github.com/stwalsh4118/cadastre/internal/metrics"
	"github.com/stwalsh4118/cadastre/internal/models"
	"github.com/stwalsh4118/cadastre/internal/repository"
	"github.com/stwalsh4118/cadastre/internal/services"
)

// documentXML builds a document with one record of every kind, all keyed
// by suffix.
func documentXML(suffix string) string {
	return fmt.Sprintf(`<Root>
  <ThuaDatCollection><DC_ThuaDat><thuaDatID>TD-%[1]s</thuaDatID><dienTich>10</dienTich></DC_ThuaDat></ThuaDatCollection>
  <CaNhanCollection><CaNhan><caNhanID>CN-%[1]s</caNhanID></CaNhan></CaNhanCollection>
  <GiayChungNhanCollection><GiayChungNhan><giayChungNhanID>GCN-%[1]s</giayChungNhanID></GiayChungNhan></GiayChungNhanCollection>
  <HoSoDangKyDatDaiCollection><HoSoDangKyDatDai>
    <giayChungNhanID>GCN-%[1]s</giayChungNhanID>
    <ThanhPhanHoSoDangKyDatDaiCollection>
      <ThanhPhanHoSoDangKyDatDai><thanhPhanHoSoID>TP-%[1]s</thanhPhanHoSoID></ThanhPhanHoSoDangKyDatDai>
    </ThanhPhanHoSoDangKyDatDaiCollection>
  </HoSoDangKyDatDai></HoSoDangKyDatDaiCollection>
</Root>`, suffix)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestRunner(store repository.IngestStore, opts Options) *Runner {
	log := logger.Nop()
	return NewRunner(store, services.NewLoader(log), log, opts)
}

func TestRun_FailureIsolation(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "xa-1", "xml")
	writeFile(t, filepath.Join(dir, "1.xml"), documentXML("1"))
	writeFile(t, filepath.Join(dir, "2.xml"), "<Root><unclosed></Root>")
	writeFile(t, filepath.Join(dir, "3.xml"), documentXML("3"))

	groups, err := discovery.FindMarkedDirs(root, "xml")
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	var out bytes.Buffer
	runner := newTestRunner(store, Options{Workers: 3, Out: &out})

	summary, err := runner.Run(context.Background(), groups)

	assert.ErrorIs(t, err, ErrFilesFailed)
	assert.Equal(t, 2, summary.FilesProcessed)
	assert.Equal(t, 1, summary.FilesFailed)
	for _, k := range models.LoadOrder {
		assert.Equal(t, services.KindCount{Inserted: 2}, summary.Counts[k], "kind %s", k)
	}
	assert.Contains(t, out.String(), "2.xml... FAILED")
	assert.Contains(t, out.String(), "1.xml... OK")
}

func TestRun_IdempotentSecondRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "xa-1", "xml", "a.xml"), documentXML("a"))
	writeFile(t, filepath.Join(root, "xa-2", "xml", "b.xml"), documentXML("b"))
	// the same document in two groups overlaps completely
	writeFile(t, filepath.Join(root, "xa-2", "xml", "copy", "a.xml"), documentXML("a"))

	groups, err := discovery.FindMarkedDirs(root, "xml")
	require.NoError(t, err)
	store := repository.NewMemoryStore()

	first, err := newTestRunner(store, Options{Workers: 1}).Run(context.Background(), groups)
	require.NoError(t, err)
	assert.Equal(t, 3, first.FilesProcessed)
	assert.Equal(t, services.KindCount{Inserted: 2, Skipped: 1}, first.Counts[models.KindParcel])

	second, err := newTestRunner(store, Options{}).Run(context.Background(), groups)
	require.NoError(t, err)
	for _, k := range models.LoadOrder {
		assert.Equal(t, 0, second.Counts[k].Inserted, "kind %s", k)
		assert.Equal(t, 3, second.Counts[k].Skipped, "kind %s", k)
	}
}

func TestRun_LimitCountsSuccessfulFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "xa-1", "xml", "1.xml"), documentXML("1"))
	writeFile(t, filepath.Join(root, "xa-1", "xml", "2.xml"), "<Root><ThuaDatCollection></Root>")
	writeFile(t, filepath.Join(root, "xa-2", "xml", "3.xml"), documentXML("3"))
	writeFile(t, filepath.Join(root, "xa-2", "xml", "4.xml"), documentXML("4"))
	writeFile(t, filepath.Join(root, "xa-3", "xml", "5.xml"), documentXML("5"))

	groups, err := discovery.FindMarkedDirs(root, "xml")
	require.NoError(t, err)

	summary, err := newTestRunner(repository.NewMemoryStore(), Options{Limit: 2}).Run(context.Background(), groups)

	// group 1 takes both files (one fails), group 2 is cut to the one
	// remaining success, group 3 is never scheduled
	assert.ErrorIs(t, err, ErrFilesFailed)
	assert.Equal(t, 2, summary.FilesProcessed)
	assert.Equal(t, 1, summary.FilesFailed)
}

func TestRun_NoGroups(t *testing.T) {
	summary, err := newTestRunner(repository.NewMemoryStore(), Options{}).Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Zero(t, summary.FilesProcessed)
	assert.Zero(t, summary.FilesFailed)
}

// panickingStore fails every unit of work with a panic.
type panickingStore struct{}

func (panickingStore) Open(ctx context.Context) (repository.IngestSession, error) {
	panic("connection pool exploded")
}

func TestRun_PanicIsRecoveredAsFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "xa-1", "xml", "1.xml"), documentXML("1"))
	writeFile(t, filepath.Join(root, "xa-1", "xml", "2.xml"), documentXML("2"))

	groups, err := discovery.FindMarkedDirs(root, "xml")
	require.NoError(t, err)

	summary, err := newTestRunner(panickingStore{}, Options{Workers: 2}).Run(context.Background(), groups)

	assert.ErrorIs(t, err, ErrFilesFailed)
	assert.Equal(t, 0, summary.FilesProcessed)
	assert.Equal(t, 2, summary.FilesFailed)
}

func TestRun_CancelledContextSchedulesNothing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "xa-1", "xml", "1.xml"), documentXML("1"))
	groups, err := discovery.FindMarkedDirs(root, "xml")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := newTestRunner(repository.NewMemoryStore(), Options{}).Run(ctx, groups)
	require.NoError(t, err)
	assert.Zero(t, summary.FilesProcessed)
}

func TestRun_MirrorsMetrics(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "xa-1", "xml", "1.xml"), documentXML("1"))
	groups, err := discovery.FindMarkedDirs(root, "xml")
	require.NoError(t, err)

	m := metrics.New()
	_, err = newTestRunner(repository.NewMemoryStore(), Options{Metrics: m}).Run(context.Background(), groups)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "load.prom")
	require.NoError(t, m.WriteTextfile(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `cadastre_load_files_total{result="processed"} 1`)
	assert.Contains(t, string(raw), `cadastre_load_records_inserted_total{kind="parcel"} 1`)
}

func TestSummaryPrint(t *testing.T) {
	summary := Summary{
		FilesProcessed: 2,
		FilesFailed:    1,
		Counts: map[models.Kind]services.KindCount{
			models.KindParcel: {Inserted: 5, Skipped: 1},
		},
	}

	var buf bytes.Buffer
	summary.Print(&buf)

	out := buf.String()
	assert.Contains(t, out, "PROCESSING SUMMARY")
	lines := strings.Split(out, "\n")
	var parcelLine string
	for _, l := range lines {
		if strings.HasPrefix(l, "ThuaDat") {
			parcelLine = l
		}
	}
	assert.Equal(t, []string{"ThuaDat", "(parcels)", "5", "1"}, strings.Fields(parcelLine))
}
