package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stwalsh4118/cadastre/internal/models"
	"github.com/stwalsh4118/cadastre/internal/services"
)

func TestStats(t *testing.T) {
	s := NewStats(nil)

	s.RecordSuccess(services.LoadResult{Counts: map[models.Kind]services.KindCount{
		models.KindParcel: {Inserted: 2, Skipped: 1},
		models.KindPerson: {Inserted: 3},
	}}, time.Millisecond)
	s.RecordSuccess(services.LoadResult{Counts: map[models.Kind]services.KindCount{
		models.KindParcel: {Skipped: 3},
	}}, time.Millisecond)
	s.RecordFailure(time.Millisecond)

	got := s.Snapshot()
	assert.Equal(t, 2, got.FilesProcessed)
	assert.Equal(t, 1, got.FilesFailed)
	assert.Equal(t, services.KindCount{Inserted: 2, Skipped: 4}, got.Counts[models.KindParcel])
	assert.Equal(t, services.KindCount{Inserted: 3}, got.Counts[models.KindPerson])
	assert.Equal(t, services.KindCount{}, got.Counts[models.KindComponent])

	t.Run("snapshot is a copy", func(t *testing.T) {
		got.Counts[models.KindParcel] = services.KindCount{}
		assert.Equal(t, 2, s.Snapshot().Counts[models.KindParcel].Inserted)
	})
}
