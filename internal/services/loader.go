package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/stwalsh4118/cadastre/internal/logger"
	"github.com/stwalsh4118/cadastre/internal/models"
	"github.com/stwalsh4118/cadastre/internal/repository"
)

// KindCount is the outcome of loading one record kind.
type KindCount struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// LoadResult holds per-kind counts for one document. Failed lists the
// kinds whose insert was rolled back, in load order.
type LoadResult struct {
	Counts map[models.Kind]KindCount
	Failed []models.Kind
}

// Get returns the counts of kind k.
func (r LoadResult) Get(k models.Kind) KindCount {
	return r.Counts[k]
}

// Loader persists the records of one document through a dedicated session.
type Loader struct {
	log *logger.Logger
}

// NewLoader creates a new Loader.
func NewLoader(log *logger.Logger) *Loader {
	return &Loader{log: log}
}

// Load inserts records in dependency order: persons, certificates,
// parcels, then document components. Existing identifiers are skipped.
//
// A failed insert rolls back the open transaction. The failing kind, and
// every kind already written in that transaction, is reported as fully
// skipped; loading continues with the next kind in a new transaction.
// Only a failure to begin or commit a transaction is returned as an error.
func (l *Loader) Load(ctx context.Context, session repository.IngestSession, records *models.Records) (LoadResult, error) {
	result := LoadResult{Counts: make(map[models.Kind]KindCount, len(models.LoadOrder))}

	var tx repository.IngestTx
	var pending []models.Kind

	for _, kind := range models.LoadOrder {
		n := records.Len(kind)
		if n == 0 {
			result.Counts[kind] = KindCount{}
			continue
		}

		if tx == nil {
			var err error
			if tx, err = session.Begin(ctx); err != nil {
				return result, err
			}
		}

		inserted, err := l.insert(ctx, tx, kind, records)
		if err != nil {
			l.log.Error("Insert failed, rolling back document transaction", err, map[string]interface{}{
				"kind":    kind,
				"records": n,
				"undone":  pending,
			})
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				l.log.Warn("Rollback failed", map[string]interface{}{"error": rbErr.Error()})
			}
			for _, k := range append(pending, kind) {
				result.Counts[k] = KindCount{Skipped: records.Len(k)}
			}
			result.Failed = append(result.Failed, kind)
			tx, pending = nil, nil
			continue
		}

		result.Counts[kind] = KindCount{Inserted: inserted, Skipped: n - inserted}
		pending = append(pending, kind)
	}

	if tx != nil {
		if err := tx.Commit(ctx); err != nil {
			for _, k := range pending {
				result.Counts[k] = KindCount{Skipped: records.Len(k)}
			}
			return result, fmt.Errorf("failed to commit document transaction: %w", err)
		}
	}

	return result, nil
}

func (l *Loader) insert(ctx context.Context, tx repository.IngestTx, kind models.Kind, records *models.Records) (int, error) {
	switch kind {
	case models.KindPerson:
		return tx.InsertPersons(ctx, records.Persons)
	case models.KindCertificate:
		return tx.InsertCertificates(ctx, records.Certificates)
	case models.KindParcel:
		return tx.InsertParcels(ctx, records.Parcels)
	case models.KindComponent:
		return tx.InsertDocumentComponents(ctx, l.verifyCertificates(ctx, tx, records.Components))
	}
	return 0, fmt.Errorf("unknown record kind %q", kind)
}

// verifyCertificates returns a copy of components in which every
// certificate reference missing from the store is nulled. If the lookup
// fails every reference is kept.
func (l *Loader) verifyCertificates(ctx context.Context, tx repository.IngestTx, components []models.DocumentComponent) []models.DocumentComponent {
	out := make([]models.DocumentComponent, len(components))
	copy(out, components)

	ids := referencedCertificates(out)
	if len(ids) == 0 {
		return out
	}

	existing, err := tx.ExistingCertificateIDs(ctx, ids)
	if err != nil {
		l.log.Warn("Certificate check failed, assuming all references are valid", map[string]interface{}{
			"error":        err.Error(),
			"certificates": len(ids),
		})
		return out
	}

	nulled := 0
	for i := range out {
		if id := out[i].CertificateID; id != nil {
			if _, ok := existing[*id]; !ok {
				out[i].CertificateID = nil
				nulled++
			}
		}
	}
	if nulled > 0 {
		l.log.Debug("Nulled dangling certificate references", map[string]interface{}{
			"components": nulled,
		})
	}
	return out
}

func referencedCertificates(components []models.DocumentComponent) []string {
	seen := make(map[string]struct{})
	for _, c := range components {
		if c.CertificateID != nil {
			seen[*c.CertificateID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
