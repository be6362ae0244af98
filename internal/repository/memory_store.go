package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/stwalsh4118/cadastre/internal/models"
)

// ErrForeignKey mirrors a foreign key violation in the memory store.
var ErrForeignKey = errors.New("foreign key violation")

// MemoryStore is an IngestStore that keeps rows in process memory. It
// follows the same skip-on-conflict and foreign key rules as the
// PostgreSQL schema and backs dry runs.
type MemoryStore struct {
	mu     sync.Mutex
	tables map[models.Kind]map[string]any
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	tables := make(map[models.Kind]map[string]any, len(models.LoadOrder))
	for _, k := range models.LoadOrder {
		tables[k] = make(map[string]any)
	}
	return &MemoryStore{tables: tables}
}

// Open returns a session; the memory store has no connection limit.
func (s *MemoryStore) Open(ctx context.Context) (IngestSession, error) {
	return &memorySession{store: s}, nil
}

// Count returns the number of stored rows of kind k.
func (s *MemoryStore) Count(k models.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[k])
}

// Parcel returns the stored parcel with the given id.
func (s *MemoryStore) Parcel(id string) (models.Parcel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.tables[models.KindParcel][id].(models.Parcel)
	return p, ok
}

// Component returns the stored document component with the given id.
func (s *MemoryStore) Component(id string) (models.DocumentComponent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.tables[models.KindComponent][id].(models.DocumentComponent)
	return c, ok
}

type memorySession struct {
	store *MemoryStore
}

func (s *memorySession) Begin(ctx context.Context) (IngestTx, error) {
	return &memoryTx{store: s.store}, nil
}

func (s *memorySession) Close() {}

type memoryRow struct {
	kind models.Kind
	id   string
}

// memoryTx writes through to the store and undoes its own rows on rollback,
// so the first writer of an id wins across concurrent transactions.
type memoryTx struct {
	store   *MemoryStore
	written []memoryRow
	done    bool
}

func (t *memoryTx) InsertPersons(ctx context.Context, persons []models.Person) (int, error) {
	for _, p := range persons {
		for field, v := range map[string]*string{
			"gender": p.Gender, "document type code": p.DocumentTypeCode, "version": p.Version,
		} {
			if _, err := intArg(field, v); err != nil {
				return 0, fmt.Errorf("person %s: %w", models.StringValue(p.ID), err)
			}
		}
	}
	return t.insert(models.KindPerson, len(persons), func(i int) (string, any, error) {
		return models.StringValue(persons[i].ID), persons[i], nil
	})
}

func (t *memoryTx) InsertCertificates(ctx context.Context, certs []models.Certificate) (int, error) {
	return t.insert(models.KindCertificate, len(certs), func(i int) (string, any, error) {
		return models.StringValue(certs[i].ID), certs[i], nil
	})
}

func (t *memoryTx) InsertParcels(ctx context.Context, parcels []models.Parcel) (int, error) {
	for _, p := range parcels {
		var b argBuilder
		b.area("area", p.Area)
		b.area("legal area", p.LegalArea)
		b.int("data classification", p.DataClassification)
		b.int("registration status", p.RegistrationStatus)
		b.int("version", p.Version)
		if b.err != nil {
			return 0, fmt.Errorf("parcel %s: %w", models.StringValue(p.ID), b.err)
		}
	}
	persons := t.store.tables[models.KindPerson]
	return t.insert(models.KindParcel, len(parcels), func(i int) (string, any, error) {
		p := parcels[i]
		for _, ref := range []*string{p.WifeID, p.HusbandID} {
			if ref == nil {
				continue
			}
			if _, ok := persons[*ref]; !ok {
				return "", nil, fmt.Errorf("parcel %s references person %s: %w",
					models.StringValue(p.ID), *ref, ErrForeignKey)
			}
		}
		return models.StringValue(p.ID), p, nil
	})
}

func (t *memoryTx) InsertDocumentComponents(ctx context.Context, components []models.DocumentComponent) (int, error) {
	certs := t.store.tables[models.KindCertificate]
	return t.insert(models.KindComponent, len(components), func(i int) (string, any, error) {
		c := components[i]
		if c.CertificateID != nil {
			if _, ok := certs[*c.CertificateID]; !ok {
				return "", nil, fmt.Errorf("component %s references certificate %s: %w",
					models.StringValue(c.ID), *c.CertificateID, ErrForeignKey)
			}
		}
		return models.StringValue(c.ID), c, nil
	})
}

func (t *memoryTx) ExistingCertificateIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	existing := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := t.store.tables[models.KindCertificate][id]; ok {
			existing[id] = struct{}{}
		}
	}
	return existing, nil
}

func (t *memoryTx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("transaction already closed")
	}
	t.done = true
	t.written = nil
	return nil
}

func (t *memoryTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, row := range t.written {
		delete(t.store.tables[row.kind], row.id)
	}
	t.written = nil
	return nil
}

// insert adds n rows produced by row under the store lock. A row error
// undoes the rows of this call and is returned like a failed statement.
func (t *memoryTx) insert(kind models.Kind, n int, row func(i int) (string, any, error)) (int, error) {
	if t.done {
		return 0, errors.New("transaction already closed")
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	table := t.store.tables[kind]
	mark := len(t.written)
	inserted := 0
	for i := 0; i < n; i++ {
		id, value, err := row(i)
		if err != nil {
			for _, r := range t.written[mark:] {
				delete(t.store.tables[r.kind], r.id)
			}
			t.written = t.written[:mark]
			return 0, err
		}
		if _, exists := table[id]; exists {
			continue
		}
		table[id] = value
		t.written = append(t.written, memoryRow{kind: kind, id: id})
		inserted++
	}
	return inserted, nil
}
