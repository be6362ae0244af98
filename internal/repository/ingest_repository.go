package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stwalsh4118/cadastre/internal/database"
	"github.com/stwalsh4118/cadastre/internal/models"
)

// batchPageSize is the number of statements sent per round trip.
const batchPageSize = 100

// IngestStore hands out dedicated sessions for loading documents.
type IngestStore interface {
	// Open acquires a connection owned by the caller until Close.
	Open(ctx context.Context) (IngestSession, error)
}

// IngestSession is one dedicated connection.
type IngestSession interface {
	Begin(ctx context.Context) (IngestTx, error)
	Close()
}

// IngestTx inserts records inside one transaction. Every insert skips rows
// whose identifier already exists and returns the number actually inserted.
type IngestTx interface {
	InsertPersons(ctx context.Context, persons []models.Person) (int, error)
	InsertCertificates(ctx context.Context, certs []models.Certificate) (int, error)
	InsertParcels(ctx context.Context, parcels []models.Parcel) (int, error)
	InsertDocumentComponents(ctx context.Context, components []models.DocumentComponent) (int, error)

	// ExistingCertificateIDs returns the subset of ids present in the store.
	// A failure leaves the transaction usable.
	ExistingCertificateIDs(ctx context.Context, ids []string) (map[string]struct{}, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type ingestStore struct {
	db *database.Database
}

// NewIngestStore creates an IngestStore backed by the connection pool.
func NewIngestStore(db *database.Database) IngestStore {
	return &ingestStore{db: db}
}

func (s *ingestStore) Open(ctx context.Context) (IngestSession, error) {
	conn, err := s.db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &ingestSession{conn: conn}, nil
}

type ingestSession struct {
	conn *pgxpool.Conn
}

func (s *ingestSession) Begin(ctx context.Context) (IngestTx, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &ingestTx{tx: tx}, nil
}

func (s *ingestSession) Close() {
	s.conn.Release()
}

type ingestTx struct {
	tx pgx.Tx
}

const insertPersonSQL = `
	INSERT INTO canhan (
		canhanid, hoten, namsinh, diachiid,
		giaytotuythanid, tenloaigiaytotuythan, ngaycap,
		noicap, madinhdanhcanhan, hieuluc,
		gioitinh, sogiayto, loaigiaytotuythan, phienban
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (canhanid) DO NOTHING`

func (t *ingestTx) InsertPersons(ctx context.Context, persons []models.Person) (int, error) {
	rows := make([][]any, 0, len(persons))
	for _, p := range persons {
		var b argBuilder
		b.add(p.ID)
		b.add(p.FullName)
		b.add(p.BirthYear)
		b.add(p.AddressID)
		b.add(p.DocumentID)
		b.add(p.DocumentTypeName)
		b.add(p.IssueDate)
		b.add(p.IssuedBy)
		b.add(p.NationalID)
		b.add(p.DocumentValid)
		b.int("gender", p.Gender)
		b.add(p.DocumentNumber)
		b.int("document type code", p.DocumentTypeCode)
		b.int("version", p.Version)
		if b.err != nil {
			return 0, fmt.Errorf("person %s: %w", models.StringValue(p.ID), b.err)
		}
		rows = append(rows, b.args)
	}
	return t.insertBatch(ctx, insertPersonSQL, rows)
}

const insertCertificateSQL = `
	INSERT INTO giaychungnhan (
		giaychungnhanid, sovaoso, sophathanh, magiaychungnhan,
		ngaycap, mavach, nguoiky, sovaosocu
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (giaychungnhanid) DO NOTHING`

func (t *ingestTx) InsertCertificates(ctx context.Context, certs []models.Certificate) (int, error) {
	rows := make([][]any, 0, len(certs))
	for _, c := range certs {
		rows = append(rows, []any{
			c.ID, c.RegistryNumber, c.IssuanceNumber, c.CertificateCode,
			c.IssuedAt, c.Barcode, c.Signer, c.PriorRegistryNumber,
		})
	}
	return t.insertBatch(ctx, insertCertificateSQL, rows)
}

const insertParcelSQL = `
	INSERT INTO thuadat (
		thuadatid, madvhcxa, sohieutobando, sothututhua,
		dientich, dientichphaply, diachiid,
		vochongid, void, chongid,
		phanloaidulieu, trangthaidangky, hieuluc, phienban
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (thuadatid) DO NOTHING`

func (t *ingestTx) InsertParcels(ctx context.Context, parcels []models.Parcel) (int, error) {
	rows := make([][]any, 0, len(parcels))
	for _, p := range parcels {
		var b argBuilder
		b.add(p.ID)
		b.add(p.AreaCode)
		b.add(p.MapSheetNumber)
		b.add(p.PlotNumber)
		b.area("area", p.Area)
		b.area("legal area", p.LegalArea)
		b.add(p.AddressID)
		b.add(p.OwnerPairID)
		b.add(p.WifeID)
		b.add(p.HusbandID)
		b.int("data classification", p.DataClassification)
		b.int("registration status", p.RegistrationStatus)
		b.add(p.Valid)
		b.int("version", p.Version)
		if b.err != nil {
			return 0, fmt.Errorf("parcel %s: %w", models.StringValue(p.ID), b.err)
		}
		rows = append(rows, b.args)
	}
	return t.insertBatch(ctx, insertParcelSQL, rows)
}

const insertComponentSQL = `
	INSERT INTO hoso (
		thanhphanhosoid, hosodangkysoid, giaychungnhanid,
		loaigiayto, teptin, url, mahosoluutru, madvhcxa
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (thanhphanhosoid) DO NOTHING`

func (t *ingestTx) InsertDocumentComponents(ctx context.Context, components []models.DocumentComponent) (int, error) {
	rows := make([][]any, 0, len(components))
	for _, c := range components {
		rows = append(rows, []any{
			c.ID, c.CaseID, c.CertificateID,
			c.DocumentType, c.FileName, c.URL, c.ArchiveCode, c.AreaCode,
		})
	}
	return t.insertBatch(ctx, insertComponentSQL, rows)
}

func (t *ingestTx) ExistingCertificateIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	// A nested Begin is a savepoint; a failed lookup must not poison the
	// document transaction.
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create savepoint: %w", err)
	}

	rows, err := sp.Query(ctx,
		`SELECT giaychungnhanid FROM giaychungnhan WHERE giaychungnhanid = ANY($1)`, ids)
	if err != nil {
		_ = sp.Rollback(ctx)
		return nil, fmt.Errorf("failed to query certificate ids: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		_ = sp.Rollback(ctx)
		return nil, fmt.Errorf("failed to read certificate ids: %w", err)
	}
	if err := sp.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to release savepoint: %w", err)
	}

	for _, id := range found {
		existing[id] = struct{}{}
	}
	return existing, nil
}

func (t *ingestTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *ingestTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// insertBatch queues one statement per row, sends them in pages and sums
// the affected row counts.
func (t *ingestTx) insertBatch(ctx context.Context, query string, rows [][]any) (int, error) {
	inserted := 0
	for start := 0; start < len(rows); start += batchPageSize {
		page := rows[start:min(start+batchPageSize, len(rows))]

		batch := &pgx.Batch{}
		for _, args := range page {
			batch.Queue(query, args...)
		}

		br := t.tx.SendBatch(ctx, batch)
		for range page {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return 0, err
			}
			inserted += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return 0, err
		}
	}
	return inserted, nil
}
