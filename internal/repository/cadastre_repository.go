package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/cadastre/internal/database"
	"github.com/stwalsh4118/cadastre/internal/models"
)

// MaxSearchResults caps the rows returned by SearchParcels.
const MaxSearchResults = 100

// ParcelQuery filters parcels by location. AreaCode is required by callers;
// empty optional fields are ignored.
type ParcelQuery struct {
	AreaCode       string
	MapSheetNumber string
	PlotNumber     string
}

// CadastreRepository defines read access to loaded cadastral records.
type CadastreRepository interface {
	// FindParcel returns nil, nil when no parcel has the id.
	FindParcel(ctx context.Context, id string) (*models.Parcel, error)

	// SearchParcels returns at most MaxSearchResults parcels ordered by
	// map sheet and plot. An empty slice is not an error.
	SearchParcels(ctx context.Context, q ParcelQuery) ([]models.Parcel, error)

	// FindPerson returns nil, nil when no person has the id.
	FindPerson(ctx context.Context, id string) (*models.Person, error)

	// FindCertificate returns nil, nil when no certificate has the id.
	FindCertificate(ctx context.Context, id string) (*models.Certificate, error)

	// FindComponentsByCertificate lists the document components of a certificate.
	FindComponentsByCertificate(ctx context.Context, certificateID string) ([]models.DocumentComponent, error)
}

type cadastreRepository struct {
	db *database.Database
}

// NewCadastreRepository creates a new instance of CadastreRepository.
func NewCadastreRepository(db *database.Database) CadastreRepository {
	return &cadastreRepository{db: db}
}

// Numeric columns come back as text so the model keeps its source form.
const parcelColumns = `
	thuadatid, madvhcxa, sohieutobando, sothututhua,
	dientich::text, dientichphaply::text, diachiid,
	vochongid, void, chongid,
	phanloaidulieu::text, trangthaidangky::text, hieuluc, phienban::text`

func scanParcel(row pgx.Row) (*models.Parcel, error) {
	var p models.Parcel
	err := row.Scan(
		&p.ID,
		&p.AreaCode,
		&p.MapSheetNumber,
		&p.PlotNumber,
		&p.Area,
		&p.LegalArea,
		&p.AddressID,
		&p.OwnerPairID,
		&p.WifeID,
		&p.HusbandID,
		&p.DataClassification,
		&p.RegistrationStatus,
		&p.Valid,
		&p.Version,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *cadastreRepository) FindParcel(ctx context.Context, id string) (*models.Parcel, error) {
	query := `SELECT ` + parcelColumns + ` FROM thuadat WHERE thuadatid = $1`

	p, err := scanParcel(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query parcel %s: %w", id, err)
	}
	return p, nil
}

func (r *cadastreRepository) SearchParcels(ctx context.Context, q ParcelQuery) ([]models.Parcel, error) {
	conds := []string{"madvhcxa = $1"}
	args := []any{q.AreaCode}
	if q.MapSheetNumber != "" {
		args = append(args, q.MapSheetNumber)
		conds = append(conds, fmt.Sprintf("sohieutobando = $%d", len(args)))
	}
	if q.PlotNumber != "" {
		args = append(args, q.PlotNumber)
		conds = append(conds, fmt.Sprintf("sothututhua = $%d", len(args)))
	}
	args = append(args, MaxSearchResults)

	query := fmt.Sprintf(`SELECT %s FROM thuadat WHERE %s ORDER BY sohieutobando, sothututhua, thuadatid LIMIT $%d`,
		parcelColumns, strings.Join(conds, " AND "), len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search parcels in area %s: %w", q.AreaCode, err)
	}
	defer rows.Close()

	results := []models.Parcel{}
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parcel row: %w", err)
		}
		results = append(results, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parcel rows: %w", err)
	}
	return results, nil
}

func (r *cadastreRepository) FindPerson(ctx context.Context, id string) (*models.Person, error) {
	query := `
		SELECT
			canhanid, hoten, namsinh, diachiid, gioitinh::text, phienban::text,
			giaytotuythanid, tenloaigiaytotuythan, ngaycap, noicap,
			madinhdanhcanhan, hieuluc, sogiayto, loaigiaytotuythan::text
		FROM canhan
		WHERE canhanid = $1`

	var p models.Person
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.FullName,
		&p.BirthYear,
		&p.AddressID,
		&p.Gender,
		&p.Version,
		&p.DocumentID,
		&p.DocumentTypeName,
		&p.IssueDate,
		&p.IssuedBy,
		&p.NationalID,
		&p.DocumentValid,
		&p.DocumentNumber,
		&p.DocumentTypeCode,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query person %s: %w", id, err)
	}
	return &p, nil
}

func (r *cadastreRepository) FindCertificate(ctx context.Context, id string) (*models.Certificate, error) {
	query := `
		SELECT
			giaychungnhanid, sovaoso, sophathanh, magiaychungnhan,
			ngaycap, mavach, nguoiky, sovaosocu
		FROM giaychungnhan
		WHERE giaychungnhanid = $1`

	var c models.Certificate
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.RegistryNumber,
		&c.IssuanceNumber,
		&c.CertificateCode,
		&c.IssuedAt,
		&c.Barcode,
		&c.Signer,
		&c.PriorRegistryNumber,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query certificate %s: %w", id, err)
	}
	return &c, nil
}

func (r *cadastreRepository) FindComponentsByCertificate(ctx context.Context, certificateID string) ([]models.DocumentComponent, error) {
	query := `
		SELECT
			thanhphanhosoid, hosodangkysoid, giaychungnhanid,
			loaigiayto, teptin, url, mahosoluutru, madvhcxa
		FROM hoso
		WHERE giaychungnhanid = $1
		ORDER BY thanhphanhosoid`

	rows, err := r.db.Pool.Query(ctx, query, certificateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query components of certificate %s: %w", certificateID, err)
	}
	defer rows.Close()

	results := []models.DocumentComponent{}
	for rows.Next() {
		var c models.DocumentComponent
		if err := rows.Scan(
			&c.ID,
			&c.CaseID,
			&c.CertificateID,
			&c.DocumentType,
			&c.FileName,
			&c.URL,
			&c.ArchiveCode,
			&c.AreaCode,
		); err != nil {
			return nil, fmt.Errorf("failed to scan component row: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating component rows: %w", err)
	}
	return results, nil
}
