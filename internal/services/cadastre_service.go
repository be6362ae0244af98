package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stwalsh4118/cadastre/internal/logger"
	"github.com/stwalsh4118/cadastre/internal/models"
	"github.com/stwalsh4118/cadastre/internal/repository"
)

// MaxIDLength matches the width of the identifier columns.
const MaxIDLength = 255

// Service-level errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidID    = errors.New("invalid identifier")
	ErrInvalidQuery = errors.New("invalid parcel query")
)

// ParcelDetail is a parcel together with its resolved owners.
type ParcelDetail struct {
	models.Parcel
	Wife    *models.Person `json:"wife,omitempty"`
	Husband *models.Person `json:"husband,omitempty"`
}

// CertificateDetail is a certificate together with its document components.
type CertificateDetail struct {
	models.Certificate
	Components []models.DocumentComponent `json:"components"`
}

// CadastreService defines read operations over loaded records.
type CadastreService interface {
	// GetParcel returns ErrNotFound if no parcel has the id.
	GetParcel(ctx context.Context, id string) (*ParcelDetail, error)

	// SearchParcels requires an area code. An empty result is not an error.
	SearchParcels(ctx context.Context, q repository.ParcelQuery) ([]models.Parcel, error)

	// GetPerson returns ErrNotFound if no person has the id.
	GetPerson(ctx context.Context, id string) (*models.Person, error)

	// GetCertificate returns ErrNotFound if no certificate has the id.
	GetCertificate(ctx context.Context, id string) (*CertificateDetail, error)
}

type cadastreService struct {
	repo repository.CadastreRepository
	log  *logger.Logger
}

// NewCadastreService creates a new instance of CadastreService.
func NewCadastreService(repo repository.CadastreRepository, log *logger.Logger) CadastreService {
	return &cadastreService{
		repo: repo,
		log:  log,
	}
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: must not be empty", ErrInvalidID)
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidID, MaxIDLength)
	}
	return nil
}

func (s *cadastreService) GetParcel(ctx context.Context, id string) (*ParcelDetail, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	parcel, err := s.repo.FindParcel(ctx, id)
	if err != nil {
		s.log.Error("Failed to query parcel", err, map[string]interface{}{"parcel_id": id})
		return nil, fmt.Errorf("failed to query parcel: %w", err)
	}
	if parcel == nil {
		return nil, fmt.Errorf("%w: parcel %s", ErrNotFound, id)
	}

	detail := &ParcelDetail{Parcel: *parcel}
	if parcel.WifeID != nil {
		if detail.Wife, err = s.repo.FindPerson(ctx, *parcel.WifeID); err != nil {
			return nil, fmt.Errorf("failed to query owner: %w", err)
		}
	}
	if parcel.HusbandID != nil {
		if detail.Husband, err = s.repo.FindPerson(ctx, *parcel.HusbandID); err != nil {
			return nil, fmt.Errorf("failed to query owner: %w", err)
		}
	}

	s.log.Debug("Parcel found", map[string]interface{}{
		"parcel_id":     id,
		"owner_pair_id": models.StringValue(parcel.OwnerPairID),
	})
	return detail, nil
}

func (s *cadastreService) SearchParcels(ctx context.Context, q repository.ParcelQuery) ([]models.Parcel, error) {
	q.AreaCode = strings.TrimSpace(q.AreaCode)
	q.MapSheetNumber = strings.TrimSpace(q.MapSheetNumber)
	q.PlotNumber = strings.TrimSpace(q.PlotNumber)

	if q.AreaCode == "" {
		s.log.Warn("Parcel search without area code", nil)
		return nil, fmt.Errorf("%w: area_code is required", ErrInvalidQuery)
	}
	if q.PlotNumber != "" && q.MapSheetNumber == "" {
		return nil, fmt.Errorf("%w: plot requires map_sheet", ErrInvalidQuery)
	}

	parcels, err := s.repo.SearchParcels(ctx, q)
	if err != nil {
		s.log.Error("Failed to search parcels", err, map[string]interface{}{"area_code": q.AreaCode})
		return nil, fmt.Errorf("failed to search parcels: %w", err)
	}

	s.log.Info("Parcel search", map[string]interface{}{
		"area_code": q.AreaCode,
		"map_sheet": q.MapSheetNumber,
		"plot":      q.PlotNumber,
		"count":     len(parcels),
	})
	return parcels, nil
}

func (s *cadastreService) GetPerson(ctx context.Context, id string) (*models.Person, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	person, err := s.repo.FindPerson(ctx, id)
	if err != nil {
		s.log.Error("Failed to query person", err, map[string]interface{}{"person_id": id})
		return nil, fmt.Errorf("failed to query person: %w", err)
	}
	if person == nil {
		return nil, fmt.Errorf("%w: person %s", ErrNotFound, id)
	}
	return person, nil
}

func (s *cadastreService) GetCertificate(ctx context.Context, id string) (*CertificateDetail, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	cert, err := s.repo.FindCertificate(ctx, id)
	if err != nil {
		s.log.Error("Failed to query certificate", err, map[string]interface{}{"certificate_id": id})
		return nil, fmt.Errorf("failed to query certificate: %w", err)
	}
	if cert == nil {
		return nil, fmt.Errorf("%w: certificate %s", ErrNotFound, id)
	}

	components, err := s.repo.FindComponentsByCertificate(ctx, id)
	if err != nil {
		s.log.Error("Failed to query certificate components", err, map[string]interface{}{"certificate_id": id})
		return nil, fmt.Errorf("failed to query certificate components: %w", err)
	}

	return &CertificateDetail{Certificate: *cert, Components: components}, nil
}
