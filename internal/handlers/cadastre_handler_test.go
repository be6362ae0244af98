package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apierrors "github.com/stwalsh4118/cadastre/internal/errors"
	"github.com/stwalsh4118/cadastre/internal/logger"
	"github.com/stwalsh4118/cadastre/internal/middleware"
	"github.com/stwalsh4118/cadastre/internal/models"
	"github.com/stwalsh4118/cadastre/internal/repository"
	"github.com/stwalsh4118/cadastre/internal/services"
)

// MockCadastreService is a mock implementation of CadastreService for testing
type MockCadastreService struct {
	mock.Mock
}

func (m *MockCadastreService) GetParcel(ctx context.Context, id string) (*services.ParcelDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ParcelDetail), args.Error(1)
}

func (m *MockCadastreService) SearchParcels(ctx context.Context, q repository.ParcelQuery) ([]models.Parcel, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Parcel), args.Error(1)
}

func (m *MockCadastreService) GetPerson(ctx context.Context, id string) (*models.Person, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Person), args.Error(1)
}

func (m *MockCadastreService) GetCertificate(ctx context.Context, id string) (*services.CertificateDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CertificateDetail), args.Error(1)
}

func strPtr(s string) *string { return &s }

// setupCadastreTestRouter creates a test router with middleware and the cadastre routes.
func setupCadastreTestRouter(service services.CadastreService) *gin.Engine {
	router := setupTestRouter()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Nop()))

	NewCadastreHandler(service).Register(router.Group("/api/v1"))
	return router
}

func decodeError(t *testing.T, body []byte) apierrors.ErrorDetail {
	t.Helper()
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Error
}

func TestGetParcel(t *testing.T) {
	tests := []struct {
		name           string
		result         *services.ParcelDetail
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "found with owners",
			result: &services.ParcelDetail{
				Parcel: models.Parcel{ID: strPtr("TD-1"), WifeID: strPtr("CN-1")},
				Wife:   &models.Person{ID: strPtr("CN-1"), FullName: strPtr("Trần Thị Bình")},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found",
			err:            services.ErrNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   apierrors.ErrNotFound,
		},
		{
			name:           "invalid id",
			err:            fmt.Errorf("%w: too long", services.ErrInvalidID),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apierrors.ErrBadRequest,
		},
		{
			name:           "database failure",
			err:            errors.New("connection reset"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   apierrors.ErrInternalServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCadastreService)
			svc.On("GetParcel", mock.Anything, "TD-1").Return(tt.result, tt.err)

			w := get(setupCadastreTestRouter(svc), "/api/v1/parcels/TD-1")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w.Body.Bytes()).Code)
				assert.NotContains(t, w.Body.String(), "connection reset")
				return
			}

			var resp ParcelResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "TD-1", *resp.Parcel.ID)
			require.NotNil(t, resp.Parcel.Wife)
			assert.Equal(t, "Trần Thị Bình", *resp.Parcel.Wife.FullName)
			svc.AssertExpectations(t)
		})
	}
}

func TestSearchParcels(t *testing.T) {
	t.Run("maps query parameters", func(t *testing.T) {
		svc := new(MockCadastreService)
		svc.On("SearchParcels", mock.Anything, repository.ParcelQuery{
			AreaCode: "25252", MapSheetNumber: "12", PlotNumber: "7",
		}).Return([]models.Parcel{{ID: strPtr("TD-1")}, {ID: strPtr("TD-2")}}, nil)

		w := get(setupCadastreTestRouter(svc), "/api/v1/parcels?area_code=25252&map_sheet=12&plot=7")

		assert.Equal(t, http.StatusOK, w.Code)
		var resp ParcelSearchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
		svc.AssertExpectations(t)
	})

	t.Run("empty result is an empty list", func(t *testing.T) {
		svc := new(MockCadastreService)
		svc.On("SearchParcels", mock.Anything, mock.Anything).Return(nil, nil)

		w := get(setupCadastreTestRouter(svc), "/api/v1/parcels?area_code=25252")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"parcels":[],"count":0}`, w.Body.String())
	})

	t.Run("validation errors", func(t *testing.T) {
		tests := []struct {
			query string
			field string
		}{
			{query: "", field: "AreaCode"},
			{query: "?area_code=25252&plot=7", field: "MapSheet"},
		}
		for _, tt := range tests {
			svc := new(MockCadastreService)

			w := get(setupCadastreTestRouter(svc), "/api/v1/parcels"+tt.query)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			detail := decodeError(t, w.Body.Bytes())
			assert.Equal(t, apierrors.ErrValidation, detail.Code)
			assert.Contains(t, detail.Details, tt.field)
			svc.AssertNotCalled(t, "SearchParcels", mock.Anything, mock.Anything)
		}
	})
}

func TestGetPerson(t *testing.T) {
	svc := new(MockCadastreService)
	birthYear := "1980"
	svc.On("GetPerson", mock.Anything, "CN-1").Return(&models.Person{ID: strPtr("CN-1"), BirthYear: &birthYear}, nil)
	svc.On("GetPerson", mock.Anything, "CN-2").Return(nil, services.ErrNotFound)
	router := setupCadastreTestRouter(svc)

	w := get(router, "/api/v1/persons/CN-1")
	assert.Equal(t, http.StatusOK, w.Code)
	var resp PersonResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1980", *resp.Person.BirthYear)

	w = get(router, "/api/v1/persons/CN-2")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Person not found", decodeError(t, w.Body.Bytes()).Message)
}

func TestGetCertificate(t *testing.T) {
	issued := time.Date(2019, 8, 20, 9, 30, 0, 0, time.UTC)
	svc := new(MockCadastreService)
	svc.On("GetCertificate", mock.Anything, "GCN-1").Return(&services.CertificateDetail{
		Certificate: models.Certificate{ID: strPtr("GCN-1"), IssuedAt: &issued},
	}, nil)

	w := get(setupCadastreTestRouter(svc), "/api/v1/certificates/GCN-1")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Certificate struct {
			ID         string            `json:"id"`
			Components []json.RawMessage `json:"components"`
		} `json:"certificate"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "GCN-1", resp.Certificate.ID)
	assert.NotNil(t, resp.Certificate.Components, "components is always a list")
	assert.Empty(t, resp.Certificate.Components)
}
