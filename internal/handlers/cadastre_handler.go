package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/cadastre/internal/errors"
	"github.com/stwalsh4118/cadastre/internal/middleware"
	"github.com/stwalsh4118/cadastre/internal/models"
	"github.com/stwalsh4118/cadastre/internal/repository"
	"github.com/stwalsh4118/cadastre/internal/services"
)

// CadastreHandler serves the read API over loaded records.
type CadastreHandler struct {
	service services.CadastreService
}

// NewCadastreHandler creates a new CadastreHandler instance.
func NewCadastreHandler(service services.CadastreService) *CadastreHandler {
	return &CadastreHandler{service: service}
}

// Register mounts the cadastre routes on r.
func (h *CadastreHandler) Register(r gin.IRoutes) {
	r.GET("/parcels", h.SearchParcels)
	r.GET("/parcels/:id", h.GetParcel)
	r.GET("/persons/:id", h.GetPerson)
	r.GET("/certificates/:id", h.GetCertificate)
}

// ParcelSearchRequest holds the query parameters of a parcel search.
type ParcelSearchRequest struct {
	AreaCode string `form:"area_code" binding:"required,max=255"`
	MapSheet string `form:"map_sheet" binding:"required_with=Plot,max=255"`
	Plot     string `form:"plot" binding:"max=255"`
}

// ParcelResponse wraps a single parcel.
type ParcelResponse struct {
	Parcel *services.ParcelDetail `json:"parcel"`
}

// ParcelSearchResponse lists matching parcels.
type ParcelSearchResponse struct {
	Parcels []models.Parcel `json:"parcels"`
	Count   int             `json:"count"`
}

// PersonResponse wraps a single person.
type PersonResponse struct {
	Person *models.Person `json:"person"`
}

// CertificateResponse wraps a certificate and its components.
type CertificateResponse struct {
	Certificate *services.CertificateDetail `json:"certificate"`
}

// GetParcel handles GET /api/v1/parcels/:id.
func (h *CadastreHandler) GetParcel(c *gin.Context) {
	parcel, err := h.service.GetParcel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Parcel not found", "Failed to load parcel")
		return
	}
	c.JSON(http.StatusOK, ParcelResponse{Parcel: parcel})
}

// SearchParcels handles GET /api/v1/parcels?area_code=&map_sheet=&plot=.
func (h *CadastreHandler) SearchParcels(c *gin.Context) {
	var req ParcelSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Debug("Processing parcel search", map[string]interface{}{
			"area_code": req.AreaCode,
			"map_sheet": req.MapSheet,
			"plot":      req.Plot,
		})
	}

	parcels, err := h.service.SearchParcels(c.Request.Context(), repository.ParcelQuery{
		AreaCode:       req.AreaCode,
		MapSheetNumber: req.MapSheet,
		PlotNumber:     req.Plot,
	})
	if err != nil {
		respondServiceError(c, err, "", "Failed to search parcels")
		return
	}
	if parcels == nil {
		parcels = []models.Parcel{}
	}
	c.JSON(http.StatusOK, ParcelSearchResponse{Parcels: parcels, Count: len(parcels)})
}

// GetPerson handles GET /api/v1/persons/:id.
func (h *CadastreHandler) GetPerson(c *gin.Context) {
	person, err := h.service.GetPerson(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Person not found", "Failed to load person")
		return
	}
	c.JSON(http.StatusOK, PersonResponse{Person: person})
}

// GetCertificate handles GET /api/v1/certificates/:id.
func (h *CadastreHandler) GetCertificate(c *gin.Context) {
	cert, err := h.service.GetCertificate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Certificate not found", "Failed to load certificate")
		return
	}
	if cert.Components == nil {
		cert.Components = []models.DocumentComponent{}
	}
	c.JSON(http.StatusOK, CertificateResponse{Certificate: cert})
}

// respondServiceError maps service errors onto API error responses.
func respondServiceError(c *gin.Context, err error, notFound, internal string) {
	switch {
	case errors.Is(err, services.ErrInvalidID), errors.Is(err, services.ErrInvalidQuery):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrNotFound):
		apierrors.NotFound(c, notFound)
	default:
		apierrors.InternalServerError(c, internal, err)
	}
}
