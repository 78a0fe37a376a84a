package handlers

import (
	"net/http"
	"strings"

	"github.com/backlot-hq/backlot-backend/errors"
	"github.com/backlot-hq/backlot-backend/pkg/geocode"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type RouteCalculateRequest struct {
	StartAddress string `json:"startAddress" binding:"required"`
	EndAddress   string `json:"endAddress" binding:"required"`
}

type RouteCalculateResponse struct {
	DistanceMiles decimal.Decimal `json:"distanceMiles"`
}

// RouteHandler serves the mileage form's best-effort side channels: route
// distance and place autocomplete. Failures here never block entry flows;
// the client keeps its last-known miles value.
type RouteHandler struct {
	geocoder geocode.ClientInterface
}

func NewRouteHandler(geocoder geocode.ClientInterface) *RouteHandler {
	return &RouteHandler{geocoder: geocoder}
}

// CalculateRouteHandler returns the driving distance between two addresses
// in miles.
func (h *RouteHandler) CalculateRouteHandler(c *gin.Context) {
	var req RouteCalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.ValidationFailed("Invalid request body", err.Error()))
		return
	}

	miles, err := h.geocoder.CalculateRouteDistance(c.Request.Context(), req.StartAddress, req.EndAddress)
	if err != nil {
		_ = c.Error(errors.ExternalServiceFailed("route calculation", err))
		return
	}

	c.JSON(http.StatusOK, RouteCalculateResponse{DistanceMiles: miles})
}

// SearchPlacesHandler returns autocomplete suggestions for a partial
// address.
func (h *RouteHandler) SearchPlacesHandler(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		_ = c.Error(errors.ValidationFailed("missing query", "q parameter is required"))
		return
	}

	suggestions, err := h.geocoder.SearchPlaces(c.Request.Context(), query)
	if err != nil {
		_ = c.Error(errors.ExternalServiceFailed("place search", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
