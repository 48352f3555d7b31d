// README: Driver handlers for live location, heartbeat and availability.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"souq/internal/http/middleware"
	"souq/internal/modules/location"
	"souq/internal/types"
)

type DriverHandler struct {
	location *location.Service
}

func NewDriverHandler(svc *location.Service) *DriverHandler {
	return &DriverHandler{location: svc}
}

type locationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.location.Update(c.Request.Context(), location.Update{
		DriverID: middleware.CallerID(c),
		Position: types.Point{Lat: req.Lat, Lng: req.Lng},
	})
	if err != nil {
		writeLocationError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DriverHandler) Heartbeat(c *gin.Context) {
	if err := h.location.Heartbeat(c.Request.Context(), middleware.CallerID(c)); err != nil {
		writeLocationError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type availabilityReq struct {
	Available *bool `json:"available"`
}

func (h *DriverHandler) SetAvailability(c *gin.Context) {
	var req availabilityReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Available == nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.location.SetAvailability(c.Request.Context(), middleware.CallerID(c), *req.Available)
	if err != nil {
		writeLocationError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Nearby lists drivers around a point; used by ops tooling and the shop
// dashboard.
func (h *DriverHandler) Nearby(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		writeError(c, http.StatusBadRequest, "lat and lng query parameters are required")
		return
	}

	drivers, err := h.location.Nearby(c.Request.Context(), types.Point{Lat: lat, Lng: lng})
	if err != nil {
		writeLocationError(c, err)
		return
	}

	type nearbyResp struct {
		ID         string  `json:"id"`
		Name       string  `json:"name"`
		DistanceKm float64 `json:"distance_km"`
		Lat        float64 `json:"lat"`
		Lng        float64 `json:"lng"`
	}
	out := make([]nearbyResp, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, nearbyResp{
			ID:         d.ID.String(),
			Name:       d.Name,
			DistanceKm: d.DistanceKm,
			Lat:        d.Position.Lat,
			Lng:        d.Position.Lng,
		})
	}
	c.JSON(http.StatusOK, gin.H{"drivers": out})
}
