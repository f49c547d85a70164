package endpoints

import (
	"errors"
	"net/http"
	"orderhub"
	"orderhub/internal/api/handler/response"
	"orderhub/pkg"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LocationReader is the read side of pkg.DriverLocationStore.
type LocationReader interface {
	LastLocation(driverID string) (pkg.DriverLocation, error)
}

type driverHandler struct {
	locations LocationReader
	logger    zerolog.Logger
}

// DriverHandler serves last-known driver positions. A nil reader means Redis
// is disabled and every lookup answers 503.
func DriverHandler(router gin.IRouter, locations LocationReader) {
	h := &driverHandler{
		locations: locations,
		logger:    orderhub.Logger,
	}

	drivers := router.Group("/api/v1/drivers")
	{
		drivers.GET("/:driverId/location", h.getLocation)
	}
}

func (slf *driverHandler) getLocation(c *gin.Context) {
	if slf.locations == nil {
		c.JSON(http.StatusServiceUnavailable, response.APIError{Message: "Driver locations are not available"})
		return
	}

	driverID := c.Param("driverId")
	loc, err := slf.locations.LastLocation(driverID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, loc)
	case pkg.IsRedisNil(err):
		c.JSON(http.StatusNotFound, response.APIError{Message: "No known location for driver " + driverID})
	case errors.Is(err, pkg.ErrRedisDisabled):
		c.JSON(http.StatusServiceUnavailable, response.APIError{Message: "Driver locations are not available"})
	default:
		slf.logger.Error().Err(err).Str("driverId", driverID).Msg("Error reading driver location")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to read driver location"})
	}
}
