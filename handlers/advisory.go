package handlers

import (
	"net/http"
	"time"

	"shutterbook/middleware"
	"shutterbook/services/advisory"
	ai "shutterbook/services/intelligence"
	"shutterbook/utils"

	"github.com/gin-gonic/gin"
)

// AdvisoryHandler serves best-effort add-ons. Upstream failures are reported
// as {"available":false} with status 200.
type AdvisoryHandler struct {
	Weather     advisory.WeatherProvider
	Suggestions ai.SuggestionProvider
	Location    *time.Location
}

func NewAdvisoryHandler(weather advisory.WeatherProvider, suggestions ai.SuggestionProvider, loc *time.Location) *AdvisoryHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AdvisoryHandler{Weather: weather, Suggestions: suggestions, Location: loc}
}

func (h *AdvisoryHandler) GetWeatherHandler(c *gin.Context) {
	date, err := time.ParseInLocation("2006-01-02", c.Query("date"), h.Location)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "date must be in YYYY-MM-DD format", nil)
		return
	}
	if c.Query("location") == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "location is required", nil)
		return
	}
	c.JSON(http.StatusOK, h.Weather.GetWeatherForecast(c.Request.Context(), date, c.Query("location")))
}

func (h *AdvisoryHandler) GetSuggestionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.Suggestions.GetSessionSuggestion(c.Request.Context(), c.GetString(middleware.UserIDKey)))
}
