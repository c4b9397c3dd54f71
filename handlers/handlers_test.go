package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	calendarRepo "shutterbook/database/repository/calendar"
	"shutterbook/middleware"
	"shutterbook/models"
	"shutterbook/services/advisory"
	"shutterbook/services/booking"
	"shutterbook/utils"
)

var testNow = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

type okNotifier struct{}

func (okNotifier) SendBookingConfirmation(context.Context, models.Booking) error { return nil }

type stubAvailability struct {
	err error
}

func (s stubAvailability) GetAvailability(context.Context, time.Time, time.Time, models.SessionType) ([]models.Slot, error) {
	return nil, s.err
}

func (stubAvailability) ListSessionTypes() []models.SessionTypeProfile { return nil }

type stubWeather struct {
	advice advisory.Advice[models.WeatherData]
}

func (s stubWeather) GetWeatherForecast(context.Context, time.Time, string) advisory.Advice[models.WeatherData] {
	return s.advice
}

type stubSuggestions struct{}

func (stubSuggestions) GetSessionSuggestion(context.Context, string) advisory.Advice[models.Suggestion] {
	return advisory.Unavailable[models.Suggestion]("model quota exceeded")
}

func testConfig() booking.SchedulerConfig {
	return booking.SchedulerConfig{
		ResourceID: "studio",
		Profiles: map[models.SessionType]models.SessionTypeProfile{
			models.SessionPortrait: {SessionType: models.SessionPortrait, Duration: time.Hour},
		},
		Hours: models.WorkingHours{
			StartHour: 9,
			EndHour:   17,
			Days:      []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
			Location:  time.UTC,
		},
	}
}

func newTestRouter(t *testing.T, avail booking.AvailabilityService, weather advisory.WeatherProvider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := calendarRepo.NewMemoryCalendarStore()
	coord := booking.NewBookingCoordinator(store, okNotifier{}, nil, testConfig())
	coord.Now = func() time.Time { return testNow }
	coord.Logger = zap.NewNop()
	if avail == nil {
		svc := booking.NewAvailabilityService(store, testConfig())
		svc.Now = func() time.Time { return testNow }
		svc.Logger = zap.NewNop()
		avail = svc
	}
	if weather == nil {
		weather = stubWeather{advice: advisory.Unavailable[models.WeatherData]("upstream 502")}
	}

	bh := NewBookingHandler(avail, coord, time.UTC)
	hb := NewHandlerBundle(bh, NewAdminHandler(coord), NewAdvisoryHandler(weather, stubSuggestions{}, time.UTC),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	r := gin.New()
	r.Use(utils.ErrorHandler())
	r.GET("/api/session-types", hb.GetSessionTypesHandler)
	r.GET("/api/availability", hb.GetAvailabilityHandler)
	auth := r.Group("/api", middleware.JWTAuthMiddleware())
	auth.POST("/bookings", hb.CreateBookingHandler)
	auth.GET("/bookings/:id", hb.GetBookingHandler)
	auth.POST("/bookings/:id/cancel", hb.CancelBookingHandler)
	auth.POST("/admin/blocks", middleware.RequireRole(utils.RoleStaff), hb.CreateBlockHandler)
	auth.DELETE("/admin/blocks/:id", middleware.RequireRole(utils.RoleStaff), hb.RemoveBlockHandler)
	auth.GET("/advisory/suggestion", hb.GetSuggestionHandler)
	r.GET("/api/advisory/weather", hb.GetWeatherHandler)
	return r
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := utils.GenerateToken(userID, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(r *gin.Engine, method, path, tok string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bookingBody(hour int, email string) gin.H {
	start := time.Date(2025, time.June, 3, hour, 0, 0, 0, time.UTC)
	return gin.H{
		"sessionType": "portrait",
		"clientName":  "Grace Hopper",
		"clientEmail": email,
		"selectedSlot": gin.H{
			"startTime":   start,
			"endTime":     start.Add(time.Hour),
			"sessionType": "portrait",
			"isAvailable": true,
		},
	}
}

func TestGetAvailabilityHandler(t *testing.T) {
	r := newTestRouter(t, nil, nil)

	w := do(r, http.MethodGet, "/api/availability?from=2025-06-03&to=2025-06-03&sessionType=portrait", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Slots []models.Slot `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Slots, 8)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/availability?from=June&to=2025-06-03&sessionType=portrait", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/availability?from=2025-06-03&to=2025-06-03", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/availability?from=2025-01-01&to=2025-12-31&sessionType=portrait", "", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(r, http.MethodGet, "/api/availability?from=2025-06-03&to=2025-06-03&sessionType=underwater", "", nil).Code)
}

func TestGetAvailabilityHandler_StoreUnavailable(t *testing.T) {
	err := fmt.Errorf("%w: reading busy intervals: %w", booking.ErrStoreUnavailable, context.DeadlineExceeded)
	r := newTestRouter(t, stubAvailability{err: err}, nil)

	w := do(r, http.MethodGet, "/api/availability?from=2025-06-03&to=2025-06-03&sessionType=portrait", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "5", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "store_unavailable")
}

func TestBookingLifecycle(t *testing.T) {
	r := newTestRouter(t, nil, nil)
	ada := token(t, "ada", utils.RoleClient)
	bob := token(t, "bob", utils.RoleClient)

	w := do(r, http.MethodPost, "/api/bookings", ada, bookingBody(10, "ada@example.com"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var conf models.BookingConfirmation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conf))
	assert.Equal(t, models.BookingConfirmed, conf.Status)
	assert.True(t, conf.ConfirmationEmailSent)

	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/api/bookings", bob, bookingBody(10, "bob@example.com")).Code)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/bookings/"+conf.BookingID, ada, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/bookings/"+conf.BookingID, bob, nil).Code)

	w = do(r, http.MethodPost, "/api/bookings/"+conf.BookingID+"/cancel", ada, gin.H{"reason": "sick"})
	require.Equal(t, http.StatusOK, w.Code)
	var cancelled models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cancelled))
	assert.Equal(t, models.BookingCancelled, cancelled.Status)

	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/api/bookings/"+conf.BookingID+"/cancel", ada, nil).Code)
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/bookings", bob, bookingBody(10, "bob@example.com")).Code)
}

func TestCreateBookingHandler_Invalid(t *testing.T) {
	r := newTestRouter(t, nil, nil)
	ada := token(t, "ada", utils.RoleClient)

	w := do(r, http.MethodPost, "/api/bookings", ada, bookingBody(10, "not-an-email"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request", resp.Code)
	assert.Contains(t, w.Body.String(), "clientEmail")

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+ada)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/bookings", "", bookingBody(10, "ada@example.com")).Code)
}

func TestAdminBlocks(t *testing.T) {
	r := newTestRouter(t, nil, nil)
	staff := token(t, "owner", utils.RoleStaff)
	client := token(t, "ada", utils.RoleClient)
	body := gin.H{
		"start":  time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC),
		"end":    time.Date(2025, time.June, 3, 13, 0, 0, 0, time.UTC),
		"reason": "lens calibration",
	}

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/admin/blocks", client, body).Code)

	w := do(r, http.MethodPost, "/api/admin/blocks", staff, body)
	require.Equal(t, http.StatusCreated, w.Code)
	var block models.Blocked
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &block))

	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/api/bookings", client, bookingBody(11, "ada@example.com")).Code)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/api/admin/blocks/"+block.ID, staff, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/api/admin/blocks/"+block.ID, staff, nil).Code)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/admin/blocks", staff, gin.H{"reason": "x"}).Code)
}

func TestAdvisoryHandlers(t *testing.T) {
	r := newTestRouter(t, nil, nil)

	w := do(r, http.MethodGet, "/api/advisory/weather?date=2025-06-03&location=Nairobi", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"available":false}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/advisory/weather?location=Nairobi", "", nil).Code)

	w = do(r, http.MethodGet, "/api/advisory/suggestion", token(t, "ada", utils.RoleClient), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"available":false}`, w.Body.String())

	sunny := stubWeather{advice: advisory.Some(models.WeatherData{Date: "2025-06-03", Summary: "Clear sky"})}
	w = do(newTestRouter(t, nil, sunny), http.MethodGet, "/api/advisory/weather?date=2025-06-03&location=Nairobi", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available":true`)
	assert.Contains(t, w.Body.String(), "Clear sky")
}
