package booking

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"shutterbook/models"
)

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func normalizeRequest(req models.BookingRequest) models.BookingRequest {
	req.UserID = strings.TrimSpace(req.UserID)
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ClientEmail = strings.TrimSpace(req.ClientEmail)
	req.ClientNotes = strings.TrimSpace(req.ClientNotes)
	req.SessionType = models.SessionType(strings.ToLower(strings.TrimSpace(string(req.SessionType))))
	if req.SelectedSlot.SessionType == "" {
		req.SelectedSlot.SessionType = req.SessionType
	}
	return req
}

// validateFields checks the client-supplied fields of a request.
func validateFields(req models.BookingRequest) *ValidationError {
	verr := &ValidationError{}
	if err := requestValidator.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			verr.add("request", err.Error())
			return verr
		}
		for _, fe := range fieldErrs {
			verr.add(fe.Field(), describeTag(fe))
		}
	}
	if !req.SelectedSlot.IsAvailable {
		verr.add("selectedSlot.isAvailable", "selected slot is not available")
	}
	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

// validateSlot checks the selected slot against the session profile and the
// studio's slot grid as of now.
func validateSlot(slot models.Slot, sessionType models.SessionType, profile models.SessionTypeProfile, cfg SchedulerConfig, now time.Time) *ValidationError {
	verr := &ValidationError{}
	if slot.SessionType != sessionType {
		verr.add("selectedSlot.sessionType", "does not match sessionType")
	}
	if slot.StartTime.IsZero() {
		verr.add("selectedSlot.startTime", "is required")
		return verr
	}
	if !slot.EndTime.Equal(slot.StartTime.Add(profile.Duration)) {
		verr.add("selectedSlot.endTime", "must equal startTime plus the session duration")
	}
	if !slot.StartTime.After(now) {
		verr.add("selectedSlot.startTime", "must be in the future")
	} else if !onGrid(slot.StartTime, profile, cfg) {
		verr.add("selectedSlot.startTime", "is not a bookable start time")
	}
	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

func onGrid(start time.Time, profile models.SessionTypeProfile, cfg SchedulerConfig) bool {
	for _, s := range GenerateSlots(start, start, profile, nil, cfg.Hours, SlotOptions{Step: cfg.Step}) {
		if s.StartTime.Equal(start) {
			return true
		}
	}
	return false
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
