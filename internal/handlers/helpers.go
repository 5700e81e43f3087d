package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "moneyflow/internal/errors"
	"moneyflow/internal/logger"
	"moneyflow/internal/uuid"
)

// parsePathID reads a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid id.
//
//nolint:unparam // param is intentionally generic for reuse across handlers with different path params
func parsePathID(c *gin.Context, param string) (string, error) {
	id := c.Param(param)
	if !uuid.IsValid(id) {
		return "", apperrors.WithField(apperrors.ErrInvalidInput, param, "Invalid "+param)
	}
	return id, nil
}

// bindingError converts a gin binding failure into a validation AppError
// naming the first offending field.
func bindingError(err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "decimal_gt0":
			return apperrors.WithField(apperrors.ErrInvalidAmount, fe.Field(), "")
		case "granularity":
			return apperrors.WithField(apperrors.ErrInvalidGranularity, fe.Field(), "")
		}
		return apperrors.WithField(apperrors.ErrInvalidInput, fe.Field(),
			fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag()))
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// localLayouts are zone-less timestamps as sent by HTML datetime-local
// inputs. They are read as UTC.
var localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

// parseFlexibleTime accepts RFC3339 timestamps, zone-less local timestamps
// or plain YYYY-MM-DD dates. dateOnly reports which form was used.
func parseFlexibleTime(s string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	for _, layout := range localLayouts {
		if t, err = time.Parse(layout, s); err == nil {
			return t, false, nil
		}
	}
	if t, err = time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q, use RFC3339, YYYY-MM-DDTHH:MM or YYYY-MM-DD", s)
}

// parseDateRange reads the start_date and end_date query parameters. A
// date-only end_date covers the whole day.
func parseDateRange(c *gin.Context) (start, end *time.Time, err error) {
	if v := c.Query("start_date"); v != "" {
		t, _, perr := parseFlexibleTime(v)
		if perr != nil {
			return nil, nil, apperrors.WithField(apperrors.ErrInvalidInput, "start_date", perr.Error())
		}
		start = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, dateOnly, perr := parseFlexibleTime(v)
		if perr != nil {
			return nil, nil, apperrors.WithField(apperrors.ErrInvalidInput, "end_date", perr.Error())
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		end = &t
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, nil, apperrors.WithField(apperrors.ErrInvalidDateRange, "start_date", "")
	}
	return start, end, nil
}

// parseBodyDate parses an optional date field of a request body.
func parseBodyDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, _, err := parseFlexibleTime(*value)
	if err != nil {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, field, err.Error())
	}
	return &t, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, ErrorResponse{Error: appErr})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, ErrorResponse{Error: apperrors.ErrInternalServer})
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error *apperrors.AppError `json:"error"`
}

// MessageResponse represents a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
