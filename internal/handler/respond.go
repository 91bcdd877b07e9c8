package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
)

var validate = newValidator()

// newValidator reports fields by their json names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error      string              `json:"error"`
	Kind       string              `json:"kind,omitempty"`
	Violations []ViolationResponse `json:"violations,omitempty"`
	Fields     map[string]string   `json:"fields,omitempty"`
}

// ViolationResponse is one broken booking rule
type ViolationResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// statusFor maps a domain error kind onto an HTTP status
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case "ListingNotFound", "BookingNotFound", "ReviewNotFound", "UserNotFound":
		return http.StatusNotFound
	case "Forbidden":
		return http.StatusForbidden
	case "Unauthenticated", "InvalidCredentials":
		return http.StatusUnauthorized
	case "DuplicateReview", "EmailTaken", "UsernameTaken":
		return http.StatusConflict
	case "ListingInactive", "InvalidDateRange", "PastDateRange", "GuestCapacityExceeded",
		"DateRangeUnavailable", "InvalidPrice", "InvalidTransition", "InvalidRating",
		"InvalidListing", "WeakPassword":
		return http.StatusBadRequest
	case "StoreUnavailable":
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders err with the status of its kind. Booking rejections list
// every violation in check order.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), Kind: domain.KindOf(err)}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Error = "booking rejected"
		resp.Kind = "ValidationFailed"
		for _, v := range verr.Violations {
			resp.Violations = append(resp.Violations, ViolationResponse{Kind: v.KindName(), Message: v.Message})
		}
	}

	switch status {
	case http.StatusInternalServerError:
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		resp = ErrorResponse{Error: "internal error", Kind: "Internal"}
	case http.StatusServiceUnavailable:
		logger.Warn("store unavailable",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		resp = ErrorResponse{Error: "service temporarily unavailable", Kind: "StoreUnavailable"}
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, resp)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg, Kind: "BadRequest"})
}

// decodeAndValidate reads a JSON body into dst and applies its validate tags
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = describeFieldError(fe)
			}
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request", Kind: "BadRequest", Fields: fields})
			return false
		}
		badRequest(w, err.Error())
		return false
	}
	return true
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid4", "uuid":
		return "must be a UUID"
	case "datetime":
		return "must be a date in " + fe.Param() + " format"
	case "decimal":
		return "must be a decimal number"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(w, fmt.Sprintf("invalid %s: %q", name, raw))
		return uuid.Nil, false
	}
	return id, true
}

func queryUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

// pagination reads limit/offset, capping limit at maxPageSize
func pagination(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "limit", defaultPageSize); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(r, "offset", 0); err != nil {
		return 0, 0, err
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, offset, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)
