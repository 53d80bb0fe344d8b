package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"digicommerce/internal/middleware"
	"digicommerce/internal/model"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError maps err onto a status code and the standard error body.
// Unknown errors are logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	resp := model.ErrorResponse{CorrelationID: chimw.GetReqID(r.Context())}

	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", resp.CorrelationID).
			Msg("unhandled error")
		resp.Error = model.ErrCodeInternalError
		resp.Message = "internal server error"
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	status := statusFor(domainErr.Code)
	resp.Error = domainErr.Code
	resp.Message = domainErr.Message
	resp.Fields = domainErr.Fields

	if status == http.StatusBadGateway {
		logger.Error().Err(err).Str("request_id", resp.CorrelationID).Msg("payment gateway failure")
		resp.Message = model.ErrGateway.Message
	} else {
		logger.Debug().Str("code", domainErr.Code).Int("status", status).Msg(domainErr.Message)
	}
	writeJSON(w, status, resp)
}

func statusFor(code string) int {
	switch code {
	case model.ErrCodeResourceNotFound, model.ErrCodeProductNotFound, model.ErrCodeCategoryNotFound,
		model.ErrCodeAddressNotFound, model.ErrCodeOrderNotFound:
		return http.StatusNotFound
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeGateway:
		return http.StatusBadGateway
	case model.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "invalid request body")
	}
	return nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError(map[string]string{name: "must be a positive integer"})
	}
	return id, nil
}

// pageRequest reads pageNumber, pageSize, sortBy and sortOrder from the
// query string. Normalisation happens in the service.
func pageRequest(r *http.Request) (model.PageRequest, error) {
	q := r.URL.Query()
	page := model.PageRequest{
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	fields := map[string]string{}
	if v := q.Get("pageNumber"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields["pageNumber"] = "must be an integer"
		}
		page.PageNumber = n
	}
	if v := q.Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields["pageSize"] = "must be an integer"
		}
		page.PageSize = n
	}
	if len(fields) > 0 {
		return page, model.NewValidationError(fields)
	}
	return page, nil
}

// currentUser returns the identity resolved by middleware.Identity.
func currentUser(r *http.Request) (*model.User, error) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return nil, model.ErrUnauthorised
	}
	return user, nil
}

type messageResponse struct {
	Message string `json:"message"`
}
