package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"landmarket/access"
	"landmarket/identity"
	"landmarket/inquiry"
	"landmarket/listing"
	"landmarket/notify"
	"landmarket/savedsearch"
)

type errorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// fail translates a domain error into an HTTP response. Access denials
// keep their machine-readable reason as the error code.
func fail(c *gin.Context, err error) {
	var accessErr *access.Error
	if errors.As(err, &accessErr) {
		status := http.StatusForbidden
		if accessErr.Reason == access.ReasonUnauthenticated {
			status = http.StatusUnauthorized
		}
		writeError(c, status, string(accessErr.Reason), accessErr.Error())
		return
	}

	var valErr *listing.ValidationError
	if errors.As(err, &valErr) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{Error: errorBody{
			Code:    "ValidationFailed",
			Message: valErr.Error(),
			Fields:  valErr.Fields,
		}})
		return
	}

	var transErr *listing.StateTransitionError
	if errors.As(err, &transErr) {
		writeError(c, http.StatusConflict, "InvalidTransition", transErr.Error())
		return
	}

	switch {
	case errors.Is(err, listing.ErrNotFound),
		errors.Is(err, listing.ErrImageNotFound),
		errors.Is(err, inquiry.ErrNotFound),
		errors.Is(err, notify.ErrNotFound),
		errors.Is(err, savedsearch.ErrNotFound),
		errors.Is(err, identity.ErrUserNotFound):
		writeError(c, http.StatusNotFound, "NotFound", err.Error())
	case errors.Is(err, listing.ErrListingUnavailable):
		writeError(c, http.StatusConflict, "ListingUnavailable", err.Error())
	case errors.Is(err, listing.ErrNotEditable):
		writeError(c, http.StatusConflict, "NotEditable", err.Error())
	case errors.Is(err, inquiry.ErrSelfInquiry):
		writeError(c, http.StatusConflict, "SelfInquiry", err.Error())
	case errors.Is(err, inquiry.ErrDuplicateInquiry):
		writeError(c, http.StatusConflict, "DuplicateInquiry", err.Error())
	case errors.Is(err, inquiry.ErrAlreadyResponded):
		writeError(c, http.StatusConflict, "AlreadyResponded", err.Error())
	case errors.Is(err, inquiry.ErrEmptyMessage),
		errors.Is(err, inquiry.ErrResponseTooShort),
		errors.Is(err, savedsearch.ErrNameRequired),
		errors.Is(err, savedsearch.ErrBadPropertyType),
		errors.Is(err, identity.ErrWeakPassword):
		writeError(c, http.StatusBadRequest, "InvalidInput", err.Error())
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, "InvalidCredentials", err.Error())
	case errors.Is(err, identity.ErrDuplicateEmail):
		writeError(c, http.StatusConflict, "DuplicateEmail", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "Internal", "internal error")
	}
}

// paged is the list envelope shared by every collection endpoint.
type paged struct {
	Items any `json:"items"`
	Total int `json:"total"`
}
