package http

import (
	"errors"
	"net/http"

	"intranet-approval/internal/adapter/middleware"
	domainApproval "intranet-approval/internal/domain/approval"
	"intranet-approval/pkg/id"

	"github.com/labstack/echo/v4"
)

// bindAndValidate writes the 400/422 response itself and reports whether the
// handler should continue.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: "bad_request"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Code:    "unprocessable",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

// hex32Param reads a path id and rejects anything that cannot be a public id.
func hex32Param(c echo.Context, name string) (string, bool, error) {
	v := c.Param(name)
	if v == "" {
		return "", false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing " + name + " path param", Code: "bad_request"})
	}
	if !id.Valid(v) {
		return "", false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name, Code: "bad_request"})
	}
	return v, true, nil
}

// actorID is the verified token subject; the route group guarantees it is set.
func actorID(c echo.Context) string { return middleware.ActorID(c) }

// writeError maps workflow error kinds to HTTP status codes.
func writeError(c echo.Context, err error) error {
	var typed *domainApproval.Error
	if !errors.As(err, &typed) {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "internal"})
	}

	status := http.StatusInternalServerError
	switch typed.Kind {
	case domainApproval.KindValidation:
		status = http.StatusBadRequest
	case domainApproval.KindNotFound:
		status = http.StatusNotFound
	case domainApproval.KindForbidden:
		status = http.StatusForbidden
	case domainApproval.KindConflict:
		status = http.StatusConflict
	case domainApproval.KindPersistence:
		// the cause stays in the server log
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "store unavailable", Code: "persistence"})
	}

	code := typed.Code
	if code == "" {
		code = typed.Kind.String()
	}
	return c.JSON(status, ErrorResponse{Error: typed.Message, Code: code})
}
