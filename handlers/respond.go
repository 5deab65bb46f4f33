package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/quillify-app/quillify/apperr"
)

// respondError maps the error taxonomy onto HTTP statuses. Internal errors
// get a generic body; the wrapped cause stays in the logs.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindBadRequest:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	}

	return c.JSON(status, map[string]string{"error": apperr.Message(err)})
}
