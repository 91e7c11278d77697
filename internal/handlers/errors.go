package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/nano-feed/backend/internal/apperror"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ErrorResponder returns the echo.HTTPErrorHandler that turns every handler
// and middleware error into an ErrorBody.
func ErrorResponder(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := http.StatusInternalServerError, ErrorBody{Message: "An internal error occurred."}

		var appErr *apperror.Error
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = appErr.Kind.Status()
			body = ErrorBody{Message: appErr.Message, Data: appErr.Data}
		case errors.As(err, &httpErr):
			status = httpErr.Code
			body.Message = fmt.Sprint(httpErr.Message)
		}

		ev := log.Debug()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Err(err).
			Int("status", status).
			Str("method", c.Request().Method).
			Str("uri", c.Request().RequestURI).
			Msg("An Error Occurred")

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error().Err(err).Msg("could not write error response")
		}
	}
}
