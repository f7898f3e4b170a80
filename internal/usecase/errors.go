package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError はhandlerでそのままレスポンスに変換される業務エラー。
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

var (
	errUnauthorized = NewHTTPError(http.StatusUnauthorized, "unauthorized")
	errForbidden    = NewHTTPError(http.StatusForbidden, "forbidden")
	errNotFound     = NewHTTPError(http.StatusNotFound, "not found")
	errDB           = NewHTTPError(http.StatusInternalServerError, "db error")
	errGateway      = NewHTTPError(http.StatusInternalServerError, "payment gateway error")
)
