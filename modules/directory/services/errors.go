package services

import (
	"fmt"
	"net/http"
)

type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

func notFoundError(code, message string, cause error) *ServiceError {
	return newServiceError(http.StatusNotFound, code, message, cause)
}

func validationError(code, message string) *ServiceError {
	return newServiceError(http.StatusUnprocessableEntity, code, message, nil)
}

func conflictError(code, message string) *ServiceError {
	return newServiceError(http.StatusConflict, code, message, nil)
}
