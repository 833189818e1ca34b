package detector

import "fmt"

// HTTPError is returned when the detector answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("Error del detector (%d): %s", e.StatusCode, e.Body)
}

// UnreachableError is returned when the detector could not be reached at all.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("no se pudo contactar al detector: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// ResponseTooLargeError is returned when the detector body exceeds the buffer limit.
type ResponseTooLargeError struct {
	StatusCode int
	Limit      int64
}

func (e *ResponseTooLargeError) Error() string {
	return fmt.Sprintf("respuesta del detector demasiado grande (%d): supera %d bytes", e.StatusCode, e.Limit)
}

// DecodeError is returned when a successful response is not valid JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("respuesta del detector no es JSON válido: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
