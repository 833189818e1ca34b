package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/example/ai-media-check/internal/detector"
)

const missingSourceMessage = `Debes enviar "url" o "base64" para analizar el archivo.`

type analyzeRequest struct {
	MediaType string  `json:"mediaType" binding:"required,oneof=image video"`
	URL       *string `json:"url" binding:"omitempty,url"`
	Base64    *string `json:"base64" binding:"omitempty,min=1"`
}

// ValidationDetails lists request problems: form-level ones and those keyed
// by JSON field path.
type ValidationDetails struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

func newValidationDetails() *ValidationDetails {
	return &ValidationDetails{FormErrors: []string{}, FieldErrors: map[string][]string{}}
}

func (d *ValidationDetails) addField(path, message string) {
	d.FieldErrors[path] = append(d.FieldErrors[path], message)
}

func (d *ValidationDetails) empty() bool {
	return len(d.FormErrors) == 0 && len(d.FieldErrors) == 0
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report "mediaType" rather than "MediaType".
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindAnalyzeRequest decodes and validates the body. Validation problems are
// returned as details; err is only set for failures that are not the
// caller's input, such as an oversize body.
//
// Fields are decoded one by one so that a type error on one of them does not
// hide constraint violations on the others.
func bindAnalyzeRequest(c *gin.Context) (detector.MediaRequest, *ValidationDetails, error) {
	details := newValidationDetails()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return detector.MediaRequest{}, nil, err
	}

	fields, ok := decodeObject(body, details)
	if !ok {
		return detector.MediaRequest{}, details, nil
	}

	var req analyzeRequest
	if v := stringField(fields, "mediaType", details); v != nil {
		req.MediaType = *v
	}
	req.URL = stringField(fields, "url", details)
	req.Base64 = stringField(fields, "base64", details)

	if err := binding.Validator.ValidateStruct(&req); err != nil {
		if !collectValidationErrors(err, details) {
			return detector.MediaRequest{}, nil, err
		}
	}
	if !details.empty() {
		return detector.MediaRequest{}, details, nil
	}

	if req.URL == nil && req.Base64 == nil {
		details.addField("url", missingSourceMessage)
		return detector.MediaRequest{}, details, nil
	}

	media := detector.MediaRequest{MediaType: detector.MediaType(req.MediaType)}
	if req.URL != nil {
		media.URL = *req.URL
	}
	if req.Base64 != nil {
		media.Base64 = *req.Base64
	}
	return media, nil, nil
}

// decodeObject parses body as a JSON object. An empty body counts as {}.
func decodeObject(body []byte, details *ValidationDetails) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return map[string]json.RawMessage{}, true
	}

	var fields map[string]json.RawMessage
	err := json.Unmarshal(trimmed, &fields)
	var typeErr *json.UnmarshalTypeError
	switch {
	case err == nil && fields != nil:
		return fields, true
	case err == nil, errors.As(err, &typeErr):
		details.FormErrors = append(details.FormErrors, "Se esperaba un objeto JSON.")
	default:
		details.FormErrors = append(details.FormErrors, "El cuerpo no es JSON válido.")
	}
	return nil, false
}

// stringField returns the named field when it holds a JSON string. Absent
// fields are nil; null and other types are recorded as type errors.
func stringField(fields map[string]json.RawMessage, name string, details *ValidationDetails) *string {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	if bytes.Equal(raw, []byte("null")) {
		details.addField(name, "Tipo inválido: se esperaba string, se recibió null.")
		return nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		details.addField(name, "Tipo inválido: se esperaba string.")
		return nil
	}
	return &v
}

// collectValidationErrors records tag violations in details, skipping fields
// that already failed type checks, and reports whether err was a validation
// failure.
func collectValidationErrors(err error, details *ValidationDetails) bool {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return false
	}
	typeFailed := make(map[string]bool, len(details.FieldErrors))
	for field := range details.FieldErrors {
		typeFailed[field] = true
	}
	for _, fe := range validationErrs {
		if typeFailed[fe.Field()] {
			continue
		}
		details.addField(fe.Field(), fieldMessage(fe))
	}
	return true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Campo requerido."
	case "oneof":
		return "Valor inválido. Se esperaba 'image' | 'video'."
	case "url":
		return "URL inválida."
	case "min":
		return "Debe contener al menos 1 carácter."
	default:
		return fmt.Sprintf("Valor inválido (%s).", fe.Tag())
	}
}
