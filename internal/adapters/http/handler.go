package http

import (
	"net/http"

	"catalog-server/internal/adapters/http/request"
	"catalog-server/internal/adapters/http/response"
	"catalog-server/internal/adapters/http/validator"
	"catalog-server/internal/logger"
)

// base carries the codec pieces every handler shares.
type base struct {
	decoder   request.RequestDecoder
	writer    response.ResponseWriter
	validator validator.Validator
	log       logger.Logger
}

func newBase(log logger.Logger) base {
	return base{
		decoder:   request.NewJSONDecoder(),
		writer:    response.NewJSONWriter(log),
		validator: validator.NewValidator(),
		log:       log,
	}
}

// bind decodes and validates the body into req. It writes the error
// response itself and reports false when the request must stop.
func (b *base) bind(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := b.decoder.Decode(r, req); err != nil {
		b.fail(w, err)
		return false
	}

	if errs := b.validator.Validate(req); len(errs) > 0 {
		b.writer.WriteValidationError(w, http.StatusUnprocessableEntity, errs)
		return false
	}

	return true
}

func (b *base) fail(w http.ResponseWriter, err error) {
	writeError(w, b.writer, b.log, err)
}

func (b *base) ok(w http.ResponseWriter, status int, message string, data any) {
	b.writer.Write(w, status, &response.Response{Message: message, Data: data})
}
