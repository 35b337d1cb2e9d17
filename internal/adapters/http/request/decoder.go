// Package request
package request

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var ErrInvalidBody = errors.New("invalid request body")

const maxBodyBytes = 1 << 20

type RequestDecoder interface {
	Decode(r *http.Request, req any) error
}

type JSONDecoder struct{}

func NewJSONDecoder() RequestDecoder {
	return &JSONDecoder{}
}

func (d *JSONDecoder) Decode(r *http.Request, req any) error {
	defer r.Body.Close()

	dec := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(req); err != nil {
		return ErrInvalidBody
	}

	return nil
}
