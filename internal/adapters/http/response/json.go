// Package response
package response

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"

	jsoniter "github.com/json-iterator/go"

	"catalog-server/internal/logger"
)

type ResponseWriter interface {
	Write(w http.ResponseWriter, status int, data *Response)
	WriteValidationError(w http.ResponseWriter, status int, errors map[string]string)
}

type Response struct {
	Message string             `json:"message,omitempty"`
	Data    any                `json:"data,omitempty"`
	Meta    any                `json:"meta,omitempty"`
	Errors  *map[string]string `json:"errors,omitempty"`
}

type JSONWriter struct {
	log logger.Logger
}

func NewJSONWriter(log logger.Logger) ResponseWriter {
	return &JSONWriter{log: log}
}

func (j *JSONWriter) Write(w http.ResponseWriter, status int, data *Response) {
	w.Header().Set("Content-Type", "application/json")

	if data == nil {
		w.WriteHeader(status)
		return
	}

	buf := &bytes.Buffer{}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(buf).Encode(data); err != nil {
		j.log.Error("failed to encode json response", "error", err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		buf.Reset()
		buf.WriteString(`{"message":"failed to encode response"}` + "\n")
	} else {
		w.WriteHeader(status)
	}

	if _, err := buf.WriteTo(w); err != nil {
		j.log.Error("failed to write json response", "error", err.Error())
	}
}

// WriteValidationError summarizes errors into one message naming the first
// field alphabetically and how many more failed.
func (j *JSONWriter) WriteValidationError(w http.ResponseWriter, status int, errors map[string]string) {
	if len(errors) == 0 {
		j.Write(w, status, &Response{Message: "invalid request"})
		return
	}

	keys := make([]string, 0, len(errors))
	for k := range errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	firstField := keys[0]
	mainMessage := errors[firstField]
	remaining := len(errors) - 1

	var finalMessage string
	switch remaining {
	case 0:
		finalMessage = mainMessage
	case 1:
		finalMessage = fmt.Sprintf("%s (and 1 more error)", mainMessage)
	default:
		finalMessage = fmt.Sprintf("%s (and %d more errors)", mainMessage, remaining)
	}

	j.Write(w, status, &Response{
		Message: finalMessage,
		Errors:  &errors,
	})
}
