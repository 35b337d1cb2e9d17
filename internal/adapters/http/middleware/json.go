package middleware

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w).Encode(map[string]string{
		"message": message,
	})
}
