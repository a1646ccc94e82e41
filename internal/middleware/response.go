package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/portfolio-cms/apiserver/types"
)

// writeError renders gate rejections in the same body shape the handlers use.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.NewErrorBody(status, message))
}
