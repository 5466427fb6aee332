package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/webagent/webagent/internal/handler/dto"
)

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.NewError(code, message))
}
