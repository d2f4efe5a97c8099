package respond

import (
	"encoding/json"
	"net/http"
)

// Base is the envelope shared by every endpoint. Field names must
// serialize exactly as the client's response structs expect them.
type Base struct {
	Success bool   `json:"Success"`
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

// Auth extends Base with the token fields returned by login and refresh.
type Auth struct {
	Base
	AccessToken           string `json:"AccessToken"`
	ExpiresAt             int64  `json:"ExpiresAt"`
	RefreshToken          string `json:"RefreshToken"`
	RefreshTokenExpiresAt int64  `json:"RefreshTokenExpiresAt"`
	UserId                string `json:"UserId"`
}

// Data extends Base with the per-user payload used by protected routes.
type Data struct {
	Base
	Data string `json:"Data"`
}

// List extends Base with an arbitrary payload for debug listings.
type List struct {
	Base
	Data any `json:"Data"`
}

func OK(code, message string) Base {
	return Base{Success: true, Code: code, Message: message}
}

func Fail(code, message string) Base {
	return Base{Success: false, Code: code, Message: message}
}

func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Business writes a business-level outcome: always HTTP 200, success or
// failure carried in the envelope.
func Business(w http.ResponseWriter, body any) {
	JSON(w, http.StatusOK, body)
}
