// Package data serves the protected /api/data resource: a per-user
// string blob with CRUD semantics, existing purely so authenticated
// client requests have something to read and write. Every handler runs
// the fault injector first, so simulated failures short-circuit before
// any store access.
package data

import (
	"encoding/json"
	"net/http"

	"mock-auth-server/internal/auth"
	"mock-auth-server/internal/faults"
	"mock-auth-server/internal/observability"
	"mock-auth-server/internal/respond"
	"mock-auth-server/internal/store"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	userData *store.UserData
	logger   *observability.Logger
}

func NewHandler(userData *store.UserData, logger *observability.Logger) *Handler {
	return &Handler{userData: userData, logger: logger}
}

type dataRequest struct {
	Data string `json:"data"`
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if faults.FromQuery(r).Apply(w, h.logger) {
		return
	}

	userID := auth.SubjectFromContext(r.Context())
	respond.Business(w, respond.Data{
		Base: respond.OK("SUCCESS", "Data retrieved"),
		Data: h.userData.Get(userID),
	})
}

func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	if faults.FromQuery(r).Apply(w, h.logger) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	var body dataRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.JSON(w, http.StatusBadRequest, respond.Fail("INVALID_BODY", "Invalid JSON body"))
		return
	}

	userID := auth.SubjectFromContext(r.Context())
	h.userData.Set(userID, body.Data)

	respond.Business(w, respond.Data{
		Base: respond.OK("SUCCESS", "Data updated"),
		Data: body.Data,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if faults.FromQuery(r).Apply(w, h.logger) {
		return
	}

	userID := auth.SubjectFromContext(r.Context())
	h.userData.Delete(userID)

	respond.Business(w, respond.Data{
		Base: respond.OK("SUCCESS", "Data deleted"),
	})
}
