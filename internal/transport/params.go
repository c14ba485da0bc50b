package transport

import (
	"net/http"
	"strconv"

	"sahaayak/internal/domain"
	"sahaayak/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// pathID parses the {name} URL parameter as a uuid, writing a 400 when it is malformed
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// identity returns the caller set by the auth middleware, writing a 401 when absent
func identity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "authentication required")
	}
	return id, ok
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}
