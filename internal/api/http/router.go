package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the middleware chain, the health endpoint and all the
// workflow routes.
func NewRouter(h *RMAHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestID, RequestLogging)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	h.RegisterRoutes(router)
	return router
}
