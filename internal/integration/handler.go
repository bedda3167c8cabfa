package integration

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// OverviewHandler serves the health of every registered service as JSON.
func (r *Registry) OverviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(r.Overview()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

// ServiceHandler serves the health of a single service.
func (r *Registry) ServiceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		service := mux.Vars(req)["service"]

		sh, ok := r.ServiceHealth(service)
		if !ok {
			http.Error(w, "unknown service", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sh); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}
