package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/KingInYellow18/medianest-sub018/internal/integration"
	"github.com/KingInYellow18/medianest-sub018/internal/webhook"
)

func setupRouter(webhookHandler *webhook.Handler, registry *integration.Registry) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/webhooks/{source}", webhookHandler).Methods(http.MethodPost)
	r.HandleFunc("/status/services", registry.OverviewHandler()).Methods(http.MethodGet)
	r.HandleFunc("/status/services/{service}", registry.ServiceHandler()).Methods(http.MethodGet)

	return r
}
