package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (a *API) getAlerts(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 100, 10000)
	alerts, err := a.alerts.ListAlerts(r.Context(), limit)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, alerts, http.StatusOK)
}

func (a *API) getAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	alert, err := a.alerts.GetAlert(r.Context(), id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, alert, http.StatusOK)
}

func (a *API) deleteAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.alerts.DeleteAlert(r.Context(), id); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, map[string]string{"status": "deleted"}, http.StatusOK)
}

func (a *API) runDetections(w http.ResponseWriter, r *http.Request) {
	result, err := a.detections.Run(r.Context())
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, result, http.StatusOK)
}
