package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"workbench/service"

	"github.com/gorilla/mux"
)

func (a *API) createIncident(w http.ResponseWriter, r *http.Request) {
	var input service.CreateIncidentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		a.respondBadRequest(w, fmt.Errorf("decoding request body: %w", err))
		return
	}

	incident, err := a.incidents.CreateIncident(r.Context(), input)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, incident, http.StatusCreated)
}

func (a *API) getIncidents(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 100, 10000)
	incidents, err := a.incidents.ListIncidents(r.Context(), limit)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, incidents, http.StatusOK)
}

func (a *API) getIncident(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	incident, err := a.incidents.GetIncident(r.Context(), id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, incident, http.StatusOK)
}

func (a *API) deleteIncident(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.incidents.DeleteIncident(r.Context(), id); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, map[string]string{"status": "deleted"}, http.StatusOK)
}

func (a *API) linkAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var body struct {
		AlertID string `json:"alert_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.respondBadRequest(w, fmt.Errorf("decoding request body: %w", err))
		return
	}
	if body.AlertID == "" {
		a.respondBadRequest(w, fmt.Errorf("alert_id is required"))
		return
	}

	linked, err := a.incidents.LinkAlert(r.Context(), id, body.AlertID)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, map[string]bool{"linked": linked}, http.StatusOK)
}

func (a *API) addAction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var input service.AddActionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		a.respondBadRequest(w, fmt.Errorf("decoding request body: %w", err))
		return
	}

	action, err := a.incidents.AddAction(r.Context(), id, input)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, action, http.StatusCreated)
}

func (a *API) getActions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	actions, err := a.incidents.ListActions(r.Context(), id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, actions, http.StatusOK)
}

func (a *API) closeIncident(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	incident, err := a.incidents.CloseIncident(r.Context(), id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, incident, http.StatusOK)
}

func (a *API) getPacket(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	packet, err := a.incidents.BuildPacket(r.Context(), id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, packet, http.StatusOK)
}

func (a *API) getEvidence(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := a.incidents.GetIncident(r.Context(), id); err != nil {
		a.respondError(w, r, err)
		return
	}
	files, err := a.evidence.GetEvidenceByIncident(r.Context(), id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, files, http.StatusOK)
}

func (a *API) getMarkdownReport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	markdown, err := a.reports.RenderMarkdown(r.Context(), id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(markdown)); err != nil {
		a.logger.Errorw("Failed to write markdown response", "error", err)
	}
}
