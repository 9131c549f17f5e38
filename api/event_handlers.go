package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"workbench/service"

	"github.com/gorilla/mux"
)

func (a *API) ingestEvent(w http.ResponseWriter, r *http.Request) {
	var input service.IngestEventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		a.respondBadRequest(w, fmt.Errorf("decoding request body: %w", err))
		return
	}

	event, err := a.events.IngestEvent(r.Context(), input)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, event, http.StatusCreated)
}

func (a *API) getEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 100, 10000)
	events, err := a.events.ListEvents(r.Context(), limit)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, events, http.StatusOK)
}

func (a *API) getEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	event, err := a.events.GetEvent(r.Context(), id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, event, http.StatusOK)
}
