package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"workbench/service"

	"github.com/gorilla/mux"
)

func (a *API) createRule(w http.ResponseWriter, r *http.Request) {
	var input service.CreateRuleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		a.respondBadRequest(w, fmt.Errorf("decoding request body: %w", err))
		return
	}

	rule, err := a.rules.CreateRule(r.Context(), input)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, rule, http.StatusCreated)
}

func (a *API) getRules(w http.ResponseWriter, r *http.Request) {
	rules, err := a.rules.ListRules(r.Context())
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, rules, http.StatusOK)
}

func (a *API) getRule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rule, err := a.rules.GetRule(r.Context(), id)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, rule, http.StatusOK)
}

func (a *API) deleteRule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.rules.DeleteRule(r.Context(), id); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, map[string]string{"status": "deleted"}, http.StatusOK)
}
