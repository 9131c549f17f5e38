package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

func (a *API) importJSONL(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(a.config.API.MaxUploadBytes)
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		a.respondBadRequest(w, fmt.Errorf("parsing multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		a.respondBadRequest(w, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	source := r.FormValue("source")
	if source == "" {
		a.respondBadRequest(w, fmt.Errorf("source is required"))
		return
	}

	job, err := a.imports.ImportJSONL(r.Context(), file, header.Filename,
		source, r.FormValue("host"), r.FormValue("user"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, job, http.StatusCreated)
}

func (a *API) getImportJobs(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 100, 10000)
	jobs, err := a.imports.ListImportJobs(r.Context(), limit)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, jobs, http.StatusOK)
}

func (a *API) deleteImportJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.imports.DeleteImportJob(r.Context(), id); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.respondJSON(w, map[string]string{"status": "deleted"}, http.StatusOK)
}
