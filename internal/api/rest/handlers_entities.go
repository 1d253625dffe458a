package rest

import (
	"net/http"
)

func (h *Handler) handleListShells(w http.ResponseWriter, r *http.Request) {
	limit, err := pageLimit(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	page, err := h.store.ListShells(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, err)
		return
	}

	shells := make([]any, 0, len(page.Shells))
	for _, record := range page.Shells {
		shells = append(shells, record.Shell)
	}
	writeJSON(w, http.StatusOK, pagedResponse{
		Result:         shells,
		PagingMetadata: pagingMetadata{Cursor: page.NextPageToken},
	})
}

func (h *Handler) handleGetShell(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.GetShell(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record.Shell)
}

func (h *Handler) handleListSubmodels(w http.ResponseWriter, r *http.Request) {
	limit, err := pageLimit(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	page, err := h.store.ListSubmodels(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, err)
		return
	}

	submodels := make([]any, 0, len(page.Submodels))
	for _, record := range page.Submodels {
		submodels = append(submodels, record.Submodel)
	}
	writeJSON(w, http.StatusOK, pagedResponse{
		Result:         submodels,
		PagingMetadata: pagingMetadata{Cursor: page.NextPageToken},
	})
}

func (h *Handler) handleGetSubmodel(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.GetSubmodel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record.Submodel)
}

func (h *Handler) handleListConcepts(w http.ResponseWriter, r *http.Request) {
	limit, err := pageLimit(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	page, err := h.store.ListConcepts(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, err)
		return
	}

	concepts := make([]any, 0, len(page.Concepts))
	for _, record := range page.Concepts {
		concepts = append(concepts, record.Concept)
	}
	writeJSON(w, http.StatusOK, pagedResponse{
		Result:         concepts,
		PagingMetadata: pagingMetadata{Cursor: page.NextPageToken},
	})
}

func (h *Handler) handleGetConcept(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.GetConcept(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record.Concept)
}

func (h *Handler) handleListShellDescriptors(w http.ResponseWriter, r *http.Request) {
	limit, err := pageLimit(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	page, err := h.store.ListShellDescriptors(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedResponse{
		Result:         page.Descriptors,
		PagingMetadata: pagingMetadata{Cursor: page.NextPageToken},
	})
}

func (h *Handler) handleListSubmodelDescriptors(w http.ResponseWriter, r *http.Request) {
	limit, err := pageLimit(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	page, err := h.store.ListSubmodelDescriptors(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedResponse{
		Result:         page.Descriptors,
		PagingMetadata: pagingMetadata{Cursor: page.NextPageToken},
	})
}
