package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/admin"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
)

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req clients.Credentials
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.admin.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"loggedIn": true, "user": res.User})
}

func (h *Handler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.Logout(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type searchRequest struct {
	Query string `json:"query"`
}

// AdminSearch records the query; the list is fetched once typing settles.
func (h *Handler) AdminSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !h.admin.LoggedIn(r.Context()) {
		h.writeError(w, r, admin.ErrNotLoggedIn)
		return
	}
	h.admin.SetQuery(req.Query)
	writeJSON(w, http.StatusAccepted, h.admin.Snapshot(r.Context()))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) AdminStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s, err := admin.ParseStatus(req.Status)
	if err == nil {
		err = h.admin.SetStatus(r.Context(), s)
	}
	h.adminResult(w, r, http.StatusOK, err)
}

func (h *Handler) AdminProducts(w http.ResponseWriter, r *http.Request) {
	snap := h.admin.Snapshot(r.Context())
	if !snap.LoggedIn {
		h.writeError(w, r, admin.ErrNotLoggedIn)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, "", http.StatusCreated)
}

func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *Handler) saveProduct(w http.ResponseWriter, r *http.Request, id string, okStatus int) {
	var form admin.ProductForm
	if err := decodeJSON(r, &form); err != nil {
		writeErrorMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.adminResult(w, r, okStatus, h.admin.SaveProduct(r.Context(), form, id))
}

func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	h.adminResult(w, r, http.StatusOK, h.admin.DeleteProduct(r.Context(), chi.URLParam(r, "id")))
}

type toggleRequest struct {
	IsActive bool `json:"isActive"`
}

// AdminToggle flips the product from the isActive value the caller displayed.
func (h *Handler) AdminToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.adminResult(w, r, http.StatusOK, h.admin.ToggleStatus(r.Context(), chi.URLParam(r, "id"), req.IsActive))
}

func (h *Handler) adminResult(w http.ResponseWriter, r *http.Request, okStatus int, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, okStatus, h.admin.Snapshot(r.Context()))
}
