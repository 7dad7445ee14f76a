package httptransport

import (
	"net/http"

	"learnhub/internal/account"
	"learnhub/internal/auth/gate"
	"learnhub/pkg/platform/httputil"
)

type updateInfoRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type updatePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type updateAvatarRequest struct {
	Avatar account.Avatar `json:"avatar"`
}

type accountsResponse struct {
	Success bool                  `json:"success"`
	Users   []account.AccountView `json:"users"`
}

// handleMe returns the view cached in the caller's session.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	view, _ := gate.AccountFrom(r.Context())
	httputil.WriteJSON(w, http.StatusOK, accountResponse{Success: true, User: view})
}

func (h *Handler) handleUpdateInfo(w http.ResponseWriter, r *http.Request) {
	var req updateInfoRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller, _ := gate.AccountFrom(r.Context())
	view, err := h.accounts.UpdateInfo(r.Context(), caller.ID, account.UpdateInfoInput{Name: req.Name, Email: req.Email})
	if err != nil {
		h.fail(w, r, "update info", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, accountResponse{Success: true, User: view})
}

func (h *Handler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller, _ := gate.AccountFrom(r.Context())
	view, err := h.accounts.UpdatePassword(r.Context(), caller.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		h.fail(w, r, "update password", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, accountResponse{Success: true, User: view})
}

func (h *Handler) handleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	var req updateAvatarRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller, _ := gate.AccountFrom(r.Context())
	view, err := h.accounts.UpdateAvatar(r.Context(), caller.ID, req.Avatar)
	if err != nil {
		h.fail(w, r, "update avatar", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, accountResponse{Success: true, User: view})
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	views, err := h.accounts.List(r.Context())
	if err != nil {
		h.fail(w, r, "list accounts", err)
		return
	}
	if views == nil {
		views = []account.AccountView{}
	}
	httputil.WriteJSON(w, http.StatusOK, accountsResponse{Success: true, Users: views})
}
