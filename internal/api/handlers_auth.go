package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mycelian/nurture-tracker/internal/api/respond"
	"github.com/mycelian/nurture-tracker/internal/services"
	"github.com/mycelian/nurture-tracker/internal/session"
)

type AuthHandler struct {
	svc *services.AuthService
}

func NewAuthHandler(svc *services.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

type loginRequest struct {
	Username string          `json:"username" validate:"notblank"`
	Password string          `json:"password" validate:"required"`
	Device   session.Signals `json:"device"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Device.UserAgent == "" {
		in.Device.UserAgent = r.UserAgent()
	}
	res, err := h.svc.Login(r.Context(), in.Username, in.Password, in.Device)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), actorOf(r)); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Devices(r.Context(), actorOf(r))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, list)
}

func (h *AuthHandler) RemoveDevice(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveDevice(r.Context(), actorOf(r), mux.Vars(r)["deviceId"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.LogoutAll(r.Context(), actorOf(r))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]int{"removed": n})
}
