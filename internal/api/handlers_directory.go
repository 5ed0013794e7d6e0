package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mycelian/nurture-tracker/internal/api/respond"
	"github.com/mycelian/nurture-tracker/internal/model"
	"github.com/mycelian/nurture-tracker/internal/services"
)

type DirectoryHandler struct {
	svc *services.DirectoryService
}

func NewDirectoryHandler(svc *services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{svc: svc}
}

type createUserRequest struct {
	Username string  `json:"username" validate:"notblank,max=64"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	FullName string  `json:"fullName" validate:"notblank,max=200"`
	Email    string  `json:"email" validate:"omitempty,email"`
	Role     string  `json:"role" validate:"required,oneof=manager employee"`
	GroupID  *string `json:"groupId"`
}

type patchUserRequest struct {
	FullName *string `json:"fullName" validate:"omitempty,notblank,max=200"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=manager employee"`
	IsActive *bool   `json:"isActive"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

func (h *DirectoryHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context(), actorOf(r))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, users)
}

func (h *DirectoryHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in createUserRequest
	if !decodeBody(w, r, &in) {
		return
	}
	u, err := h.svc.CreateUser(r.Context(), actorOf(r), services.NewUser{
		Username: in.Username,
		Password: in.Password,
		FullName: in.FullName,
		Email:    in.Email,
		Role:     model.Role(in.Role),
		GroupID:  in.GroupID,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, u)
}

func (h *DirectoryHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var in patchUserRequest
	if !decodeBody(w, r, &in) {
		return
	}
	p := services.UserPatch{
		FullName: in.FullName,
		Email:    in.Email,
		IsActive: in.IsActive,
		Password: in.Password,
	}
	if in.Role != nil {
		role := model.Role(*in.Role)
		p.Role = &role
	}
	u, err := h.svc.UpdateUser(r.Context(), actorOf(r), mux.Vars(r)["userId"], p)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}

func (h *DirectoryHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUser(r.Context(), actorOf(r), mux.Vars(r)["userId"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetGroup handles PUT /api/users/{userId}/group; a null groupId clears the assignment.
func (h *DirectoryHandler) SetGroup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		GroupID *string `json:"groupId"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	u, err := h.svc.SetUserGroup(r.Context(), actorOf(r), mux.Vars(r)["userId"], in.GroupID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}

func (h *DirectoryHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.ListGroups(r.Context(), actorOf(r))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, groups)
}

func (h *DirectoryHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string `json:"name" validate:"notblank,max=200"`
		Description string `json:"description" validate:"max=2000"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	g, err := h.svc.CreateGroup(r.Context(), actorOf(r), in.Name, in.Description)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, g)
}
