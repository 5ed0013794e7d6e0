package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mycelian/nurture-tracker/internal/api/respond"
	"github.com/mycelian/nurture-tracker/internal/model"
	"github.com/mycelian/nurture-tracker/internal/services"
)

type DocumentHandler struct {
	svc *services.DocumentService
}

func NewDocumentHandler(svc *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type summaryRequest struct {
	PersonalityType string `json:"personalityType" validate:"omitempty,oneof=emotional practical mixed"`
	Goals           string `json:"goals" validate:"max=5000"`
	Background      string `json:"background" validate:"max=5000"`
	Strengths       string `json:"strengths" validate:"max=5000"`
	Concerns        string `json:"concerns" validate:"max=5000"`
}

func (h *DocumentHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.GetSummary(r.Context(), actorOf(r), mux.Vars(r)["customerId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, sum)
}

func (h *DocumentHandler) PutSummary(w http.ResponseWriter, r *http.Request) {
	var in summaryRequest
	if !decodeBody(w, r, &in) {
		return
	}
	sum, err := h.svc.PutSummary(r.Context(), actorOf(r), model.Summary{
		CustomerID:      mux.Vars(r)["customerId"],
		PersonalityType: model.PersonalityType(in.PersonalityType),
		Goals:           in.Goals,
		Background:      in.Background,
		Strengths:       in.Strengths,
		Concerns:        in.Concerns,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, sum)
}

func (h *DocumentHandler) DeleteSummary(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSummary(r.Context(), actorOf(r), mux.Vars(r)["customerId"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.ListNotes(r.Context(), actorOf(r), mux.Vars(r)["customerId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, notes)
}

func (h *DocumentHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Content  string `json:"content" validate:"notblank,max=5000"`
		Priority string `json:"priority" validate:"omitempty,oneof=low medium high"`
		Type     string `json:"type" validate:"omitempty,oneof=reminder warning info"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	n, err := h.svc.AddNote(r.Context(), actorOf(r), mux.Vars(r)["customerId"], model.ManagerNote{
		Content:  in.Content,
		Priority: model.NotePriority(in.Priority),
		Type:     model.NoteType(in.Type),
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, n)
}

func (h *DocumentHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.DeleteNote(r.Context(), actorOf(r), vars["customerId"], vars["noteId"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type profileRequest struct {
	PersonalityType    string   `json:"personalityType" validate:"omitempty,oneof=emotional practical mixed"`
	Motivations        []string `json:"motivationFactors" validate:"max=50,dive,max=200"`
	Concerns           []string `json:"concerns" validate:"max=50,dive,max=200"`
	CommunicationStyle string   `json:"communicationStyle" validate:"max=2000"`
	EngagementPlan     string   `json:"engagementPlan" validate:"max=5000"`
	Notes              string   `json:"analysisNotes" validate:"max=5000"`
}

func (h *DocumentHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProfile(r.Context(), actorOf(r), mux.Vars(r)["customerId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

func (h *DocumentHandler) PutProfile(w http.ResponseWriter, r *http.Request) {
	var in profileRequest
	if !decodeBody(w, r, &in) {
		return
	}
	p, err := h.svc.PutProfile(r.Context(), actorOf(r), model.Profile{
		CustomerID:         mux.Vars(r)["customerId"],
		PersonalityType:    model.PersonalityType(in.PersonalityType),
		Motivations:        in.Motivations,
		Concerns:           in.Concerns,
		CommunicationStyle: in.CommunicationStyle,
		EngagementPlan:     in.EngagementPlan,
		Notes:              in.Notes,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

func (h *DocumentHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProfile(r.Context(), actorOf(r), mux.Vars(r)["customerId"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
