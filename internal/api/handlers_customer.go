package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mycelian/nurture-tracker/internal/api/respond"
	"github.com/mycelian/nurture-tracker/internal/services"
)

type CustomerHandler struct {
	customers *services.CustomerService
	forms     *services.FormService
}

func NewCustomerHandler(customers *services.CustomerService, forms *services.FormService) *CustomerHandler {
	return &CustomerHandler{customers: customers, forms: forms}
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.customers.List(r.Context(), actorOf(r))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, list)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name" validate:"notblank,max=200"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := h.customers.AddCustomer(r.Context(), actorOf(r), in.Name)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, c)
}

func (h *CustomerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.customers.Stats(r.Context(), actorOf(r))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, st)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.customers.Get(r.Context(), actorOf(r), mux.Vars(r)["customerId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.DeleteCustomer(r.Context(), actorOf(r), mux.Vars(r)["customerId"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomerHandler) SetDay(w http.ResponseWriter, r *http.Request) {
	day, err := intVar(r, "day")
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	var in struct {
		Completed *bool `json:"completed" validate:"required"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := h.customers.SetDayCompletion(r.Context(), actorOf(r), mux.Vars(r)["customerId"], day, *in.Completed)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) SetPotential(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IsPotential bool    `json:"isPotential"`
		Score       *int    `json:"score" validate:"omitempty,min=1,max=10"`
		Notes       *string `json:"notes" validate:"omitempty,max=2000"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := h.customers.SetPotential(r.Context(), actorOf(r), mux.Vars(r)["customerId"], in.IsPotential, in.Score, in.Notes)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) SetDeposit(w http.ResponseWriter, r *http.Request) {
	var in struct {
		HasDeposited bool     `json:"hasDeposited"`
		Amount       *float64 `json:"amount" validate:"omitempty,gte=0"`
		Notes        *string  `json:"notes" validate:"omitempty,max=2000"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := h.customers.SetDeposit(r.Context(), actorOf(r), mux.Vars(r)["customerId"], in.HasDeposited, in.Amount, in.Notes)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) Answers(w http.ResponseWriter, r *http.Request) {
	a, err := h.forms.Answers(r.Context(), actorOf(r), mux.Vars(r)["customerId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, a)
}

func (h *CustomerHandler) SaveAnswer(w http.ResponseWriter, r *http.Request) {
	day, err := intVar(r, "day")
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	q, err := intVar(r, "question")
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	var in struct {
		Answer string `json:"answer" validate:"max=10000"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	a, err := h.forms.SaveAnswer(r.Context(), actorOf(r), mux.Vars(r)["customerId"], day, q, in.Answer)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, a)
}

func (h *CustomerHandler) DayProgress(w http.ResponseWriter, r *http.Request) {
	day, err := intVar(r, "day")
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	p, err := h.forms.DayProgress(r.Context(), actorOf(r), mux.Vars(r)["customerId"], day)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

func (h *CustomerHandler) CompleteDay(w http.ResponseWriter, r *http.Request) {
	day, err := intVar(r, "day")
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	c, err := h.forms.CompleteDay(r.Context(), actorOf(r), mux.Vars(r)["customerId"], day)
	var inc *services.IncompleteDayError
	if errors.As(err, &inc) {
		respond.WriteErrorDetails(w, http.StatusUnprocessableEntity, err.Error(), map[string]interface{}{
			"day":     inc.Day,
			"missing": inc.Missing,
		})
		return
	}
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) Questionnaire(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.forms.Questionnaire())
}
