package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mycelian/nurture-tracker/internal/auth"
	"github.com/mycelian/nurture-tracker/internal/metrics"
	"github.com/mycelian/nurture-tracker/internal/model"
	"github.com/mycelian/nurture-tracker/internal/questionnaire"
	"github.com/mycelian/nurture-tracker/internal/store"
)

// IncompleteDayError lists the unanswered question indexes that block a day.
type IncompleteDayError struct {
	Day     int
	Missing []int
}

func (e *IncompleteDayError) Error() string {
	return fmt.Sprintf("%s: day %d has unanswered questions %v", model.ErrIncompleteDay, e.Day, e.Missing)
}

func (e *IncompleteDayError) Unwrap() error { return model.ErrIncompleteDay }

// DayProgress describes how far a customer's answers for one day have got.
type DayProgress struct {
	Day      int     `json:"day"`
	Answered int     `json:"answered"`
	Total    int     `json:"total"`
	Percent  float64 `json:"percent"`
	Missing  []int   `json:"missing"`
	Complete bool    `json:"complete"`
}

// FormService stores day answers and gates day completion on them.
type FormService struct {
	store     store.Store
	customers *CustomerService
	q         *questionnaire.Questionnaire
	log       zerolog.Logger
}

func NewFormService(s store.Store, customers *CustomerService, q *questionnaire.Questionnaire, log zerolog.Logger) *FormService {
	return &FormService{store: s, customers: customers, q: q, log: log}
}

func (s *FormService) Questionnaire() *questionnaire.Questionnaire { return s.q }

func (s *FormService) SaveAnswer(ctx context.Context, actor *auth.Actor, customerID string, day, question int, text string) (model.Answers, error) {
	if err := questionnaire.ValidateQuestion(day, question); err != nil {
		return nil, err
	}
	if _, err := s.customers.Get(ctx, actor, customerID); err != nil {
		return nil, err
	}
	return s.store.Answers().Set(ctx, customerID, questionnaire.AnswerKey(day, question), text)
}

func (s *FormService) Answers(ctx context.Context, actor *auth.Actor, customerID string) (model.Answers, error) {
	if _, err := s.customers.Get(ctx, actor, customerID); err != nil {
		return nil, err
	}
	return s.store.Answers().Get(ctx, customerID)
}

func (s *FormService) IsDayComplete(ctx context.Context, actor *auth.Actor, customerID string, day int) (bool, error) {
	p, err := s.DayProgress(ctx, actor, customerID, day)
	if err != nil {
		return false, err
	}
	return p.Complete, nil
}

func (s *FormService) DayProgress(ctx context.Context, actor *auth.Actor, customerID string, day int) (DayProgress, error) {
	if err := questionnaire.ValidateQuestion(day, 0); err != nil {
		return DayProgress{}, err
	}
	a, err := s.Answers(ctx, actor, customerID)
	if err != nil {
		return DayProgress{}, err
	}
	missing := questionnaire.MissingQuestions(a, day)
	if missing == nil {
		missing = []int{}
	}
	return DayProgress{
		Day:      day,
		Answered: model.QuestionsPerDay - len(missing),
		Total:    model.QuestionsPerDay,
		Percent:  questionnaire.DayProgress(a, day),
		Missing:  missing,
		Complete: len(missing) == 0,
	}, nil
}

// CompleteDay marks day done only when all its questions are answered; otherwise it
// returns an *IncompleteDayError and leaves the customer unchanged.
func (s *FormService) CompleteDay(ctx context.Context, actor *auth.Actor, customerID string, day int) (model.Customer, error) {
	p, err := s.DayProgress(ctx, actor, customerID, day)
	if err != nil {
		return model.Customer{}, err
	}
	if !p.Complete {
		metrics.IncompleteDayRejections.Inc()
		return model.Customer{}, &IncompleteDayError{Day: day, Missing: p.Missing}
	}
	return s.customers.SetDayCompletion(ctx, actor, customerID, day, true)
}
