package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mycelian/nurture-tracker/internal/auth"
	"github.com/mycelian/nurture-tracker/internal/core/customer"
	"github.com/mycelian/nurture-tracker/internal/metrics"
	"github.com/mycelian/nurture-tracker/internal/model"
	"github.com/mycelian/nurture-tracker/internal/store"
)

// CustomerService runs the progress engine against stored customers.
type CustomerService struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewCustomerService(s store.Store, log zerolog.Logger) *CustomerService {
	return &CustomerService{store: s, log: log, now: time.Now}
}

func (s *CustomerService) AddCustomer(ctx context.Context, actor *auth.Actor, name string) (model.Customer, error) {
	u, err := requireActor(actor)
	if err != nil {
		return model.Customer{}, err
	}
	if strings.TrimSpace(name) == "" {
		return model.Customer{}, fmt.Errorf("%w: name is required", model.ErrValidation)
	}
	id, err := newID()
	if err != nil {
		return model.Customer{}, err
	}
	c, err := s.store.Customers().Create(ctx, customer.New(id, name, u.ID, s.now().UTC()))
	if err != nil {
		return model.Customer{}, err
	}
	metrics.CustomersCreated.Inc()
	s.log.Info().Str("customer_id", c.ID).Str("owner_id", u.ID).Msg("customer added")
	return c, nil
}

// Get returns a customer the actor may see. Hidden customers read as not found.
func (s *CustomerService) Get(ctx context.Context, actor *auth.Actor, id string) (model.Customer, error) {
	u, err := requireActor(actor)
	if err != nil {
		return model.Customer{}, err
	}
	c, err := s.store.Customers().Get(ctx, id)
	if err != nil {
		return model.Customer{}, err
	}
	if !auth.CanViewCustomer(u, c) {
		return model.Customer{}, fmt.Errorf("%w: customer %q", model.ErrNotFound, id)
	}
	return c, nil
}

func (s *CustomerService) List(ctx context.Context, actor *auth.Actor) ([]model.Customer, error) {
	u, err := requireActor(actor)
	if err != nil {
		return nil, err
	}
	all, err := s.store.Customers().List(ctx)
	if err != nil {
		return nil, err
	}
	return auth.VisibleCustomers(u, all), nil
}

func (s *CustomerService) Stats(ctx context.Context, actor *auth.Actor) (model.CustomerStats, error) {
	list, err := s.List(ctx, actor)
	if err != nil {
		return model.CustomerStats{}, err
	}
	return customer.Stats(list), nil
}

func (s *CustomerService) SetDayCompletion(ctx context.Context, actor *auth.Actor, id string, day int, completed bool) (model.Customer, error) {
	if err := customer.ValidateDay(day); err != nil {
		return model.Customer{}, err
	}
	marked := false
	c, err := s.update(ctx, actor, id, func(c model.Customer) (model.Customer, error) {
		marked = completed && !c.HasDay(day)
		return customer.SetDayCompletion(c, day, completed, s.now().UTC())
	})
	if err != nil {
		return model.Customer{}, err
	}
	if marked {
		metrics.DaysCompleted.Inc()
	}
	s.log.Debug().Str("customer_id", id).Int("day", day).Bool("completed", completed).Msg("day completion updated")
	return c, nil
}

func (s *CustomerService) SetPotential(ctx context.Context, actor *auth.Actor, id string, isPotential bool, score *int, notes *string) (model.Customer, error) {
	return s.update(ctx, actor, id, func(c model.Customer) (model.Customer, error) {
		return customer.SetPotential(c, isPotential, score, notes, s.now().UTC())
	})
}

func (s *CustomerService) SetDeposit(ctx context.Context, actor *auth.Actor, id string, hasDeposited bool, amount *float64, notes *string) (model.Customer, error) {
	return s.update(ctx, actor, id, func(c model.Customer) (model.Customer, error) {
		return customer.SetDeposit(c, hasDeposited, amount, notes, s.now().UTC())
	})
}

// DeleteCustomer removes the customer and all documents keyed by its id.
func (s *CustomerService) DeleteCustomer(ctx context.Context, actor *auth.Actor, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.Customers().Delete(ctx, id); err != nil {
		return err
	}
	metrics.CustomersDeleted.Inc()
	s.log.Info().Str("customer_id", id).Str("actor_id", actor.User.ID).Msg("customer deleted")
	return nil
}

func (s *CustomerService) update(ctx context.Context, actor *auth.Actor, id string, fn store.CustomerMutator) (model.Customer, error) {
	u, err := requireActor(actor)
	if err != nil {
		return model.Customer{}, err
	}
	return s.store.Customers().Update(ctx, id, func(c model.Customer) (model.Customer, error) {
		if !auth.CanViewCustomer(u, c) {
			return c, fmt.Errorf("%w: customer %q", model.ErrNotFound, id)
		}
		return fn(c)
	})
}
