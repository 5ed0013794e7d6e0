// Package customer holds the progress rules for a customer moving through the nurture script.
// Every function is pure: it takes a customer value and returns the updated copy.
package customer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mycelian/nurture-tracker/internal/model"
)

const (
	MinPotentialScore = 1
	MaxPotentialScore = 10
)

// New returns a customer at the start of the script.
func New(id, name, ownerID string, now time.Time) model.Customer {
	return model.Customer{
		ID:            id,
		Name:          strings.TrimSpace(name),
		OwnerID:       ownerID,
		CreatedAt:     now,
		LastUpdated:   now,
		CompletedDays: []int{},
	}
}

// ValidateDay rejects days outside the script.
func ValidateDay(day int) error {
	if day < 1 || day > model.NurtureDays {
		return fmt.Errorf("%w: day must be between 1 and %d, got %d", model.ErrValidation, model.NurtureDays, day)
	}
	return nil
}

// SetDayCompletion marks day as done (completed=true) or not done.
// Marking twice and unmarking an absent day leave the set unchanged.
func SetDayCompletion(c model.Customer, day int, completed bool, now time.Time) (model.Customer, error) {
	if err := ValidateDay(day); err != nil {
		return c, err
	}
	days := make([]int, 0, len(c.CompletedDays)+1)
	seen := make(map[int]bool, len(c.CompletedDays)+1)
	for _, d := range c.CompletedDays {
		if d == day && !completed {
			continue
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	if completed && !seen[day] {
		days = append(days, day)
	}
	sort.Ints(days)

	c.CompletedDays = days
	c.LastUpdated = now
	return c, nil
}

// SetPotential records whether staff flagged the customer as a promising lead.
func SetPotential(c model.Customer, isPotential bool, score *int, notes *string, now time.Time) (model.Customer, error) {
	if score != nil && (*score < MinPotentialScore || *score > MaxPotentialScore) {
		return c, fmt.Errorf("%w: potential score must be between %d and %d", model.ErrValidation, MinPotentialScore, MaxPotentialScore)
	}
	c.IsPotential = isPotential
	c.PotentialScore = score
	c.PotentialNotes = notes
	c.LastUpdated = now
	return c, nil
}

// SetDeposit records the customer's financial outcome.
func SetDeposit(c model.Customer, hasDeposited bool, amount *float64, notes *string, now time.Time) (model.Customer, error) {
	if amount != nil && *amount < 0 {
		return c, fmt.Errorf("%w: deposit amount must not be negative", model.ErrValidation)
	}
	c.HasDeposited = hasDeposited
	c.DepositAmount = amount
	c.DepositNotes = notes
	c.LastUpdated = now
	return c, nil
}

// Stats aggregates dashboard counters over customers.
func Stats(customers []model.Customer) model.CustomerStats {
	var st model.CustomerStats
	st.Total = len(customers)
	var progress float64
	for _, c := range customers {
		switch c.Status() {
		case model.StatusCompleted:
			st.Completed++
		default:
			st.Active++
		}
		if c.IsPotential {
			st.Potential++
		}
		if c.HasDeposited {
			st.Deposited++
			if c.DepositAmount != nil {
				st.DepositTotal += *c.DepositAmount
			}
		}
		progress += c.TotalProgress()
	}
	if st.Total > 0 {
		st.AverageProgress = progress / float64(st.Total)
	}
	return st
}
