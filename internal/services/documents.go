package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mycelian/nurture-tracker/internal/auth"
	"github.com/mycelian/nurture-tracker/internal/model"
	"github.com/mycelian/nurture-tracker/internal/store"
)

// DocumentService manages the per-customer summary, notes and profile.
type DocumentService struct {
	store     store.Store
	customers *CustomerService
	log       zerolog.Logger
	now       func() time.Time
}

func NewDocumentService(s store.Store, customers *CustomerService, log zerolog.Logger) *DocumentService {
	return &DocumentService{store: s, customers: customers, log: log, now: time.Now}
}

func (s *DocumentService) GetSummary(ctx context.Context, actor *auth.Actor, customerID string) (model.Summary, error) {
	if _, err := s.customers.Get(ctx, actor, customerID); err != nil {
		return model.Summary{}, err
	}
	return s.store.Summaries().Get(ctx, customerID)
}

func (s *DocumentService) PutSummary(ctx context.Context, actor *auth.Actor, sum model.Summary) (model.Summary, error) {
	if sum.PersonalityType != "" && !sum.PersonalityType.Valid() {
		return model.Summary{}, fmt.Errorf("%w: unknown personality type %q", model.ErrValidation, sum.PersonalityType)
	}
	if _, err := s.customers.Get(ctx, actor, sum.CustomerID); err != nil {
		return model.Summary{}, err
	}
	sum.UpdatedAt = s.now().UTC()
	return s.store.Summaries().Put(ctx, sum)
}

func (s *DocumentService) DeleteSummary(ctx context.Context, actor *auth.Actor, customerID string) error {
	if _, err := s.customers.Get(ctx, actor, customerID); err != nil {
		return err
	}
	return s.store.Summaries().Delete(ctx, customerID)
}

func (s *DocumentService) ListNotes(ctx context.Context, actor *auth.Actor, customerID string) ([]model.ManagerNote, error) {
	if _, err := s.customers.Get(ctx, actor, customerID); err != nil {
		return nil, err
	}
	return s.store.Notes().List(ctx, customerID)
}

// AddNote appends a note. Only managers write notes.
func (s *DocumentService) AddNote(ctx context.Context, actor *auth.Actor, customerID string, n model.ManagerNote) (model.ManagerNote, error) {
	u, err := requireManager(actor)
	if err != nil {
		return model.ManagerNote{}, err
	}
	if strings.TrimSpace(n.Content) == "" {
		return model.ManagerNote{}, fmt.Errorf("%w: note content is required", model.ErrValidation)
	}
	if n.Priority == "" {
		n.Priority = model.PriorityMedium
	}
	if n.Type == "" {
		n.Type = model.NoteInfo
	}
	switch n.Priority {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh:
	default:
		return model.ManagerNote{}, fmt.Errorf("%w: unknown priority %q", model.ErrValidation, n.Priority)
	}
	switch n.Type {
	case model.NoteReminder, model.NoteWarning, model.NoteInfo:
	default:
		return model.ManagerNote{}, fmt.Errorf("%w: unknown note type %q", model.ErrValidation, n.Type)
	}
	if _, err := s.customers.Get(ctx, actor, customerID); err != nil {
		return model.ManagerNote{}, err
	}
	if n.ID, err = newID(); err != nil {
		return model.ManagerNote{}, err
	}
	n.Author = u.ID
	n.CreatedAt = s.now().UTC()
	return s.store.Notes().Append(ctx, customerID, n)
}

// DeleteNote removes a note; managers and the note's author may do so.
func (s *DocumentService) DeleteNote(ctx context.Context, actor *auth.Actor, customerID, noteID string) error {
	notes, err := s.ListNotes(ctx, actor, customerID)
	if err != nil {
		return err
	}
	for _, n := range notes {
		if n.ID != noteID {
			continue
		}
		if !auth.CanEditDocument(actor.User, model.Document{ID: n.ID, CreatedBy: n.Author}) {
			return fmt.Errorf("%w: note %q", model.ErrForbidden, noteID)
		}
		return s.store.Notes().Delete(ctx, customerID, noteID)
	}
	return fmt.Errorf("%w: note %q", model.ErrNotFound, noteID)
}

func (s *DocumentService) GetProfile(ctx context.Context, actor *auth.Actor, customerID string) (model.Profile, error) {
	if _, err := s.customers.Get(ctx, actor, customerID); err != nil {
		return model.Profile{}, err
	}
	return s.store.Profiles().Get(ctx, customerID)
}

func (s *DocumentService) PutProfile(ctx context.Context, actor *auth.Actor, p model.Profile) (model.Profile, error) {
	if p.PersonalityType != "" && !p.PersonalityType.Valid() {
		return model.Profile{}, fmt.Errorf("%w: unknown personality type %q", model.ErrValidation, p.PersonalityType)
	}
	if _, err := s.customers.Get(ctx, actor, p.CustomerID); err != nil {
		return model.Profile{}, err
	}
	p.Motivations = tagSet(p.Motivations)
	p.Concerns = tagSet(p.Concerns)
	p.UpdatedAt = s.now().UTC()
	return s.store.Profiles().Put(ctx, p)
}

func (s *DocumentService) DeleteProfile(ctx context.Context, actor *auth.Actor, customerID string) error {
	if _, err := s.customers.Get(ctx, actor, customerID); err != nil {
		return err
	}
	return s.store.Profiles().Delete(ctx, customerID)
}

// tagSet trims, de-duplicates and sorts tags, dropping blanks.
func tagSet(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
