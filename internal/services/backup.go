package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mycelian/nurture-tracker/internal/auth"
	"github.com/mycelian/nurture-tracker/internal/model"
	"github.com/mycelian/nurture-tracker/internal/store"
)

// Snapshot is a full dump of the stored documents.
type Snapshot struct {
	ExportDate time.Time                  `json:"exportDate"`
	Entries    map[string]json.RawMessage `json:"entries"`
}

// BackupService exports and restores every stored document. Manager-only.
type BackupService struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewBackupService(s store.Store, log zerolog.Logger) *BackupService {
	return &BackupService{store: s, log: log, now: time.Now}
}

func (s *BackupService) Export(ctx context.Context, actor *auth.Actor) (Snapshot, error) {
	if _, err := requireManager(actor); err != nil {
		return Snapshot{}, err
	}
	entries, err := s.store.Snapshots().Export(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	s.log.Info().Int("keys", len(entries)).Msg("backup exported")
	return Snapshot{ExportDate: s.now().UTC(), Entries: entries}, nil
}

// Import overwrites every key in snap in one batch. Keys missing from snap are kept.
func (s *BackupService) Import(ctx context.Context, actor *auth.Actor, snap Snapshot) (int, error) {
	if _, err := requireManager(actor); err != nil {
		return 0, err
	}
	if len(snap.Entries) == 0 {
		return 0, fmt.Errorf("%w: backup has no entries", model.ErrValidation)
	}
	if err := s.store.Snapshots().Import(ctx, snap.Entries); err != nil {
		return 0, err
	}
	s.log.Info().Int("keys", len(snap.Entries)).Time("export_date", snap.ExportDate).Msg("backup imported")
	return len(snap.Entries), nil
}
