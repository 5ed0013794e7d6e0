package api

import (
	"net/http"

	"github.com/mycelian/nurture-tracker/internal/api/respond"
	"github.com/mycelian/nurture-tracker/internal/services"
)

type BackupHandler struct {
	svc *services.BackupService
}

func NewBackupHandler(svc *services.BackupService) *BackupHandler { return &BackupHandler{svc: svc} }

func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Export(r.Context(), actorOf(r))
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="nurture-backup-`+snap.ExportDate.Format("2006-01-02")+`.json"`)
	respond.WriteJSON(w, http.StatusOK, snap)
}

func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	var snap services.Snapshot
	if !decodeBody(w, r, &snap) {
		return
	}
	n, err := h.svc.Import(r.Context(), actorOf(r), snap)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]int{"imported": n})
}
