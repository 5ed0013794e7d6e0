package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mycelian/nurture-tracker/internal/api/recovery"
	"github.com/mycelian/nurture-tracker/internal/auth"
	"github.com/mycelian/nurture-tracker/internal/services"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth          *services.AuthService
	Authenticator *auth.Authenticator
	Customers     *services.CustomerService
	Forms         *services.FormService
	Documents     *services.DocumentService
	Directory     *services.DirectoryService
	Backup        *services.BackupService
	Health        HealthSource
	Log           zerolog.Logger
}

// NewRouter builds the HTTP surface.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(recovery.Middleware(d.Log))
	r.Use(RequestLogger(d.Log))

	authH := NewAuthHandler(d.Auth)
	customerH := NewCustomerHandler(d.Customers, d.Forms)
	docH := NewDocumentHandler(d.Documents)
	dirH := NewDirectoryHandler(d.Directory)
	backupH := NewBackupHandler(d.Backup)
	healthH := NewHealthHandler(d.Health)

	// public
	r.HandleFunc("/api/login", authH.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/health", healthH.CheckHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	p := r.PathPrefix("/api").Subrouter()
	p.Use(RequireAuth(d.Authenticator))

	p.HandleFunc("/logout", authH.Logout).Methods(http.MethodPost)
	p.HandleFunc("/devices", authH.ListDevices).Methods(http.MethodGet)
	p.HandleFunc("/devices", authH.LogoutAll).Methods(http.MethodDelete)
	p.HandleFunc("/devices/{deviceId}", authH.RemoveDevice).Methods(http.MethodDelete)

	p.HandleFunc("/questionnaire", customerH.Questionnaire).Methods(http.MethodGet)

	p.HandleFunc("/customers", customerH.List).Methods(http.MethodGet)
	p.HandleFunc("/customers", customerH.Create).Methods(http.MethodPost)
	p.HandleFunc("/customers/stats", customerH.Stats).Methods(http.MethodGet)
	p.HandleFunc("/customers/{customerId}", customerH.Get).Methods(http.MethodGet)
	p.HandleFunc("/customers/{customerId}", customerH.Delete).Methods(http.MethodDelete)
	p.HandleFunc("/customers/{customerId}/potential", customerH.SetPotential).Methods(http.MethodPut)
	p.HandleFunc("/customers/{customerId}/deposit", customerH.SetDeposit).Methods(http.MethodPut)
	p.HandleFunc("/customers/{customerId}/answers", customerH.Answers).Methods(http.MethodGet)
	p.HandleFunc("/customers/{customerId}/days/{day}", customerH.SetDay).Methods(http.MethodPut)
	p.HandleFunc("/customers/{customerId}/days/{day}/answers/{question}", customerH.SaveAnswer).Methods(http.MethodPut)
	p.HandleFunc("/customers/{customerId}/days/{day}/progress", customerH.DayProgress).Methods(http.MethodGet)
	p.HandleFunc("/customers/{customerId}/days/{day}/complete", customerH.CompleteDay).Methods(http.MethodPost)

	p.HandleFunc("/customers/{customerId}/summary", docH.GetSummary).Methods(http.MethodGet)
	p.HandleFunc("/customers/{customerId}/summary", docH.PutSummary).Methods(http.MethodPut)
	p.HandleFunc("/customers/{customerId}/summary", docH.DeleteSummary).Methods(http.MethodDelete)
	p.HandleFunc("/customers/{customerId}/notes", docH.ListNotes).Methods(http.MethodGet)
	p.HandleFunc("/customers/{customerId}/notes", docH.AddNote).Methods(http.MethodPost)
	p.HandleFunc("/customers/{customerId}/notes/{noteId}", docH.DeleteNote).Methods(http.MethodDelete)
	p.HandleFunc("/customers/{customerId}/profile", docH.GetProfile).Methods(http.MethodGet)
	p.HandleFunc("/customers/{customerId}/profile", docH.PutProfile).Methods(http.MethodPut)
	p.HandleFunc("/customers/{customerId}/profile", docH.DeleteProfile).Methods(http.MethodDelete)

	p.HandleFunc("/users", dirH.ListUsers).Methods(http.MethodGet)
	p.HandleFunc("/users", dirH.CreateUser).Methods(http.MethodPost)
	p.HandleFunc("/users/{userId}", dirH.UpdateUser).Methods(http.MethodPatch)
	p.HandleFunc("/users/{userId}", dirH.DeleteUser).Methods(http.MethodDelete)
	p.HandleFunc("/users/{userId}/group", dirH.SetGroup).Methods(http.MethodPut)
	p.HandleFunc("/groups", dirH.ListGroups).Methods(http.MethodGet)
	p.HandleFunc("/groups", dirH.CreateGroup).Methods(http.MethodPost)

	p.HandleFunc("/backup", backupH.Export).Methods(http.MethodGet)
	p.HandleFunc("/backup", backupH.Import).Methods(http.MethodPost)

	return r
}
