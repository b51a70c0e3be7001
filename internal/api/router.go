package api

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/deskhub/deskhub/internal/api/recovery"
	"github.com/deskhub/deskhub/internal/auth"
	"github.com/deskhub/deskhub/internal/config"
	"github.com/deskhub/deskhub/internal/provider"
	"github.com/deskhub/deskhub/internal/services"
	"github.com/deskhub/deskhub/internal/store"
	syncer "github.com/deskhub/deskhub/internal/sync"
	"github.com/deskhub/deskhub/internal/tokens"
)

// Deps carries everything the router needs; main owns construction of the
// store, cipher and token service.
type Deps struct {
	Config     *config.Config
	Store      store.Store
	Authorizer auth.Authorizer
	Tokens     *tokens.Service
	Clients    provider.ClientFactory
	Log        zerolog.Logger
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	mailSync := syncer.NewMailSyncer(d.Clients, d.Store.Emails(), d.Config.SyncMaxMessages, d.Log)
	calSync := syncer.NewCalendarSyncer(d.Clients, d.Store.Events(), d.Config.SyncMaxEvents, d.Log)

	userHandler := NewUserHandler(services.NewUserService(d.Store))
	gmailHandler := NewGmailHandler(mailSync, services.NewEmailService(d.Store, d.Clients))
	calendarHandler := NewCalendarHandler(calSync, services.NewEventService(d.Store, d.Clients))
	taskHandler := NewTaskHandler(services.NewTaskService(d.Store))
	noteHandler := NewNoteHandler(services.NewNoteService(d.Store))
	credentialHandler := NewCredentialHandler(d.Tokens)
	healthHandler := NewHealthHandler()

	// Unauthenticated: health probe and account provisioning (runs before a
	// session exists).
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/users", userHandler.CreateUser).Methods("POST")

	// Everything else requires a session token.
	authed := router.PathPrefix("/api").Subrouter()
	authed.Use(auth.Middleware(d.Authorizer))

	authed.HandleFunc("/users/{userId}", userHandler.GetUser).Methods("GET")
	authed.HandleFunc("/auth/google", credentialHandler.SaveGoogleCredential).Methods("POST")

	authed.HandleFunc("/gmail/sync", gmailHandler.SyncInbox).Methods("POST")
	authed.HandleFunc("/gmail/read", gmailHandler.SetReadState).Methods("PATCH")
	authed.HandleFunc("/emails", gmailHandler.ListEmails).Methods("GET")
	authed.HandleFunc("/emails/{emailId}", gmailHandler.GetEmail).Methods("GET")
	authed.HandleFunc("/emails/{emailId}", gmailHandler.UpdateEmail).Methods("PATCH")
	authed.HandleFunc("/emails/{emailId}", gmailHandler.DeleteEmail).Methods("DELETE")

	authed.HandleFunc("/calendar/sync", calendarHandler.SyncWindow).Methods("POST")
	authed.HandleFunc("/calendar/create", calendarHandler.CreateEvent).Methods("POST")
	authed.HandleFunc("/calendar/events", calendarHandler.ListEvents).Methods("GET")

	authed.HandleFunc("/tasks", taskHandler.CreateTask).Methods("POST")
	authed.HandleFunc("/tasks", taskHandler.ListTasks).Methods("GET")
	authed.HandleFunc("/tasks/{taskId}", taskHandler.GetTask).Methods("GET")
	authed.HandleFunc("/tasks/{taskId}", taskHandler.UpdateTask).Methods("PATCH")
	authed.HandleFunc("/tasks/{taskId}", taskHandler.DeleteTask).Methods("DELETE")

	authed.HandleFunc("/notes", noteHandler.CreateNote).Methods("POST")
	authed.HandleFunc("/notes", noteHandler.ListNotes).Methods("GET")
	authed.HandleFunc("/notes/{noteId}", noteHandler.GetNote).Methods("GET")
	authed.HandleFunc("/notes/{noteId}", noteHandler.UpdateNote).Methods("PATCH")
	authed.HandleFunc("/notes/{noteId}", noteHandler.DeleteNote).Methods("DELETE")

	return router
}
