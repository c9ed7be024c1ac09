package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vschac/CSDaily/internal/identity"
	"github.com/vschac/CSDaily/internal/session"
	"github.com/vschac/CSDaily/internal/sms"
)

// API exposes the UI-facing HTTP surface: session lifecycle, settings
// read/merge, phone verification, and the test-message endpoint.
type API struct {
	log      *zap.Logger
	sessions *session.Manager
	ids      identity.Provider
	sender   sms.Sender
}

// New wires the API. The identity provider and SMS sender are passed
// explicitly; there are no ambient clients.
func New(log *zap.Logger, sessions *session.Manager, ids identity.Provider, sender sms.Sender) *API {
	return &API{log: log, sessions: sessions, ids: ids, sender: sender}
}

// Router builds the route table.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(a.withRequestID, a.withAccessLog)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	r.HandleFunc("/api/session", a.handleSignIn).Methods("POST")
	r.HandleFunc("/api/session/{userId}", a.handleSignOut).Methods("DELETE")

	r.HandleFunc("/api/settings/{userId}", a.handleGetSettings).Methods("GET")
	r.HandleFunc("/api/settings/{userId}", a.handlePatchSettings).Methods("PATCH")

	r.HandleFunc("/api/phone/{userId}", a.handlePhoneState).Methods("GET")
	r.HandleFunc("/api/phone/{userId}", a.handlePhoneSubmit).Methods("POST")
	r.HandleFunc("/api/phone/{userId}/edit", a.handlePhoneEdit).Methods("POST")
	r.HandleFunc("/api/phone/{userId}/test", a.handlePhoneTest).Methods("POST")

	r.HandleFunc("/api/sendTestSMS", a.handleSendTestSMS).Methods("POST")

	// Non-POST on POST-only routes must answer 405 with a JSON body.
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
	})

	return r
}
