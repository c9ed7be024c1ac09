package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vschac/CSDaily/internal/domain"
	"github.com/vschac/CSDaily/internal/session"
	"github.com/vschac/CSDaily/internal/sms"
	"github.com/vschac/CSDaily/internal/verify"
)

type settingsView struct {
	UserID           string          `json:"userId"`
	IsServiceEnabled bool            `json:"isServiceEnabled"`
	PreferredTime    string          `json:"preferredTime"`
	SelectedTopics   map[string]bool `json:"selectedTopics"`
	PhoneNumber      *string         `json:"phoneNumber,omitempty"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	LastSaved        time.Time       `json:"lastSaved"`
	SaveError        string          `json:"saveError,omitempty"`
}

func viewSettings(s domain.UserSettings, saveErr string) settingsView {
	return settingsView{
		UserID:           s.UID,
		IsServiceEnabled: s.ServiceEnabled,
		PreferredTime:    s.PreferredTime,
		SelectedTopics:   s.SelectedTopics,
		PhoneNumber:      s.PhoneNumber,
		UpdatedAt:        s.UpdatedAt,
		LastSaved:        s.LastSaved,
		SaveError:        saveErr,
	}
}

type phoneView struct {
	Phase       string `json:"phase"`
	Draft       string `json:"draft,omitempty"`
	Error       string `json:"error,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

func viewPhone(st verify.State) phoneView {
	return phoneView{
		Phase:       st.Phase.String(),
		Draft:       st.Draft,
		Error:       st.Err,
		PhoneNumber: st.Number,
	}
}

func (a *API) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	uid := mux.Vars(r)["userId"]
	s, err := a.sessions.Get(uid)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Not signed in", "")
		return nil, false
	}
	return s, true
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", "")
		return
	}

	s, err := a.sessions.SignIn(r.Context(), body.UserID)
	if err != nil {
		a.log.Error("sign-in failed", zap.String("uid", body.UserID), zap.Error(err))
		writeError(w, statusFor(err), "Sign-in failed", "")
		return
	}
	writeJSON(w, http.StatusOK, viewSettings(s.Settings(), ""))
}

func (a *API) handleSignOut(w http.ResponseWriter, r *http.Request) {
	a.sessions.SignOut(mux.Vars(r)["userId"])
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	// SaveError is delivered once and dismissed by the read.
	writeJSON(w, http.StatusOK, viewSettings(s.Settings(), s.SaveError()))
}

func (a *API) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}

	var body struct {
		IsServiceEnabled *bool           `json:"isServiceEnabled"`
		PreferredTime    *string         `json:"preferredTime"`
		SelectedTopics   map[string]bool `json:"selectedTopics"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	err := s.Apply(session.Change{
		ServiceEnabled: body.IsServiceEnabled,
		PreferredTime:  body.PreferredTime,
		SelectedTopics: body.SelectedTopics,
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error(), "")
		return
	}
	// The write is committed after the debounce window elapses.
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
}

func (a *API) handlePhoneState(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewPhone(s.VerificationState()))
}

func (a *API) handlePhoneSubmit(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}

	var body struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	st := s.SubmitPhone(r.Context(), body.PhoneNumber)
	if st.Phase == verify.Verified {
		writeJSON(w, http.StatusOK, viewPhone(st))
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, viewPhone(st))
}

func (a *API) handlePhoneEdit(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}

	var body struct {
		Draft string `json:"draft"`
	}
	// An empty or absent body starts editing with a blank draft.
	_ = json.NewDecoder(r.Body).Decode(&body)

	writeJSON(w, http.StatusOK, viewPhone(s.EditPhone(body.Draft)))
}

func (a *API) handlePhoneTest(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}

	if err := s.SendTest(r.Context()); err != nil {
		a.log.Error("test send failed", zap.String("uid", s.UID), zap.Error(err))
		writeError(w, statusFor(err), "Failed to send test message", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleSendTestSMS is the standalone send endpoint: the identity is looked
// up server-side, never trusted from the client, and any failure collapses
// to a 500 with a fixed error body.
func (a *API) handleSendTestSMS(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PhoneNumber string `json:"phoneNumber"`
		UserID      string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.log.Error("sendTestSMS: bad request body", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to send test message"})
		return
	}

	if _, err := a.ids.Lookup(r.Context(), body.UserID); err != nil {
		a.log.Error("sendTestSMS: identity lookup failed",
			zap.String("uid", body.UserID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to send test message"})
		return
	}

	if err := a.sender.Send(r.Context(), body.PhoneNumber, sms.TestMessageBody); err != nil {
		a.log.Error("sendTestSMS: send failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to send test message"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
