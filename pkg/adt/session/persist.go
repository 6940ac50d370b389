package session

import (
	"encoding/json"
	"os"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
)

// persistedState is the on-disk session schema. It carries everything a
// later process needs to resume a stateful edit session: the CSRF token,
// the mode flag, the server context id and the cookie jar.
type persistedState struct {
	CsrfToken string            `json:"csrf_token"`
	Stateful  bool              `json:"stateful"`
	ContextID string            `json:"context_id"`
	Cookies   map[string]string `json:"cookies"`
}

// Save writes the session state to path with owner-only permissions, so a
// follow-up CLI invocation can complete a lock/unlock dance started here.
func (s *HTTPSession) Save(path string) error {
	state := persistedState{
		CsrfToken: s.csrfToken,
		Stateful:  s.stateful,
		ContextID: s.contextID,
		Cookies:   s.cookies,
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return aerr.Wrap(aerr.KindInternal, "SaveSession", "encoding session state", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return aerr.Wrap(aerr.KindInternal, "SaveSession", "writing session file", err)
	}
	return nil
}

// Load restores the session state from path.
func (s *HTTPSession) Load(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - path is provided by the user via CLI flag
	if err != nil {
		return aerr.Wrap(aerr.KindInternal, "LoadSession", "reading session file", err)
	}
	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return aerr.Wrap(aerr.KindInternal, "LoadSession", "decoding session state", err)
	}
	s.csrfToken = state.CsrfToken
	s.stateful = state.Stateful
	s.contextID = state.ContextID
	if state.Cookies != nil {
		s.cookies = state.Cookies
	} else {
		s.cookies = map[string]string{}
	}
	return nil
}
