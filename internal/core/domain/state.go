package domain

import (
	"encoding/json"
	"fmt"
)

// ActionType names a user state transition.
type ActionType string

const (
	FetchInit    ActionType = "FETCH_INIT"
	FetchSuccess ActionType = "FETCH_SUCCESS"
	FetchFailure ActionType = "FETCH_FAILURE"
)

// Action is a request to change the user state. The set is closed: build
// actions with InitAction, SuccessAction and FailureAction only.
type Action struct {
	Type    ActionType `json:"type"`
	Payload *User      `json:"payload,omitempty"`
}

func InitAction() Action { return Action{Type: FetchInit} }

func SuccessAction(u *User) Action { return Action{Type: FetchSuccess, Payload: u} }

func FailureAction() Action { return Action{Type: FetchFailure} }

// Validate rejects actions outside the closed set and success actions
// without a user.
func (a Action) Validate() error {
	switch a.Type {
	case FetchInit, FetchFailure:
		return nil
	case FetchSuccess:
		if a.Payload == nil {
			return fmt.Errorf("%s requires a user payload", a.Type)
		}
		return nil
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
}

// UserState is the session-scoped global user state. Revision is bumped by
// the store on every dispatch; the reducer leaves it alone.
type UserState struct {
	User     *User  `json:"user"`
	Loading  bool   `json:"loading"`
	Failed   bool   `json:"failed"`
	Revision uint64 `json:"revision"`
}

// Authenticated reports whether a user is present.
func (s UserState) Authenticated() bool { return s.User != nil }

// Reduce applies a to s and returns the new state. It never mutates s.
func Reduce(s UserState, a Action) UserState {
	switch a.Type {
	case FetchInit:
		s.Loading = true
		s.Failed = false
	case FetchSuccess:
		s.Loading = false
		s.Failed = false
		if a.Payload != nil {
			u := *a.Payload
			s.User = &u
		}
	case FetchFailure:
		s.Loading = false
		s.Failed = true
	}
	return s
}

// MarshalState and UnmarshalState fix the stored encoding shared by the stores.
func MarshalState(s UserState) ([]byte, error) { return json.Marshal(s) }

func UnmarshalState(b []byte) (UserState, error) {
	var s UserState
	if len(b) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return UserState{}, fmt.Errorf("decode user state: %w", err)
	}
	return s, nil
}
