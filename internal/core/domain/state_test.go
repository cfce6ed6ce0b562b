package domain

import (
	"testing"
)

func TestReduce_FetchInit(t *testing.T) {
	prev := UserState{Failed: true}

	got := Reduce(prev, InitAction())

	if !got.Loading {
		t.Error("expected Loading=true after FETCH_INIT")
	}
	if got.Failed {
		t.Error("expected Failed=false after FETCH_INIT")
	}
	if !prev.Failed {
		t.Error("Reduce must not mutate the previous state")
	}
}

func TestReduce_FetchSuccess(t *testing.T) {
	u := &User{ID: "1", Email: "user@example.com"}

	got := Reduce(UserState{Loading: true}, SuccessAction(u))

	if got.Loading || got.Failed {
		t.Errorf("expected idle state, got %+v", got)
	}
	if got.User == nil || got.User.ID != "1" || got.User.Email != "user@example.com" {
		t.Fatalf("unexpected user: %+v", got.User)
	}
	if got.User == u {
		t.Error("state must hold its own copy of the payload")
	}
}

func TestReduce_FetchFailureKeepsUser(t *testing.T) {
	u := &User{ID: "1"}

	got := Reduce(UserState{User: u, Loading: true}, FailureAction())

	if got.Loading {
		t.Error("expected Loading=false after FETCH_FAILURE")
	}
	if !got.Failed {
		t.Error("expected Failed=true after FETCH_FAILURE")
	}
	if got.User != u {
		t.Error("FETCH_FAILURE must leave the user untouched")
	}
}

func TestReduce_Lifecycle(t *testing.T) {
	s := UserState{}
	s = Reduce(s, InitAction())
	s = Reduce(s, FailureAction())
	s = Reduce(s, InitAction())
	s = Reduce(s, SuccessAction(&User{ID: "42"}))

	if !s.Authenticated() || s.User.ID != "42" {
		t.Fatalf("expected authenticated state, got %+v", s)
	}
	if s.Loading || s.Failed {
		t.Fatalf("expected idle state, got %+v", s)
	}
}

func TestAction_Validate(t *testing.T) {
	cases := []struct {
		name    string
		action  Action
		wantErr bool
	}{
		{"init", InitAction(), false},
		{"failure", FailureAction(), false},
		{"success", SuccessAction(&User{ID: "1"}), false},
		{"success without user", Action{Type: FetchSuccess}, true},
		{"unknown", Action{Type: "FETCH_RETRY"}, true},
	}

	for _, tc := range cases {
		err := tc.action.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: wantErr=%v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestStateEncoding(t *testing.T) {
	in := UserState{User: &User{ID: "1", Email: "user@example.com"}, Failed: true}

	b, err := MarshalState(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := UnmarshalState(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.User == nil || out.User.Email != "user@example.com" || !out.Failed {
		t.Fatalf("unexpected decoded state: %+v", out)
	}

	empty, err := UnmarshalState(nil)
	if err != nil || empty.User != nil {
		t.Fatalf("expected zero state for empty input, got %+v, %v", empty, err)
	}
}
