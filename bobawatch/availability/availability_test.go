package availability

import (
	"errors"
	"testing"
)

func TestDecide_TransitionTable(t *testing.T) {
	tpl := DefaultTemplates()
	cases := []struct {
		name        string
		prior       bool
		kind        Kind
		wantSubject string
		wantNext    bool
		wantPersist bool
	}{
		{"recovered", true, Available, "Boba Available Again!", false, true},
		{"steady available", false, Available, "", false, true},
		{"went away", false, Unavailable, "Boba Unavailable Alert", true, true},
		{"steady unavailable", true, Unavailable, "", true, true},
		{"not found keeps true", true, ElementNotFound, "", true, false},
		{"not found keeps false", false, ElementNotFound, "", false, false},
		{"unreachable keeps true", true, PageUnreachable, "", true, false},
		{"unreachable keeps false", false, PageUnreachable, "", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(State{WasUnavailable: tc.prior}, Result{Kind: tc.kind}, tpl)
			gotSubject := ""
			if d.Notify != nil {
				gotSubject = d.Notify.Subject
			}
			if gotSubject != tc.wantSubject {
				t.Errorf("subject = %q, want %q", gotSubject, tc.wantSubject)
			}
			if d.Next.WasUnavailable != tc.wantNext {
				t.Errorf("next = %v, want %v", d.Next.WasUnavailable, tc.wantNext)
			}
			if d.Persist != tc.wantPersist {
				t.Errorf("persist = %v, want %v", d.Persist, tc.wantPersist)
			}
		})
	}
}

func TestDecide_IgnoresReasonAndErr(t *testing.T) {
	tpl := DefaultTemplates()
	plain := Decide(State{}, Result{Kind: PageUnreachable}, tpl)
	noisy := Decide(State{}, Unreachable("navigate", errors.New("boom")), tpl)
	if plain.Persist != noisy.Persist || plain.Next != noisy.Next || (plain.Notify == nil) != (noisy.Notify == nil) {
		t.Fatalf("decision depends on reason/err: %+v vs %+v", plain, noisy)
	}
}

func TestDecide_EdgeTriggered(t *testing.T) {
	tpl := DefaultTemplates()
	seq := []Kind{Unavailable, Unavailable, Unavailable, ElementNotFound, Available, Available, PageUnreachable, Available}
	st := State{}
	emails := 0
	for _, k := range seq {
		d := Decide(st, Result{Kind: k}, tpl)
		if d.Notify != nil {
			emails++
		}
		if d.Persist {
			st = d.Next
		}
	}
	// One for going unavailable, one for coming back.
	if emails != 2 {
		t.Fatalf("emails = %d, want 2", emails)
	}
	if st.WasUnavailable {
		t.Fatal("final state should be available")
	}
}

func TestFromToggle(t *testing.T) {
	if !FromToggle(false, "") {
		t.Error("plain toggle should be available")
	}
	if !FromToggle(false, "false") {
		t.Error("aria-disabled=false should be available")
	}
	if FromToggle(true, "") {
		t.Error("disabled attribute should be unavailable")
	}
	if FromToggle(false, "true") {
		t.Error("aria-disabled=true should be unavailable")
	}
}

func TestKindString(t *testing.T) {
	if got := ElementNotFound.String(); got != "element_not_found" {
		t.Errorf("String() = %q", got)
	}
	if Available.Definitive() == false || PageUnreachable.Definitive() {
		t.Error("Definitive mismatch")
	}
}
