package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"movimenti/internal/core"
)

const testIdentity int64 = 42

type recordingAppender struct {
	mu       sync.Mutex
	appended []core.Movement
	err      error
}

func (a *recordingAppender) Append(_ context.Context, m core.Movement) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	a.appended = append(a.appended, m)
	return fmt.Sprintf("fake:%d", len(a.appended)), nil
}

func newTestEngine() (*Engine, *recordingAppender) {
	app := &recordingAppender{}
	e := New(app, StaticGate{Allowed: testIdentity})
	e.now = func() time.Time { return time.Date(2030, 1, 15, 12, 0, 0, 0, time.UTC) }
	return e, app
}

func feed(e *Engine, inputs ...string) []Reply {
	ctx := context.Background()
	var last []Reply
	for _, in := range inputs {
		last = e.HandleText(ctx, testIdentity, in)
	}
	return last
}

// inputsTo returns the canonical input sequence that, after Begin, lands
// the session on the given step.
func inputsTo(step Step) []string {
	all := []struct {
		step Step
		in   string
	}{
		{StepTypingAmount, "si"},
		{StepTypingDate, "12,5"},
		{StepTypingDescription, "oggi"},
		{StepChoosingCategory, "Coffee"},
		{StepChoosingClass, "5"},
		{StepConfirmation, "l"},
		{StepRestartOrEnd, "si"},
	}
	var seq []string
	if step == StepChoosing {
		return seq
	}
	for _, s := range all {
		seq = append(seq, s.in)
		if s.step == step {
			return seq
		}
	}
	return seq
}

func TestBeginPrompts(t *testing.T) {
	e, _ := newTestEngine()
	replies := e.Begin(context.Background(), testIdentity)
	if len(replies) != 1 || replies[0].Text != msgChoosing {
		t.Fatalf("unexpected begin replies: %+v", replies)
	}
	if got := e.store.Get(testIdentity).Current; got != StepChoosing {
		t.Fatalf("expected StepChoosing, got %v", got)
	}
}

func TestBeginResetsExistingSession(t *testing.T) {
	e, _ := newTestEngine()
	e.Begin(context.Background(), testIdentity)
	feed(e, inputsTo(StepTypingDate)...)

	e.Begin(context.Background(), testIdentity)
	s := e.store.Get(testIdentity)
	if s.Current != StepChoosing || s.Draft != (Draft{}) || s.Saved != StepNone {
		t.Fatalf("begin should reset the session, got %+v", s)
	}
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		name  string
		start Step
		input string
		want  Step
	}{
		{"choosing yes", StepChoosing, "si", StepTypingAmount},
		{"choosing yes english", StepChoosing, "YES", StepTypingAmount},
		{"amount valid", StepTypingAmount, "100.00", StepTypingDate},
		{"amount comma", StepTypingAmount, "12,5", StepTypingDate},
		{"amount negative", StepTypingAmount, "-67.89", StepTypingDate},
		{"date keyword", StepTypingDate, "oggi", StepTypingDescription},
		{"date keyword english", StepTypingDate, "today", StepTypingDescription},
		{"date explicit", StepTypingDate, "01/01/2030", StepTypingDescription},
		{"description", StepTypingDescription, "Spesa settimanale", StepChoosingCategory},
		{"category index", StepChoosingCategory, "5", StepChoosingClass},
		{"class lower", StepChoosingClass, "l", StepConfirmation},
		{"confirmation no", StepConfirmation, "no", StepChoosing},
		{"confirmation yes", StepConfirmation, "si", StepRestartOrEnd},
		{"restart yes", StepRestartOrEnd, "si", StepTypingAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newTestEngine()
			e.Begin(context.Background(), testIdentity)
			feed(e, inputsTo(tc.start)...)
			feed(e, tc.input)
			s := e.store.Get(testIdentity)
			if s == nil || s.Current != tc.want {
				t.Fatalf("expected %v, got %+v", tc.want, s)
			}
		})
	}
}

func TestInvalidInputNeverAdvances(t *testing.T) {
	cases := []struct {
		step  Step
		input string
	}{
		{StepChoosing, "boh"},
		{StepTypingAmount, "abc"},
		{StepTypingAmount, "1.2.3"},
		{StepTypingDate, "2030-01-01"},
		{StepTypingDate, "ieri"},
		{StepTypingDescription, "   "},
		{StepChoosingCategory, "0"},
		{StepChoosingCategory, "30"},
		{StepChoosingCategory, "cinque"},
		{StepChoosingClass, "X"},
		{StepConfirmation, "forse"},
		{StepRestartOrEnd, "forse"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%v_%s", tc.step, tc.input), func(t *testing.T) {
			e, _ := newTestEngine()
			e.Begin(context.Background(), testIdentity)
			feed(e, inputsTo(tc.step)...)
			before := *e.store.Get(testIdentity)

			replies := feed(e, tc.input)
			after := e.store.Get(testIdentity)
			if after.Current != before.Current {
				t.Fatalf("step changed %v -> %v", before.Current, after.Current)
			}
			if after.Draft != before.Draft {
				t.Fatalf("draft changed on invalid input: %+v -> %+v", before.Draft, after.Draft)
			}
			if len(replies) == 0 || replies[0].Text == "" {
				t.Fatal("expected a corrective re-prompt")
			}
		})
	}
}

func TestCancelRoundTripFromEveryStep(t *testing.T) {
	steps := []Step{
		StepChoosing, StepTypingAmount, StepTypingDate, StepTypingDescription,
		StepChoosingCategory, StepChoosingClass, StepConfirmation, StepRestartOrEnd,
	}
	for _, step := range steps {
		t.Run(step.String(), func(t *testing.T) {
			e, _ := newTestEngine()
			e.Begin(context.Background(), testIdentity)
			feed(e, inputsTo(step)...)
			before := *e.store.Get(testIdentity)

			feed(e, "annulla")
			s := e.store.Get(testIdentity)
			if s.Current != StepCancelConfirm || s.Saved != step {
				t.Fatalf("expected cancel overlay saving %v, got current=%v saved=%v", step, s.Current, s.Saved)
			}

			feed(e, "no")
			s = e.store.Get(testIdentity)
			if s.Current != step {
				t.Fatalf("declining cancel should resume %v, got %v", step, s.Current)
			}
			if s.Saved != StepNone {
				t.Fatalf("saved step should be cleared, got %v", s.Saved)
			}
			if s.Draft != before.Draft {
				t.Fatalf("draft must survive a declined cancel: %+v -> %+v", before.Draft, s.Draft)
			}
		})
	}
}

func TestCancelConfirmDiscards(t *testing.T) {
	e, _ := newTestEngine()
	e.Begin(context.Background(), testIdentity)
	feed(e, inputsTo(StepTypingDate)...)

	feed(e, "annulla")
	feed(e, "si")
	s := e.store.Get(testIdentity)
	if s.Current != StepChoosing || s.Draft != (Draft{}) || s.Saved != StepNone {
		t.Fatalf("confirmed cancel should clear draft and return to choosing, got %+v", s)
	}
}

func TestCancelConfirmInvalidAnswer(t *testing.T) {
	e, _ := newTestEngine()
	e.Begin(context.Background(), testIdentity)
	feed(e, inputsTo(StepTypingAmount)...)
	feed(e, "annulla")

	// Inside the sub-flow the cancel keyword is just an invalid answer:
	// the saved step must not be overwritten.
	replies := feed(e, "annulla")
	s := e.store.Get(testIdentity)
	if s.Current != StepCancelConfirm || s.Saved != StepTypingAmount {
		t.Fatalf("cancel keyword inside sub-flow must not re-enter it, got %+v", s)
	}
	if replies[0].Text != msgCancelErr {
		t.Fatalf("expected yes/no re-prompt, got %q", replies[0].Text)
	}
}

func TestRequestCancelTrigger(t *testing.T) {
	e, _ := newTestEngine()
	e.Begin(context.Background(), testIdentity)
	feed(e, inputsTo(StepTypingDescription)...)

	e.RequestCancel(context.Background(), testIdentity)
	s := e.store.Get(testIdentity)
	if s.Current != StepCancelConfirm || s.Saved != StepTypingDescription {
		t.Fatalf("unexpected state after cancel trigger: %+v", s)
	}

	// Re-triggering while already in the sub-flow keeps the saved step.
	e.RequestCancel(context.Background(), testIdentity)
	if s := e.store.Get(testIdentity); s.Saved != StepTypingDescription {
		t.Fatalf("saved step overwritten: %v", s.Saved)
	}
}

func TestEndToEndEntry(t *testing.T) {
	e, app := newTestEngine()
	ctx := context.Background()

	e.Begin(ctx, testIdentity)
	feed(e, "si", "100.00", "oggi", "Coffee", "5")
	replies := feed(e, "L")

	// The draft summary lists all five fields.
	summary := replies[0].Text
	for _, want := range []string{"100", "15/01/2030", "Coffee", "Bar", "Classe: L"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}

	replies = feed(e, "si")
	if len(app.appended) != 1 {
		t.Fatalf("expected exactly one append, got %d", len(app.appended))
	}
	m := app.appended[0]
	if m.Amount.String() != "100" || m.Date != "15/01/2030" || m.Description != "Coffee" ||
		m.Category != "Bar" || m.Class != core.ClassL {
		t.Fatalf("unexpected committed movement: %+v", m)
	}
	if replies[0].Text != msgCommitOK || replies[1].Text != msgRestart {
		t.Fatalf("unexpected commit replies: %+v", replies)
	}

	s := e.store.Get(testIdentity)
	if s.Current != StepRestartOrEnd || s.Draft != (Draft{}) {
		t.Fatalf("draft must be cleared after commit, got %+v", s)
	}

	// Loop back into a second entry, then end.
	feed(e, "si")
	if got := e.store.Get(testIdentity).Current; got != StepTypingAmount {
		t.Fatalf("restart should open a new draft at the amount step, got %v", got)
	}
	feed(e, "annulla", "si") // abandon the second entry
	replies = feed(e, "no")
	if replies[0].Text != msgEndStart {
		t.Fatalf("unexpected farewell: %+v", replies)
	}
	if e.store.Get(testIdentity) != nil {
		t.Fatal("session should be cleared on end")
	}
}

func TestEndToEndCancellation(t *testing.T) {
	e, app := newTestEngine()
	e.Begin(context.Background(), testIdentity)
	feed(e, "si", "42.00")

	feed(e, "cancel")
	s := e.store.Get(testIdentity)
	if s.Current != StepCancelConfirm || s.Saved != StepTypingDate {
		t.Fatalf("unexpected cancel state: %+v", s)
	}

	feed(e, "no")
	s = e.store.Get(testIdentity)
	if s.Current != StepTypingDate || !s.Draft.AmountSet || s.Draft.Amount.String() != "42" {
		t.Fatalf("declined cancel should keep the amount draft, got %+v", s)
	}

	feed(e, "cancel", "yes")
	s = e.store.Get(testIdentity)
	if s.Current != StepChoosing || s.Draft != (Draft{}) {
		t.Fatalf("confirmed cancel should discard the draft, got %+v", s)
	}
	if len(app.appended) != 0 {
		t.Fatal("nothing should have been appended")
	}
}

func TestConfirmationNoDiscardsDraft(t *testing.T) {
	e, app := newTestEngine()
	e.Begin(context.Background(), testIdentity)
	feed(e, inputsTo(StepConfirmation)...)

	replies := feed(e, "no")
	s := e.store.Get(testIdentity)
	if s.Current != StepChoosing || s.Draft != (Draft{}) {
		t.Fatalf("declined confirmation should discard and re-ask, got %+v", s)
	}
	if len(app.appended) != 0 {
		t.Fatal("declined confirmation must not append")
	}
	if replies[0].Text != msgDiscarded || replies[1].Text != msgChoosing {
		t.Fatalf("unexpected replies: %+v", replies)
	}
}

func TestAppendFailureStillAdvances(t *testing.T) {
	e, app := newTestEngine()
	app.err = errors.New("sheet unavailable")

	e.Begin(context.Background(), testIdentity)
	feed(e, inputsTo(StepConfirmation)...)
	replies := feed(e, "si")

	if replies[0].Text != msgCommitFailed {
		t.Fatalf("expected one-line failure notice, got %+v", replies)
	}
	if replies[1].Text != msgRestart {
		t.Fatal("flow must proceed to the restart prompt after a failed append")
	}
	s := e.store.Get(testIdentity)
	if s.Current != StepRestartOrEnd || s.Draft != (Draft{}) {
		t.Fatalf("draft must be cleared even on failure, got %+v", s)
	}
}

func TestUnauthorizedIdentity(t *testing.T) {
	e, app := newTestEngine()
	const intruder int64 = 999

	replies := e.Begin(context.Background(), intruder)
	if len(replies) != 1 || replies[0].Text != msgDenied {
		t.Fatalf("expected denial, got %+v", replies)
	}
	if e.store.Get(intruder) != nil {
		t.Fatal("unauthorized begin must not create a session")
	}

	replies = e.HandleText(context.Background(), intruder, "si")
	if len(replies) != 1 || replies[0].Text != msgDenied {
		t.Fatalf("expected denial on text, got %+v", replies)
	}
	if len(app.appended) != 0 {
		t.Fatal("unauthorized identity must never reach the ledger")
	}
}

func TestUnauthorizedMidFlowForcesTerminal(t *testing.T) {
	gate := &togglingGate{allowed: true}
	app := &recordingAppender{}
	e := New(app, gate)
	e.now = time.Now

	e.Begin(context.Background(), testIdentity)
	feed(e, inputsTo(StepTypingDate)...)

	gate.allowed = false
	replies := feed(e, "oggi")
	if replies[0].Text != msgDenied {
		t.Fatalf("expected denial, got %+v", replies)
	}
	if e.store.Get(testIdentity) != nil {
		t.Fatal("revoked identity must be forced to terminal state")
	}
}

type togglingGate struct{ allowed bool }

func (g *togglingGate) IsAuthorized(int64) bool { return g.allowed }

func TestTextWithoutSessionIsIgnored(t *testing.T) {
	e, _ := newTestEngine()
	if replies := e.HandleText(context.Background(), testIdentity, "ciao"); replies != nil {
		t.Fatalf("expected no reply outside a conversation, got %+v", replies)
	}
	if replies := e.RequestCancel(context.Background(), testIdentity); replies != nil {
		t.Fatalf("expected no reply for cancel outside a conversation, got %+v", replies)
	}
}

func TestDescriptionStoredVerbatim(t *testing.T) {
	e, _ := newTestEngine()
	e.Begin(context.Background(), testIdentity)
	const desc = "  Pizza & birra (con Luca)  "
	feed(e, "si", "10", "oggi", desc)
	if got := e.store.Get(testIdentity).Draft.Description; got != desc {
		t.Fatalf("description must be stored verbatim: %q", got)
	}
}
