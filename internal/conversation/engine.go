// Package conversation implements the guided movement-entry state
// machine: per-identity sessions, step validation and normalization, the
// cancel/resume sub-flow and the final commit to the ledger port.
package conversation

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"movimenti/internal/core"
	"movimenti/internal/ledger"
)

// Gate authorizes an identity before any state transition. It wraps every
// engine entry point, not just Begin.
type Gate interface {
	IsAuthorized(identity int64) bool
}

// StaticGate allows exactly one statically configured identity.
type StaticGate struct {
	Allowed int64
}

func (g StaticGate) IsAuthorized(identity int64) bool {
	return identity == g.Allowed
}

// Engine owns the conversation state machine. All transitions for one
// identity are serialized by the session store's per-identity lock.
type Engine struct {
	ledger ledger.Appender
	gate   Gate
	store  *Store
	now    func() time.Time
}

func New(appender ledger.Appender, gate Gate) *Engine {
	return &Engine{
		ledger: appender,
		gate:   gate,
		store:  NewStore(),
		now:    time.Now,
	}
}

type entryFunc func(ctx context.Context, identity int64, text string) []Reply

// guarded composes the per-identity lock and the authorization gate
// around a transition handler. Denied identities get a fixed refusal and
// their session is dropped regardless of current step.
func (e *Engine) guarded(h entryFunc) entryFunc {
	return func(ctx context.Context, identity int64, text string) []Reply {
		release := e.store.Acquire(identity)
		defer release()
		if !e.gate.IsAuthorized(identity) {
			e.store.Clear(identity)
			slog.WarnContext(ctx, "unauthorized identity rejected", "identity", identity)
			return []Reply{{Text: msgDenied}}
		}
		return h(ctx, identity, text)
	}
}

// Begin handles the explicit begin trigger (/start): it unconditionally
// resets any existing session and asks whether to start a new entry.
func (e *Engine) Begin(ctx context.Context, identity int64) []Reply {
	return e.guarded(e.begin)(ctx, identity, "")
}

// RequestCancel handles the explicit force-cancel trigger (/cancel).
func (e *Engine) RequestCancel(ctx context.Context, identity int64) []Reply {
	return e.guarded(e.requestCancel)(ctx, identity, "")
}

// HandleText processes one freeform text message from the identity.
// Messages outside an active conversation are ignored.
func (e *Engine) HandleText(ctx context.Context, identity int64, text string) []Reply {
	return e.guarded(e.handleText)(ctx, identity, text)
}

func (e *Engine) begin(ctx context.Context, identity int64, _ string) []Reply {
	e.store.Reset(identity)
	slog.InfoContext(ctx, "conversation started", "identity", identity)
	return []Reply{{Text: msgChoosing, Choices: choicesYesNoCancel}}
}

func (e *Engine) requestCancel(ctx context.Context, identity int64, _ string) []Reply {
	s := e.store.Get(identity)
	if s == nil {
		return nil
	}
	return e.enterCancel(ctx, s)
}

func (e *Engine) handleText(ctx context.Context, identity int64, text string) []Reply {
	s := e.store.Get(identity)
	if s == nil {
		return nil
	}

	slog.InfoContext(ctx, "handling input", "identity", identity, "step", s.Current.String())

	// The cancel keyword transitions into the sub-flow from every step;
	// inside it, it is just an invalid yes/no answer.
	if s.Current != StepCancelConfirm && isCancel(text) {
		return e.enterCancel(ctx, s)
	}

	switch s.Current {
	case StepChoosing:
		return e.onChoosing(ctx, s, text)
	case StepTypingAmount:
		return e.onAmount(ctx, s, text)
	case StepTypingDate:
		return e.onDate(ctx, s, text)
	case StepTypingDescription:
		return e.onDescription(ctx, s, text)
	case StepChoosingCategory:
		return e.onCategory(ctx, s, text)
	case StepChoosingClass:
		return e.onClass(ctx, s, text)
	case StepConfirmation:
		return e.onConfirmation(ctx, s, text)
	case StepRestartOrEnd:
		return e.onRestartOrEnd(ctx, s, text)
	case StepCancelConfirm:
		return e.onCancelConfirm(ctx, s, text)
	}
	return nil
}

func (e *Engine) onChoosing(ctx context.Context, s *Session, text string) []Reply {
	switch {
	case isYes(text):
		s.Draft = Draft{}
		s.Current = StepTypingAmount
		return []Reply{{Text: msgAmount, Choices: choicesCancel}}
	case isNo(text):
		e.store.Clear(s.Identity)
		slog.InfoContext(ctx, "conversation ended", "identity", s.Identity)
		return []Reply{{Text: msgEndStart}}
	default:
		return []Reply{{Text: msgChoosingErr, Choices: choicesYesNoCancel}}
	}
}

func (e *Engine) onAmount(_ context.Context, s *Session, text string) []Reply {
	amount, err := core.ParseAmount(text)
	if err != nil {
		return []Reply{{Text: msgAmountErr, Choices: choicesCancel}}
	}
	s.Draft.Amount = amount
	s.Draft.AmountSet = true
	s.Current = StepTypingDate
	return []Reply{{Text: msgDate, Choices: choicesCancel}}
}

func (e *Engine) onDate(_ context.Context, s *Session, text string) []Reply {
	date, err := core.ParseEntryDate(text, e.now)
	if err != nil {
		return []Reply{{Text: msgDateErr, Choices: choicesCancel}}
	}
	s.Draft.Date = date
	s.Current = StepTypingDescription
	return []Reply{{Text: msgDescription, Choices: choicesCancel}}
}

func (e *Engine) onDescription(_ context.Context, s *Session, text string) []Reply {
	if strings.TrimSpace(text) == "" {
		return []Reply{{Text: msgDescription, Choices: choicesCancel}}
	}
	s.Draft.Description = text
	s.Current = StepChoosingCategory
	return []Reply{{Text: categoryPrompt(), Choices: choicesCancel}}
}

func (e *Engine) onCategory(_ context.Context, s *Session, text string) []Reply {
	idx, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return []Reply{{Text: categoryRangeErr(), Choices: choicesCancel}}
	}
	category, err := core.CategoryByIndex(idx)
	if err != nil {
		return []Reply{{Text: categoryRangeErr(), Choices: choicesCancel}}
	}
	s.Draft.Category = category
	s.Current = StepChoosingClass
	return []Reply{{Text: msgClass, Choices: choicesClass}}
}

func (e *Engine) onClass(_ context.Context, s *Session, text string) []Reply {
	class, err := core.ParseClass(text)
	if err != nil {
		return []Reply{{Text: msgClassErr, Choices: choicesClass}}
	}
	s.Draft.Class = class
	s.Current = StepConfirmation
	return []Reply{{Text: summaryPrompt(s.Draft), Choices: choicesYesNoCancel}}
}

func (e *Engine) onConfirmation(ctx context.Context, s *Session, text string) []Reply {
	switch {
	case isYes(text):
		return e.commit(ctx, s)
	case isNo(text):
		s.Draft = Draft{}
		s.Current = StepChoosing
		return []Reply{
			{Text: msgDiscarded},
			{Text: msgChoosing, Choices: choicesYesNoCancel},
		}
	default:
		return []Reply{{Text: msgChoosingErr, Choices: choicesYesNoCancel}}
	}
}

// commit hands the frozen draft to the ledger. An append failure is
// reported once and otherwise treated like success: the draft is cleared
// and the flow moves on without retrying.
func (e *Engine) commit(ctx context.Context, s *Session) []Reply {
	m := s.Draft.Movement()

	var first Reply
	ref, err := e.ledger.Append(ctx, m)
	if err != nil {
		slog.ErrorContext(ctx, "ledger append failed",
			"identity", s.Identity, "category", m.Category, "error", err)
		first = Reply{Text: msgCommitFailed}
	} else {
		slog.InfoContext(ctx, "movement committed",
			"identity", s.Identity, "category", m.Category, "class", string(m.Class), "row_ref", ref)
		first = Reply{Text: msgCommitOK}
	}

	s.Draft = Draft{}
	s.Current = StepRestartOrEnd
	return []Reply{first, {Text: msgRestart, Choices: choicesYesNoCancel}}
}

func (e *Engine) onRestartOrEnd(ctx context.Context, s *Session, text string) []Reply {
	switch {
	case isYes(text):
		s.Draft = Draft{}
		s.Current = StepTypingAmount
		return []Reply{{Text: msgAmount, Choices: choicesCancel}}
	case isNo(text):
		e.store.Clear(s.Identity)
		slog.InfoContext(ctx, "conversation ended", "identity", s.Identity)
		return []Reply{{Text: msgEndThanks}}
	default:
		return []Reply{{Text: msgChoosingErr, Choices: choicesYesNoCancel}}
	}
}

// enterCancel records the step the session was in before the cancel
// request, so declining resumes exactly there with the draft untouched.
func (e *Engine) enterCancel(ctx context.Context, s *Session) []Reply {
	if s.Current != StepCancelConfirm {
		s.Saved = s.Current
		s.Current = StepCancelConfirm
	}
	slog.InfoContext(ctx, "cancel requested", "identity", s.Identity, "step", s.Saved.String())
	return []Reply{{Text: msgCancelAsk, Choices: choicesYesNo}}
}

func (e *Engine) onCancelConfirm(_ context.Context, s *Session, text string) []Reply {
	switch {
	case isYes(text):
		s.Draft = Draft{}
		s.Saved = StepNone
		s.Current = StepChoosing
		return []Reply{{Text: msgCancelAbort, Choices: choicesYesNoCancel}}
	case isNo(text):
		restored := s.Saved
		if restored == StepNone {
			restored = StepChoosing
		}
		s.Saved = StepNone
		s.Current = restored
		return []Reply{{Text: msgResume, Choices: stepPrompt(restored, s.Draft).Choices}}
	default:
		return []Reply{{Text: msgCancelErr, Choices: choicesYesNo}}
	}
}

// Keyword matching is case-insensitive and bilingual: the quick-reply
// buttons say SI/NO/Annulla, but the English forms are accepted too.
func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "si", "sì", "yes":
		return true
	}
	return false
}

func isNo(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "no")
}

func isCancel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "annulla", "cancel":
		return true
	}
	return false
}
