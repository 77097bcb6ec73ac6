package conversation

// Step is one node in the entry conversation's state graph.
type Step int

const (
	// StepNone means no conversation is active for the identity.
	StepNone Step = iota
	StepChoosing
	StepTypingAmount
	StepTypingDate
	StepTypingDescription
	StepChoosingCategory
	StepChoosingClass
	StepConfirmation
	StepRestartOrEnd
	// StepCancelConfirm is the overlay reached from every other step by
	// the cancel keyword; Session.Saved holds the step to resume to.
	StepCancelConfirm
)

func (s Step) String() string {
	switch s {
	case StepNone:
		return "none"
	case StepChoosing:
		return "choosing"
	case StepTypingAmount:
		return "typing_amount"
	case StepTypingDate:
		return "typing_date"
	case StepTypingDescription:
		return "typing_description"
	case StepChoosingCategory:
		return "choosing_category"
	case StepChoosingClass:
		return "choosing_class"
	case StepConfirmation:
		return "confirmation"
	case StepRestartOrEnd:
		return "restart_or_end"
	case StepCancelConfirm:
		return "cancel_confirm"
	}
	return "unknown"
}
