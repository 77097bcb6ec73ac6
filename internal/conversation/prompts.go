package conversation

import (
	"fmt"

	"movimenti/internal/core"
)

// Reply is one outbound message: the prompt text plus the short fixed
// choice set the transport should render as quick-reply buttons. An empty
// Choices means the step expects freeform input.
type Reply struct {
	Text    string
	Choices []string
}

// Operator-facing prompts. The bot speaks Italian, like the ledger it
// writes to.
const (
	msgChoosing     = "Vuoi inserire un nuovo movimento?"
	msgChoosingErr  = "Per favore, rispondi con SI, NO o Annulla."
	msgAmount       = "Perfetto! Inserisci l'importo (può essere positivo o negativo, massimo due cifre decimali)."
	msgAmountErr    = "Per favore, inserisci un numero valido (es. 123.45 o -67.89)."
	msgDate         = "Inserisci la data (formato DD/MM/YYYY) o scrivi \"oggi\" per usare la data odierna."
	msgDateErr      = "Per favore, inserisci la data nel formato DD/MM/YYYY o scrivi \"oggi\"."
	msgDescription  = "Inserisci una descrizione per il movimento."
	msgClass        = "Seleziona la classe (L, N, S, E):"
	msgClassErr     = "Per favore, seleziona una classe valida (L, N, S, E)."
	msgCommitOK     = "Movimento inserito con successo!"
	msgCommitFailed = "Si è verificato un errore durante l'inserimento dei dati."
	msgRestart      = "Vuoi inserire un altro movimento?"
	msgDiscarded    = "Inserimento annullato."
	msgCancelAsk    = "Sei sicuro di voler annullare l'inserimento?"
	msgCancelErr    = "Per favore, rispondi con SI o NO."
	msgCancelAbort  = "Inserimento annullato. Vuoi inserire un nuovo movimento?"
	msgResume       = "Ok, continuiamo con l'inserimento."
	msgEndStart     = "Ok, se hai bisogno, scrivimi /start per ricominciare."
	msgEndThanks    = "Grazie per aver utilizzato il bot. Alla prossima!"
	msgDenied       = "Non sei autorizzato ad utilizzare questo bot."
)

var (
	choicesYesNoCancel = []string{"SI", "NO", "Annulla"}
	choicesYesNo       = []string{"SI", "NO"}
	choicesCancel      = []string{"Annulla"}
	choicesClass       = []string{"L", "N", "S", "E", "Annulla"}
)

func categoryPrompt() string {
	return "Seleziona il tipo inserendo il numero corrispondente:\n\n" + core.CategoryMenu()
}

func categoryRangeErr() string {
	return fmt.Sprintf("Per favore, inserisci un numero valido tra 1 e %d.", core.CategoryCount())
}

func summaryPrompt(d Draft) string {
	return fmt.Sprintf(
		"Confermi di voler inserire:\nImporto: %s\nData: %s\nDescrizione: %s\nTipo: %s\nClasse: %s\nRispondi con SI per confermare o NO per annullare.",
		d.Amount.String(), d.Date, d.Description, d.Category, d.Class)
}

// stepPrompt returns the re-entry prompt for a step, used when the cancel
// sub-flow resumes it.
func stepPrompt(s Step, d Draft) Reply {
	switch s {
	case StepChoosing:
		return Reply{Text: msgChoosing, Choices: choicesYesNoCancel}
	case StepTypingAmount:
		return Reply{Text: msgAmount, Choices: choicesCancel}
	case StepTypingDate:
		return Reply{Text: msgDate, Choices: choicesCancel}
	case StepTypingDescription:
		return Reply{Text: msgDescription, Choices: choicesCancel}
	case StepChoosingCategory:
		return Reply{Text: categoryPrompt(), Choices: choicesCancel}
	case StepChoosingClass:
		return Reply{Text: msgClass, Choices: choicesClass}
	case StepConfirmation:
		return Reply{Text: summaryPrompt(d), Choices: choicesYesNoCancel}
	case StepRestartOrEnd:
		return Reply{Text: msgRestart, Choices: choicesYesNoCancel}
	}
	return Reply{Text: msgChoosing, Choices: choicesYesNoCancel}
}
