package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldIdentity    = "identity"
	FieldStep        = "step"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldClass       = "class"
	FieldRowRef      = "row_ref"
	FieldOperation   = "operation"
	FieldError       = "error"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentEngine    = "engine"
	ComponentTransport = "transport"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpAppend   = "append"
	OpSync     = "sync"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
