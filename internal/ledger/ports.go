package ledger

import (
	"context"

	"movimenti/internal/core"
)

// Appender is the outbound port for durable movement persistence. The
// engine calls it exactly once per confirmed entry.
type Appender interface {
	Append(ctx context.Context, m core.Movement) (rowRef string, err error)
}
