package ports

import "time"

// SyncMetrics recibe los eventos del orquestador de sincronización.
type SyncMetrics interface {
	ObserveSync(status string, d time.Duration)
	IncTransition(result string)
	IncDeferred()
	SetBankroll(units float64)
}
