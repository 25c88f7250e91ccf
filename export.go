package companionsdk

import (
	"time"

	json "github.com/goccy/go-json"
)

// ──────────────────────────────────────────────
// Dataset export — offline training pipeline feed
// ──────────────────────────────────────────────

// TrainingDataset is the full labeled dataset: every stored exchange plus
// the aggregate statistics, as a single document.
type TrainingDataset struct {
	ExportedAt time.Time        `json:"exported_at"`
	Ready      bool             `json:"ready"` // retraining gate at export time
	Stats      ScoreStats       `json:"stats"`
	Exchanges  []ScoredExchange `json:"exchanges"`
}

// ExportDataset snapshots the exchange store for offline consumption.
func ExportDataset(store *ExchangeStore) *TrainingDataset {
	return &TrainingDataset{
		ExportedAt: time.Now(),
		Ready:      store.Ready(),
		Stats:      store.Stats(),
		Exchanges:  store.Exchanges(),
	}
}

// Bytes serializes the dataset as JSON.
func (d *TrainingDataset) Bytes() ([]byte, error) {
	return json.Marshal(d)
}
