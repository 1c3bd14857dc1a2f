package models

import (
	"time"

	"github.com/yourorg/rips-import/internal/types"
)

// ImportOutcome mirrors the import_outcome table written by db.OutcomeRepository.
type ImportOutcome struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	RunID        string    `json:"run_id" gorm:"type:uuid;not null;index:import_outcome_run_idx,priority:1"`
	ClientNumber int       `json:"client_number" gorm:"not null;default:0"`
	Kind         string    `json:"kind" gorm:"not null"`
	Message      string    `json:"message" gorm:"not null;default:''"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ImportOutcome) TableName() string { return "import_outcome" }

// Outcome converts the row to the shared domain type.
func (m ImportOutcome) Outcome() types.Outcome {
	return types.Outcome{
		ID:           m.ID,
		RunID:        m.RunID,
		ClientNumber: m.ClientNumber,
		Kind:         types.OutcomeKind(m.Kind),
		Message:      m.Message,
		CreatedAt:    m.CreatedAt,
	}
}

// OutcomeFilter narrows an outcome listing.
type OutcomeFilter struct {
	RunID  string
	Kind   string
	Limit  int
	Offset int
}
