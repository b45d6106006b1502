package history

import "github.com/starford/dayvault/internal/models"

// Ledger records conversion runs. Front ends depend on this interface so
// that tests can run without a database.
type Ledger interface {
	Record(run models.Run) error
	Get(id string) (*models.Run, error)
	List(limit int) ([]models.Run, error)
}

var _ Ledger = (*DB)(nil)
