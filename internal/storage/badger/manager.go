package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
)

// Manager bundles all Badger-backed storage implementations over a single
// database connection.
type Manager struct {
	db         *BadgerDB
	job        interfaces.JobStorage
	deadLetter interfaces.DeadLetterStorage
	deck       interfaces.DeckStorage
	quiz       interfaces.QuizStorage
	metric     interfaces.MetricStorage
	logger     arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:         db,
		job:        NewJobStorage(db, logger),
		deadLetter: NewDeadLetterStorage(db, logger),
		deck:       NewDeckStorage(db, logger),
		quiz:       NewQuizStorage(db, logger),
		metric:     NewMetricStorage(db, logger),
		logger:     logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// JobStorage returns the Job storage interface
func (m *Manager) JobStorage() interfaces.JobStorage {
	return m.job
}

// DeadLetterStorage returns the DeadLetter storage interface
func (m *Manager) DeadLetterStorage() interfaces.DeadLetterStorage {
	return m.deadLetter
}

// DeckStorage returns the Deck storage interface
func (m *Manager) DeckStorage() interfaces.DeckStorage {
	return m.deck
}

// QuizStorage returns the Quiz storage interface
func (m *Manager) QuizStorage() interfaces.QuizStorage {
	return m.quiz
}

// MetricStorage returns the Metric storage interface
func (m *Manager) MetricStorage() interfaces.MetricStorage {
	return m.metric
}

// DB returns the underlying database connection
func (m *Manager) DB() *BadgerDB {
	return m.db
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
