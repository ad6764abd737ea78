package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// queueMessage is the internal envelope stored in Badger.
type queueMessage struct {
	ID           string    `json:"id"`
	Body         Message   `json:"body"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
	VisibleAt    time.Time `json:"visible_at"`
	ReceiveCount int       `json:"receive_count"`
}

// Delivery is a claimed message. Ack removes it from the queue; Nack
// makes it visible again after a delay. Exactly one of the two must be
// called, otherwise the message reappears when the visibility timeout
// lapses.
type Delivery struct {
	Message      Message
	ReceiveCount int
	// Poisoned marks a message whose receive count exceeded the
	// manager's cap. It has already been removed from the queue; the
	// caller must quarantine it instead of retrying.
	Poisoned bool

	manager *Manager
	msgID   string
}

// Manager implements a persistent queue on BadgerDB. Messages are
// stored once and tracked through a visibility index keyed by their
// next-visible timestamp, so scanning for ready work is a bounded
// prefix iteration.
type Manager struct {
	db                *badger.DB
	queueName         string
	visibilityTimeout time.Duration
	maxReceive        int
}

// NewManager creates a Badger-backed queue manager
func NewManager(db *badger.DB, queueName string, visibilityTimeout time.Duration, maxReceive int) (*Manager, error) {
	if db == nil {
		return nil, errors.New("badger db is required")
	}
	if queueName == "" {
		return nil, errors.New("queue name is required")
	}
	if visibilityTimeout <= 0 {
		visibilityTimeout = 5 * time.Minute
	}
	if maxReceive <= 0 {
		maxReceive = 3
	}

	return &Manager{
		db:                db,
		queueName:         queueName,
		visibilityTimeout: visibilityTimeout,
		maxReceive:        maxReceive,
	}, nil
}

// Enqueue adds a message to the queue, visible immediately.
func (m *Manager) Enqueue(ctx context.Context, msg Message) error {
	return m.enqueueAt(msg, time.Now())
}

// EnqueueAfter adds a message that becomes visible after the delay.
func (m *Manager) EnqueueAfter(ctx context.Context, msg Message, delay time.Duration) error {
	return m.enqueueAt(msg, time.Now().Add(delay))
}

func (m *Manager) enqueueAt(msg Message, visibleAt time.Time) error {
	qMsg := queueMessage{
		ID:         uuid.New().String(),
		Body:       msg,
		EnqueuedAt: time.Now(),
		VisibleAt:  visibleAt,
	}

	data, err := json.Marshal(qMsg)
	if err != nil {
		return fmt.Errorf("failed to marshal queue message: %w", err)
	}

	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(m.msgKey(qMsg.ID), data); err != nil {
			return err
		}
		return txn.Set(m.indexKey(qMsg.VisibleAt, qMsg.ID), []byte{})
	})
}

// Receive claims the next visible message. A claimed message stays
// invisible for the visibility timeout; if the caller crashes without
// acking, it reappears. Returns ErrNoMessage when nothing is ready.
//
// A message claimed more times than the receive cap is removed from the
// queue and returned with Poisoned set so the caller can quarantine it.
func (m *Manager) Receive(ctx context.Context) (*Delivery, error) {
	var qMsg queueMessage
	var poisoned bool

	err := m.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte(fmt.Sprintf("queue:%s:index:", m.queueName))
		it := txn.NewIterator(opts)
		defer it.Close()

		now := time.Now()
		found := false
		var oldIndexKey []byte

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)

			ts, id, err := m.parseIndexKey(key)
			if err != nil {
				continue
			}
			if ts.After(now) {
				// Index keys sort by timestamp; nothing later is ready.
				break
			}

			item, err := txn.Get(m.msgKey(id))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					// Stale index entry with no message behind it.
					if err := txn.Delete(key); err != nil {
						return err
					}
					continue
				}
				return err
			}

			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &qMsg)
			}); err != nil {
				return err
			}

			found = true
			oldIndexKey = key
			break
		}

		if !found {
			return ErrNoMessage
		}

		qMsg.ReceiveCount++

		if qMsg.ReceiveCount > m.maxReceive {
			// Poison message. Remove it from the queue entirely and
			// hand it back for quarantine; never silently drop work.
			poisoned = true
			if err := txn.Delete(oldIndexKey); err != nil {
				return err
			}
			return txn.Delete(m.msgKey(qMsg.ID))
		}

		qMsg.VisibleAt = time.Now().Add(m.visibilityTimeout)

		newData, err := json.Marshal(qMsg)
		if err != nil {
			return err
		}
		if err := txn.Set(m.msgKey(qMsg.ID), newData); err != nil {
			return err
		}
		if err := txn.Delete(oldIndexKey); err != nil {
			return err
		}
		return txn.Set(m.indexKey(qMsg.VisibleAt, qMsg.ID), []byte{})
	})
	if err != nil {
		return nil, err
	}

	return &Delivery{
		Message:      qMsg.Body,
		ReceiveCount: qMsg.ReceiveCount,
		Poisoned:     poisoned,
		manager:      m,
		msgID:        qMsg.ID,
	}, nil
}

// Ack removes the message from the queue after successful or terminal
// processing.
func (d *Delivery) Ack() error {
	if d.Poisoned {
		return nil // Already removed during Receive
	}
	return d.manager.delete(d.msgID)
}

// Nack returns the message to the queue, visible again after the delay.
func (d *Delivery) Nack(delay time.Duration) error {
	if d.Poisoned {
		return errors.New("cannot nack a poisoned message")
	}
	return d.manager.reschedule(d.msgID, time.Now().Add(delay))
}

// Extend pushes out the visibility timeout of a claimed message for
// handlers that outlive the default window.
func (m *Manager) Extend(ctx context.Context, messageID string, duration time.Duration) error {
	return m.reschedule(messageID, time.Now().Add(duration))
}

// PendingCount returns the number of messages in the queue, visible or
// not. Used by the health endpoint.
func (m *Manager) PendingCount(ctx context.Context) (int, error) {
	count := 0
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte(fmt.Sprintf("queue:%s:msg:", m.queueName))
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func (m *Manager) delete(msgID string) error {
	return m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(m.msgKey(msgID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil // Already deleted
			}
			return err
		}

		var qMsg queueMessage
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &qMsg)
		}); err != nil {
			return err
		}

		if err := txn.Delete(m.indexKey(qMsg.VisibleAt, msgID)); err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Delete(m.msgKey(msgID))
	})
}

func (m *Manager) reschedule(msgID string, visibleAt time.Time) error {
	return m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(m.msgKey(msgID))
		if err != nil {
			return err
		}

		var qMsg queueMessage
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &qMsg)
		}); err != nil {
			return err
		}

		oldIndexKey := m.indexKey(qMsg.VisibleAt, msgID)
		qMsg.VisibleAt = visibleAt

		newData, err := json.Marshal(qMsg)
		if err != nil {
			return err
		}
		if err := txn.Set(m.msgKey(msgID), newData); err != nil {
			return err
		}
		if err := txn.Delete(oldIndexKey); err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(m.indexKey(qMsg.VisibleAt, msgID), []byte{})
	})
}

func (m *Manager) msgKey(id string) []byte {
	return []byte(fmt.Sprintf("queue:%s:msg:%s", m.queueName, id))
}

func (m *Manager) indexKey(visibleAt time.Time, id string) []byte {
	// Zero pad to 20 digits so lexical ordering matches numeric ordering
	return []byte(fmt.Sprintf("queue:%s:index:%020d:%s", m.queueName, visibleAt.UnixNano(), id))
}

func (m *Manager) parseIndexKey(key []byte) (time.Time, string, error) {
	prefixStr := fmt.Sprintf("queue:%s:index:", m.queueName)
	if len(key) <= len(prefixStr) {
		return time.Time{}, "", fmt.Errorf("invalid key length")
	}

	suffix := string(key[len(prefixStr):])
	if len(suffix) < 21 { // 20 digits + 1 colon
		return time.Time{}, "", fmt.Errorf("invalid suffix length")
	}

	tsStr := suffix[:20]
	id := suffix[21:]

	var ts int64
	if _, err := fmt.Sscanf(tsStr, "%d", &ts); err != nil {
		return time.Time{}, "", err
	}

	return time.Unix(0, ts), id, nil
}
