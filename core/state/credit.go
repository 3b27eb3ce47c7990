package state

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"creditra/native/credit"
	"creditra/storage"
)

var (
	creditAdminKey      = []byte("credit/admin")
	creditRateConfigKey = []byte("credit/rate-config")
)

func creditLineKey(borrower [20]byte) []byte {
	return append([]byte("credit/line/"), borrower[:]...)
}

// Manager adapts a raw key-value database into the typed ledger store
// consumed by the credit engine. Records are RLP encoded; credit lines are
// keyed by borrower with two reserved singleton keys for the admin principal
// and the rate-change configuration.
type Manager struct {
	db storage.Database
}

// NewManager wraps the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// CreditLineGet loads the stored line for a borrower. A nil line with nil
// error means no record exists.
func (m *Manager) CreditLineGet(borrower [20]byte) (*credit.CreditLine, error) {
	data, err := m.db.Get(creditLineKey(borrower))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	line := new(credit.CreditLine)
	if err := rlp.DecodeBytes(data, line); err != nil {
		return nil, fmt.Errorf("state: decode credit line: %w", err)
	}
	return credit.SanitizeCreditLine(line)
}

// CreditLinePut persists the line under its borrower key. The record is
// sanitized before encoding so corrupt values never reach disk.
func (m *Manager) CreditLinePut(line *credit.CreditLine) error {
	sanitized, err := credit.SanitizeCreditLine(line)
	if err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(sanitized)
	if err != nil {
		return err
	}
	return m.db.Put(creditLineKey(sanitized.Borrower), encoded)
}

// AdminGet returns the stored admin principal and whether one has been set.
func (m *Manager) AdminGet() ([20]byte, bool, error) {
	var admin [20]byte
	data, err := m.db.Get(creditAdminKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return admin, false, nil
	}
	if err != nil {
		return admin, false, err
	}
	if len(data) != len(admin) {
		return admin, false, fmt.Errorf("state: malformed admin record: %d bytes", len(data))
	}
	copy(admin[:], data)
	return admin, true, nil
}

// AdminPut stores the admin principal under its singleton key.
func (m *Manager) AdminPut(addr [20]byte) error {
	return m.db.Put(creditAdminKey, addr[:])
}

// RateConfigGet loads the rate-change throttle. A nil config with nil error
// means throttling is disabled.
func (m *Manager) RateConfigGet() (*credit.RateChangeConfig, error) {
	data, err := m.db.Get(creditRateConfigKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cfg := new(credit.RateChangeConfig)
	if err := rlp.DecodeBytes(data, cfg); err != nil {
		return nil, fmt.Errorf("state: decode rate config: %w", err)
	}
	return cfg, nil
}

// RateConfigPut stores the throttle config; a nil config removes the record,
// disabling throttling.
func (m *Manager) RateConfigPut(cfg *credit.RateChangeConfig) error {
	if cfg == nil {
		return m.db.Delete(creditRateConfigKey)
	}
	encoded, err := rlp.EncodeToBytes(cfg)
	if err != nil {
		return err
	}
	return m.db.Put(creditRateConfigKey, encoded)
}
