// Package worker consumes ledger change events and appends them to a CSV
// audit trail, giving a replayable history of every mutation.
package worker

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tally/internal/amqp"
)

type AuditLog struct {
	mu   sync.Mutex
	file *os.File
	cw   *csv.Writer
}

// NewAuditLog opens (or creates) the audit file in append mode. A header row
// is written only when the file starts empty.
func NewAuditLog(path string) (*AuditLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	log := &AuditLog{file: file, cw: csv.NewWriter(file)}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat audit log: %w", err)
	}
	if info.Size() == 0 {
		if err := log.cw.Write([]string{"timestamp", "action", "transaction_id"}); err != nil {
			file.Close()
			return nil, fmt.Errorf("write audit header: %w", err)
		}
		log.cw.Flush()
		if err := log.cw.Error(); err != nil {
			file.Close()
			return nil, err
		}
	}

	return log, nil
}

// HandleChange appends one change event. Satisfies the consumer handler
// signature.
func (a *AuditLog) HandleChange(msg *amqp.LedgerChangeMessage) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	row := []string{
		msg.Timestamp.Format(time.RFC3339),
		msg.Action,
		msg.TransactionID,
	}
	if err := a.cw.Write(row); err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}
	a.cw.Flush()
	return a.cw.Error()
}

func (a *AuditLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cw.Flush()
	if err := a.cw.Error(); err != nil {
		a.file.Close()
		return err
	}
	return a.file.Close()
}
