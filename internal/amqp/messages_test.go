package amqp

import (
	"strings"
	"testing"
	"time"
)

func TestLedgerChangeMessageRoundTrip(t *testing.T) {
	msg := NewLedgerChangeMessage("transaction.added", "tx_123")
	if msg.Timestamp.IsZero() {
		t.Fatal("timestamp not stamped")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	back, err := LedgerChangeMessageFromJSON(data)
	if err != nil {
		t.Fatal(err)
	}

	if back.Action != "transaction.added" || back.TransactionID != "tx_123" {
		t.Fatalf("round trip changed message: %+v", back)
	}
	if !back.Timestamp.Truncate(time.Second).Equal(msg.Timestamp.Truncate(time.Second)) {
		t.Fatalf("timestamp drifted: %v vs %v", back.Timestamp, msg.Timestamp)
	}
}

func TestLedgerChangeMessageFromJSONInvalid(t *testing.T) {
	if _, err := LedgerChangeMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestLedgerChangeMessageOmitsEmptyID(t *testing.T) {
	msg := NewLedgerChangeMessage("transactions.reset", "")
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "transactionId") {
		t.Fatalf("empty id serialized: %s", data)
	}
}
