package amqp

import "testing"

func TestExpenseSyncMessageRoundTrip(t *testing.T) {
	msg := NewExpenseSyncMessage(42)
	if msg.Timestamp.IsZero() {
		t.Fatal("expected timestamp set")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := ExpenseSyncMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != 42 {
		t.Fatalf("expected id 42, got %d", got.ID)
	}
}

func TestExpenseSyncMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := ExpenseSyncMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error")
	}
}
