package services

import "testing"

func TestDeleteFlow(t *testing.T) {
	f := NewDeleteFlow()

	if _, ok := f.Pending(); ok {
		t.Fatal("fresh flow must be idle")
	}
	if _, ok := f.Confirm(); ok {
		t.Fatal("stray confirm must be a no-op")
	}

	f.Request(42)
	if id, ok := f.Pending(); !ok || id != 42 {
		t.Fatalf("expected pending 42, got %d %v", id, ok)
	}

	// Requesting another record replaces the pending target.
	f.Request(7)
	if id, _ := f.Pending(); id != 7 {
		t.Fatalf("expected retarget to 7, got %d", id)
	}

	id, ok := f.Confirm()
	if !ok || id != 7 {
		t.Fatalf("expected confirm of 7, got %d %v", id, ok)
	}
	if _, ok := f.Pending(); ok {
		t.Fatal("confirm must reset the flow")
	}
	if _, ok := f.Confirm(); ok {
		t.Fatal("second confirm must be a no-op")
	}

	f.Request(9)
	f.Cancel()
	if _, ok := f.Pending(); ok {
		t.Fatal("cancel must reset the flow")
	}
	if _, ok := f.Confirm(); ok {
		t.Fatal("confirm after cancel must be a no-op")
	}
}
