package domain

import "testing"

func TestNewMessageUnit_TextOnly(t *testing.T) {
	unit := NewMessageUnit(RawMessage{ID: 7, Text: "hello"})

	if unit.HasAttachments() {
		t.Error("Expected no attachments")
	}
	if unit.HighestID != 7 {
		t.Errorf("Expected HighestID 7, got %d", unit.HighestID)
	}
	if unit.Text != "hello" {
		t.Errorf("Expected text 'hello', got '%s'", unit.Text)
	}
}

func TestMessageUnit_Merge_SeedTextWins(t *testing.T) {
	unit := NewMessageUnit(RawMessage{ID: 10, Text: "seed", Attachment: &Attachment{ID: 1}, GroupID: 5})
	unit.Merge(RawMessage{ID: 11, Text: "sibling", Attachment: &Attachment{ID: 2}, GroupID: 5})

	if unit.Text != "seed" {
		t.Errorf("Expected seed text to win, got '%s'", unit.Text)
	}
	if len(unit.Attachments) != 2 {
		t.Fatalf("Expected 2 attachments, got %d", len(unit.Attachments))
	}
	if unit.HighestID != 11 {
		t.Errorf("Expected HighestID 11, got %d", unit.HighestID)
	}
}

func TestMessageUnit_Merge_FirstSiblingTextFallback(t *testing.T) {
	unit := NewMessageUnit(RawMessage{ID: 10, Attachment: &Attachment{ID: 1}, GroupID: 5})
	unit.Merge(RawMessage{ID: 11, Attachment: &Attachment{ID: 2}, GroupID: 5})
	unit.Merge(RawMessage{ID: 12, Text: "first", Attachment: &Attachment{ID: 3}, GroupID: 5})
	unit.Merge(RawMessage{ID: 13, Text: "second", Attachment: &Attachment{ID: 4}, GroupID: 5})

	if unit.Text != "first" {
		t.Errorf("Expected earliest sibling text 'first', got '%s'", unit.Text)
	}
	if unit.HighestID != 13 {
		t.Errorf("Expected HighestID 13, got %d", unit.HighestID)
	}
}

func TestMessageUnit_Merge_HighestIDNeverDecreases(t *testing.T) {
	unit := NewMessageUnit(RawMessage{ID: 20, Attachment: &Attachment{ID: 1}})
	unit.Merge(RawMessage{ID: 15, Attachment: &Attachment{ID: 2}})

	if unit.HighestID != 20 {
		t.Errorf("Expected HighestID to stay 20, got %d", unit.HighestID)
	}
}
