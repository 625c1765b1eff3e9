package domain

// AttachmentKind identifies what an attachment reference points at
type AttachmentKind string

const (
	AttachmentPhoto    AttachmentKind = "photo"
	AttachmentDocument AttachmentKind = "document"
)

// Attachment is a reference to media already stored by the transport.
// It is never downloaded: forwarding re-sends the reference.
type Attachment struct {
	Kind          AttachmentKind
	ID            int64
	AccessHash    int64
	FileReference []byte
}

// RawMessage represents a message as delivered by the source feed
type RawMessage struct {
	ID         int64
	Text       string
	Attachment *Attachment // nil when the message carries no forwardable media
	GroupID    int64       // album identifier, 0 when not grouped
}

// HasAttachment checks if the message carries media
func (m *RawMessage) HasAttachment() bool {
	return m.Attachment != nil
}

// IsGrouped checks if the message is part of an album
func (m *RawMessage) IsGrouped() bool {
	return m.GroupID != 0
}

// MessageUnit is the aggregated unit the engine forwards as a whole.
// HighestID is the maximum id among all merged raw messages.
type MessageUnit struct {
	Attachments []Attachment
	HighestID   int64
	Text        string
}

// NewMessageUnit creates a unit seeded from a single raw message
func NewMessageUnit(seed RawMessage) *MessageUnit {
	unit := &MessageUnit{
		HighestID: seed.ID,
		Text:      seed.Text,
	}
	if seed.Attachment != nil {
		unit.Attachments = append(unit.Attachments, *seed.Attachment)
	}
	return unit
}

// Merge folds a sibling of the same album into the unit.
// The seed's text wins; a sibling only supplies text while the unit has none.
func (u *MessageUnit) Merge(sibling RawMessage) {
	if sibling.Attachment != nil {
		u.Attachments = append(u.Attachments, *sibling.Attachment)
	}
	if u.Text == "" {
		u.Text = sibling.Text
	}
	if sibling.ID > u.HighestID {
		u.HighestID = sibling.ID
	}
}

// HasAttachments checks if the unit should be sent as a file message
func (u *MessageUnit) HasAttachments() bool {
	return len(u.Attachments) > 0
}
