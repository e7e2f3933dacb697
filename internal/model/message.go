package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// MessageKind defines the type of message content
type MessageKind string

const (
	MessageKindText     MessageKind = "text"
	MessageKindImage    MessageKind = "image"
	MessageKindVideo    MessageKind = "video"
	MessageKindVoice    MessageKind = "voice"
	MessageKindDocument MessageKind = "document"
	MessageKindLocation MessageKind = "location"
)

// MessageStatus defines the delivery status of a message.
// Transitions are monotonic: sent -> delivered -> read.
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

// ReplyPreviewLen is the max length of the cached reply preview text.
const ReplyPreviewLen = 50

// ReactionSet maps a reacting user id to their single emoji. It is stored
// as a JSON column on the message row so reaction updates stay inside the
// message's own transaction.
type ReactionSet map[string]string

// Value implements driver.Valuer.
func (r ReactionSet) Value() (driver.Value, error) {
	if len(r) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (r *ReactionSet) Scan(value interface{}) error {
	if value == nil {
		*r = ReactionSet{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported reaction column type")
	}
	if len(data) == 0 {
		*r = ReactionSet{}
		return nil
	}
	return json.Unmarshal(data, r)
}

// Message represents one unit of content within a conversation. Rows are
// never hard-deleted; a soft delete clears the displayable content and
// stamps deleted_at, keeping the ordering position for both participants.
type Message struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	MessageID string `json:"message_id" gorm:"size:36;uniqueIndex;not null"`

	ConversationID uint      `json:"conversation_id" gorm:"index;not null"`
	SenderID       uuid.UUID `json:"sender_id" gorm:"type:uuid;index;not null"`
	// ReceiverID is the other participant at send time, denormalized for
	// fast per-user status and unread queries.
	ReceiverID uuid.UUID `json:"receiver_id" gorm:"type:uuid;index;not null"`

	Kind MessageKind `json:"kind" gorm:"type:varchar(20);default:'text'"`
	Body string      `json:"body" gorm:"type:text"`

	// Media payload, populated for image/video/voice/document kinds. The
	// URL comes from the external upload collaborator.
	MediaURL  string `json:"media_url,omitempty" gorm:"size:1000"`
	MediaName string `json:"media_name,omitempty" gorm:"size:255"`
	MediaSize int64  `json:"media_size,omitempty"`
	MediaType string `json:"media_type,omitempty" gorm:"size:100"`

	// Geo payload for location kind.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// ReplyToID references the opaque message id being replied to, with a
	// short cached preview so rendering a reply needs no join.
	ReplyToID    *string `json:"reply_to_id,omitempty" gorm:"size:36;index"`
	ReplyPreview string  `json:"reply_preview,omitempty" gorm:"size:80"`

	Status      MessageStatus `json:"status" gorm:"type:varchar(20);default:'sent';index"`
	DeliveredAt *time.Time    `json:"delivered_at,omitempty"`
	ReadAt      *time.Time    `json:"read_at,omitempty"`

	EditedAt  *time.Time `json:"edited_at,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	Reactions ReactionSet `json:"reactions" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsDeleted reports whether the message has been soft-deleted.
func (m *Message) IsDeleted() bool {
	return m.DeletedAt != nil
}

// Preview returns the short, kind-aware summary cached on replies and on
// the conversation's last-message cache. Text bodies are truncated to
// ReplyPreviewLen runes with an ellipsis; other kinds get a glyph label.
func (m *Message) Preview() string {
	if m.IsDeleted() {
		return "Message deleted"
	}
	switch m.Kind {
	case MessageKindImage:
		return "📷 Photo"
	case MessageKindVideo:
		return "🎬 Video"
	case MessageKindVoice:
		return "🎤 Voice message"
	case MessageKindDocument:
		return "📄 Document"
	case MessageKindLocation:
		return "📍 Location"
	default:
		return Truncate(m.Body, ReplyPreviewLen)
	}
}

// Truncate shortens s to at most limit runes, appending an ellipsis when
// anything was cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
