package model

import (
	"time"

	"github.com/google/uuid"
)

// ========== Conversation DTOs ==========

type StartConversationRequest struct {
	PartnerID uuid.UUID `json:"partner_id" binding:"required"`
	ServiceID uint      `json:"service_id"`
	Title     string    `json:"title" binding:"max=255"`
}

// LastMessagePreview is the shared last-activity cache exposed on
// conversation summaries.
type LastMessagePreview struct {
	Body     string    `json:"body"`
	SentAt   time.Time `json:"sent_at"`
	SenderID uuid.UUID `json:"sender_id"`
}

// ConversationSummary is one conversation as seen by the requesting
// participant: the partner's identity, the shared cache, and only the
// requester's own private state.
type ConversationSummary struct {
	ID          uint                `json:"id"`
	Key         string              `json:"key"`
	Kind        ConversationKind    `json:"kind"`
	ServiceID   uint                `json:"service_id,omitempty"`
	Title       string              `json:"title,omitempty"`
	Partner     UserProfile         `json:"partner"`
	LastMessage *LastMessagePreview `json:"last_message,omitempty"`
	UnreadCount int                 `json:"unread_count"`
	Archived    bool                `json:"archived"`
	Muted       bool                `json:"muted"`
	LastReadAt  *time.Time          `json:"last_read_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// SummaryFor builds the requesting participant's view of a conversation.
func (c *Conversation) SummaryFor(userID uuid.UUID, partner UserProfile) ConversationSummary {
	out := ConversationSummary{
		ID:          c.ID,
		Key:         c.Key,
		Kind:        c.Kind,
		ServiceID:   c.ServiceID,
		Title:       c.Title,
		Partner:     partner,
		UnreadCount: c.UnreadFor(userID),
		Archived:    c.ArchivedBy(userID),
		Muted:       c.MutedBy(userID),
		LastReadAt:  c.LastReadAtFor(userID),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.LastMessageAt != nil && c.LastMessageSenderID != nil {
		out.LastMessage = &LastMessagePreview{
			Body:     c.LastMessageBody,
			SentAt:   *c.LastMessageAt,
			SenderID: *c.LastMessageSenderID,
		}
	}
	return out
}

// ========== Message DTOs ==========

type SendMessageRequest struct {
	Kind      MessageKind `json:"kind" binding:"omitempty,oneof=text image video voice document location"`
	Body      string      `json:"body"`
	MediaURL  string      `json:"media_url" binding:"max=1000"`
	MediaName string      `json:"media_name" binding:"max=255"`
	MediaSize int64       `json:"media_size"`
	MediaType string      `json:"media_type" binding:"max=100"`
	Latitude  *float64    `json:"latitude"`
	Longitude *float64    `json:"longitude"`
	ReplyToID string      `json:"reply_to_id" binding:"max=36"`
}

type EditMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

type ReactRequest struct {
	Emoji string `json:"emoji" binding:"required,max=32"`
}

type MessageListRequest struct {
	Before string `form:"before"` // cursor: opaque message id to page before
	Limit  int    `form:"limit,default=50"`
}

type MessagePage struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}

type SearchRequest struct {
	Query string `form:"q" binding:"required,min=2"`
}

// ========== Settings DTOs ==========

type ToggleResponse struct {
	Enabled bool `json:"enabled"`
}

// ========== Upload DTOs ==========

// UploadResponse is returned after a successful file upload
type UploadResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// ========== Out-of-band Event DTOs ==========

// ChatEvent is published per-user on the Redis event channel so clients
// polling or listening out-of-band can refresh.
type ChatEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	EventNewMessage     = "new_message"
	EventMessageRead    = "message_read"
	EventMessageEdited  = "message_edited"
	EventMessageDeleted = "message_deleted"
	EventReaction       = "reaction"
)

type ReadEvent struct {
	ConversationKey string    `json:"conversation_key"`
	ReaderID        uuid.UUID `json:"reader_id"`
	ReadAt          time.Time `json:"read_at"`
}

// ========== Common ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
