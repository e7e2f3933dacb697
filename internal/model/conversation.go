package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConversationKind defines what seeded the conversation
type ConversationKind string

const (
	ConversationKindDirect         ConversationKind = "direct"
	ConversationKindSupport        ConversationKind = "support"
	ConversationKindServiceInquiry ConversationKind = "service_inquiry"
)

// Side identifies which participant column group a user owns on the
// shared conversation row.
type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
)

// Column returns the participant-scoped column name for this side,
// e.g. SideA.Column("unread_count") == "a_unread_count".
func (s Side) Column(name string) string {
	return string(s) + "_" + name
}

// LastMessageCacheLen is the max length of the denormalized last-message
// body cache.
const LastMessageCacheLen = 100

// Conversation represents a two-party chat thread. Each participant owns
// the archive/mute/unread/last-read columns of their own side; everything
// else on the row is shared.
type Conversation struct {
	ID   uint             `json:"id" gorm:"primaryKey"`
	Key  string           `json:"key" gorm:"size:36;uniqueIndex;not null"`
	Kind ConversationKind `json:"kind" gorm:"type:varchar(20);default:'direct'"`

	// Participants are stored in normalized order (see NormalizePair) so a
	// lookup for (X, Y) finds a row created as (Y, X). The unique index over
	// the pair plus the service scope makes first-contact creation idempotent.
	ParticipantAID uuid.UUID `json:"participant_a_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_conversation_pair"`
	ParticipantBID uuid.UUID `json:"participant_b_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_conversation_pair"`

	// ServiceID references the marketplace listing that seeded the
	// conversation. Zero means the conversation is not listing-scoped.
	ServiceID uint   `json:"service_id,omitempty" gorm:"not null;default:0;uniqueIndex:idx_conversation_pair"`
	Title     string `json:"title,omitempty" gorm:"size:255"`

	// Denormalized last-activity cache for list rendering without joining
	// the messages table. Updated in the same transaction as the send.
	LastMessageBody     string     `json:"last_message_body" gorm:"column:last_message_body;size:120"`
	LastMessageAt       *time.Time `json:"last_message_at" gorm:"column:last_message_at"`
	LastMessageSenderID *uuid.UUID `json:"last_message_sender_id" gorm:"column:last_message_sender_id;type:uuid"`

	// Participant-private state, one column group per side.
	AUnreadCount int        `json:"-" gorm:"column:a_unread_count;not null;default:0"`
	BUnreadCount int        `json:"-" gorm:"column:b_unread_count;not null;default:0"`
	AArchived    bool       `json:"-" gorm:"column:a_archived;not null;default:false"`
	BArchived    bool       `json:"-" gorm:"column:b_archived;not null;default:false"`
	AMuted       bool       `json:"-" gorm:"column:a_muted;not null;default:false"`
	BMuted       bool       `json:"-" gorm:"column:b_muted;not null;default:false"`
	ALastReadAt  *time.Time `json:"-" gorm:"column:a_last_read_at"`
	BLastReadAt  *time.Time `json:"-" gorm:"column:b_last_read_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizePair orders two participant ids canonically so the pair has a
// single storage representation regardless of who initiated contact.
func NormalizePair(x, y uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(x.String(), y.String()) > 0 {
		return y, x
	}
	return x, y
}

// SideOf returns which column group the user owns, and whether the user
// is a participant at all.
func (c *Conversation) SideOf(userID uuid.UUID) (Side, bool) {
	switch userID {
	case c.ParticipantAID:
		return SideA, true
	case c.ParticipantBID:
		return SideB, true
	}
	return "", false
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	_, ok := c.SideOf(userID)
	return ok
}

// OtherParticipant returns the partner of userID. The caller must have
// verified participation first.
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if userID == c.ParticipantAID {
		return c.ParticipantBID
	}
	return c.ParticipantAID
}

// UnreadFor returns the user's own unread counter.
func (c *Conversation) UnreadFor(userID uuid.UUID) int {
	if userID == c.ParticipantAID {
		return c.AUnreadCount
	}
	return c.BUnreadCount
}

// ArchivedBy returns the user's own archive flag.
func (c *Conversation) ArchivedBy(userID uuid.UUID) bool {
	if userID == c.ParticipantAID {
		return c.AArchived
	}
	return c.BArchived
}

// MutedBy returns the user's own mute flag.
func (c *Conversation) MutedBy(userID uuid.UUID) bool {
	if userID == c.ParticipantAID {
		return c.AMuted
	}
	return c.BMuted
}

// LastReadAtFor returns the user's own last-read timestamp.
func (c *Conversation) LastReadAtFor(userID uuid.UUID) *time.Time {
	if userID == c.ParticipantAID {
		return c.ALastReadAt
	}
	return c.BLastReadAt
}
