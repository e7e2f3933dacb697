package repository

import (
	"time"

	"github.com/8Tech-Consults/skills-chat/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationRepository handles database operations for Conversation
type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *ConversationRepository) WithTx(tx *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: tx}
}

// Create inserts a new conversation. A concurrent first-contact race
// surfaces as gorm.ErrDuplicatedKey via the unique pair index; callers
// recover by re-fetching.
func (r *ConversationRepository) Create(conv *model.Conversation) error {
	return r.db.Create(conv).Error
}

// FindByID finds a conversation by numeric id
func (r *ConversationRepository) FindByID(id uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.Where("id = ?", id).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindByKey finds a conversation by its opaque key
func (r *ConversationRepository) FindByKey(key string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.Where("key = ?", key).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindByPair finds the conversation for a normalized participant pair and
// listing scope. Callers must normalize the pair first.
func (r *ConversationRepository) FindByPair(a, b uuid.UUID, serviceID uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.
		Where("participant_a_id = ? AND participant_b_id = ? AND service_id = ?", a, b, serviceID).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListForUser returns the user's conversations newest activity first,
// filtered by the user's own archive flag unless includeArchived is set.
// The partner's archive flag never affects the result.
func (r *ConversationRepository) ListForUser(userID uuid.UUID, includeArchived bool) ([]model.Conversation, error) {
	conversations := []model.Conversation{}
	q := r.db.Where("participant_a_id = ? OR participant_b_id = ?", userID, userID)
	if !includeArchived {
		q = q.Where(
			"(participant_a_id = ? AND a_archived = ?) OR (participant_b_id = ? AND b_archived = ?)",
			userID, false, userID, false,
		)
	}
	err := q.Order("updated_at DESC").Find(&conversations).Error
	return conversations, err
}

// RecordMessage applies the write-through side of a send: bumps the
// receiver's unread counter and refreshes the last-activity cache in a
// single UPDATE so it can share the message insert's transaction.
func (r *ConversationRepository) RecordMessage(convID uint, receiver model.Side, cacheBody string, senderID uuid.UUID, at time.Time) error {
	unreadCol := receiver.Column("unread_count")
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", convID).
		UpdateColumns(map[string]interface{}{
			unreadCol:                gorm.Expr(unreadCol + " + 1"),
			"last_message_body":      cacheBody,
			"last_message_at":        at,
			"last_message_sender_id": senderID,
			"updated_at":             at,
		}).Error
}

// UpdateLastMessageBody refreshes only the cached body text, used when the
// latest message is edited or deleted.
func (r *ConversationRepository) UpdateLastMessageBody(convID uint, cacheBody string) error {
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", convID).
		UpdateColumn("last_message_body", cacheBody).Error
}

// ResetUnread zeroes the user's unread counter and stamps their last-read
// timestamp. Deliberately leaves updated_at alone so reading does not
// reorder the conversation list.
func (r *ConversationRepository) ResetUnread(convID uint, side model.Side, at time.Time) error {
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", convID).
		UpdateColumns(map[string]interface{}{
			side.Column("unread_count"): 0,
			side.Column("last_read_at"): at,
		}).Error
}

// SetUnread overwrites the user's unread counter, used by the periodic
// reconciliation sweep.
func (r *ConversationRepository) SetUnread(convID uint, side model.Side, count int) error {
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", convID).
		UpdateColumn(side.Column("unread_count"), count).Error
}

// SetArchived sets the user's own archive flag
func (r *ConversationRepository) SetArchived(convID uint, side model.Side, archived bool) error {
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", convID).
		UpdateColumn(side.Column("archived"), archived).Error
}

// SetMuted sets the user's own mute flag
func (r *ConversationRepository) SetMuted(convID uint, side model.Side, muted bool) error {
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", convID).
		UpdateColumn(side.Column("muted"), muted).Error
}

// ListAll pages over every conversation, oldest id first, for the
// reconciliation sweep.
func (r *ConversationRepository) ListAll(afterID uint, limit int) ([]model.Conversation, error) {
	conversations := []model.Conversation{}
	err := r.db.
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&conversations).Error
	return conversations, err
}
