package repository

import (
	"time"

	"github.com/8Tech-Consults/skills-chat/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageRepository handles database operations for Message
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *MessageRepository) WithTx(tx *gorm.DB) *MessageRepository {
	return &MessageRepository{db: tx}
}

// Create inserts a new message
func (r *MessageRepository) Create(msg *model.Message) error {
	return r.db.Create(msg).Error
}

// Save persists changes to an existing message
func (r *MessageRepository) Save(msg *model.Message) error {
	return r.db.Save(msg).Error
}

// FindByMessageID finds a message by its opaque id
func (r *MessageRepository) FindByMessageID(messageID string) (*model.Message, error) {
	var msg model.Message
	err := r.db.Where("message_id = ?", messageID).First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListBefore returns up to limit messages of a conversation, newest first,
// strictly before the given numeric id (0 means from the top). Clients
// render by the monotonically increasing id, which matches commit order.
func (r *MessageRepository) ListBefore(convID uint, beforeID uint, limit int) ([]model.Message, error) {
	messages := []model.Message{}
	q := r.db.Where("conversation_id = ?", convID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	err := q.Order("id DESC").Limit(limit).Find(&messages).Error
	return messages, err
}

// LatestID returns the numeric id of the newest message in a conversation,
// zero when the conversation is empty.
func (r *MessageRepository) LatestID(convID uint) (uint, error) {
	var msg model.Message
	err := r.db.Select("id").
		Where("conversation_id = ?", convID).
		Order("id DESC").
		First(&msg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return msg.ID, nil
}

// MarkDelivered bulk-advances the receiver's pending messages from sent to
// delivered. Already delivered or read messages are untouched, keeping the
// transition monotonic and idempotent.
func (r *MessageRepository) MarkDelivered(convID uint, receiverID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.Model(&model.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND status = ?",
			convID, receiverID, model.MessageStatusSent).
		UpdateColumns(map[string]interface{}{
			"status":       model.MessageStatusDelivered,
			"delivered_at": at,
		})
	return res.RowsAffected, res.Error
}

// MarkRead bulk-advances all of the receiver's unread messages to read in
// one UPDATE. delivered_at is backfilled where the delivered step was
// skipped, since read implies delivered.
func (r *MessageRepository) MarkRead(convID uint, receiverID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.Model(&model.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND status <> ?",
			convID, receiverID, model.MessageStatusRead).
		UpdateColumns(map[string]interface{}{
			"status":       model.MessageStatusRead,
			"read_at":      at,
			"delivered_at": gorm.Expr("COALESCE(delivered_at, ?)", at),
		})
	return res.RowsAffected, res.Error
}

// CountUnread counts messages the user has received but not read. The
// conversation's unread column must always equal this count; the
// reconciliation sweep compares the two.
func (r *MessageRepository) CountUnread(convID uint, receiverID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND status <> ?",
			convID, receiverID, model.MessageStatusRead).
		Count(&count).Error
	return count, err
}

// Search matches message bodies within one conversation, newest first.
// Soft-deleted messages have their content cleared and never match.
func (r *MessageRepository) Search(convID uint, query string, limit int) ([]model.Message, error) {
	messages := []model.Message{}
	err := r.db.
		Where("conversation_id = ? AND deleted_at IS NULL AND body LIKE ?",
			convID, "%"+query+"%").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}
