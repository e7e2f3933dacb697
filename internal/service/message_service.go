package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/8Tech-Consults/skills-chat/internal/apperr"
	"github.com/8Tech-Consults/skills-chat/internal/emoji"
	"github.com/8Tech-Consults/skills-chat/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
	searchLimit     = 50

	deletedPlaceholder = "Message deleted"
)

// SendMessage appends a message to a conversation. The insert, the
// receiver's unread increment and the last-activity cache refresh commit
// in one transaction: a failed send leaves no orphaned counter or cache.
func (s *ChatService) SendMessage(actorID uuid.UUID, convKey string, req model.SendMessageRequest) (*model.Message, error) {
	conv, _, err := s.conversationForParticipant(convKey, actorID)
	if err != nil {
		return nil, err
	}

	kind, err := validateContent(&req)
	if err != nil {
		return nil, err
	}

	receiverID := conv.OtherParticipant(actorID)
	receiverSide, _ := conv.SideOf(receiverID)
	now := time.Now()

	msg := &model.Message{
		MessageID:      uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       actorID,
		ReceiverID:     receiverID,
		Kind:           kind,
		Body:           req.Body,
		MediaURL:       req.MediaURL,
		MediaName:      req.MediaName,
		MediaSize:      req.MediaSize,
		MediaType:      req.MediaType,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Status:         model.MessageStatusSent,
		Reactions:      model.ReactionSet{},
		CreatedAt:      now,
	}

	if req.ReplyToID != "" {
		target, err := s.msgRepo.FindByMessageID(req.ReplyToID)
		if err != nil || target.ConversationID != conv.ID {
			return nil, apperr.NotFound("reply target not found")
		}
		replyTo := req.ReplyToID
		msg.ReplyToID = &replyTo
		msg.ReplyPreview = target.Preview()
	}

	cacheBody := msg.Body
	if kind != model.MessageKindText {
		cacheBody = msg.Preview()
	}
	cacheBody = model.Truncate(cacheBody, model.LastMessageCacheLen)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.msgRepo.WithTx(tx).Create(msg); err != nil {
			return err
		}
		return s.convRepo.WithTx(tx).RecordMessage(conv.ID, receiverSide, cacheBody, actorID, now)
	})
	if err != nil {
		return nil, apperr.Unavailable("could not send message")
	}

	s.publish(receiverID, &model.ChatEvent{Type: model.EventNewMessage, Payload: msg})
	if s.notifier != nil && !conv.MutedBy(receiverID) {
		go func() {
			senderName := ""
			if sender, err := s.userRepo.FindByID(actorID); err == nil {
				senderName = sender.Name
			}
			s.notifier.NotifyNewMessage(context.Background(), receiverID, senderName, msg.Preview(), conv.Key)
		}()
	}

	return msg, nil
}

// ListMessages returns one page of a conversation, newest first, and as a
// side effect marks everything the actor had not yet read as read. The
// bulk status advance and the unread-counter reset share one transaction.
func (s *ChatService) ListMessages(actorID uuid.UUID, convKey, beforeID string, limit int) (*model.MessagePage, error) {
	conv, side, err := s.conversationForParticipant(convKey, actorID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	var beforeNum uint
	if beforeID != "" {
		if cursor, err := s.msgRepo.FindByMessageID(beforeID); err == nil && cursor.ConversationID == conv.ID {
			beforeNum = cursor.ID
		}
	}

	if err := s.markRead(conv, side, actorID); err != nil {
		return nil, err
	}

	messages, err := s.msgRepo.ListBefore(conv.ID, beforeNum, limit+1)
	if err != nil {
		return nil, apperr.Unavailable("could not load messages")
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}
	return &model.MessagePage{Messages: messages, HasMore: hasMore}, nil
}

// MarkDelivered advances the actor's pending received messages from sent
// to delivered. Re-running it, or running it after read, is a no-op.
func (s *ChatService) MarkDelivered(actorID uuid.UUID, convKey string) error {
	conv, _, err := s.conversationForParticipant(convKey, actorID)
	if err != nil {
		return err
	}
	if _, err := s.msgRepo.MarkDelivered(conv.ID, actorID, time.Now()); err != nil {
		return apperr.Unavailable("could not update delivery status")
	}
	return nil
}

// MarkRead zeroes the actor's unread counter and advances all their
// received messages to read.
func (s *ChatService) MarkRead(actorID uuid.UUID, convKey string) error {
	conv, side, err := s.conversationForParticipant(convKey, actorID)
	if err != nil {
		return err
	}
	return s.markRead(conv, side, actorID)
}

func (s *ChatService) markRead(conv *model.Conversation, side model.Side, actorID uuid.UUID) error {
	now := time.Now()
	var advanced int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		n, err := s.msgRepo.WithTx(tx).MarkRead(conv.ID, actorID, now)
		if err != nil {
			return err
		}
		advanced = n
		return s.convRepo.WithTx(tx).ResetUnread(conv.ID, side, now)
	})
	if err != nil {
		return apperr.Unavailable("could not mark messages as read")
	}
	if advanced > 0 {
		s.publish(conv.OtherParticipant(actorID), &model.ChatEvent{
			Type: model.EventMessageRead,
			Payload: model.ReadEvent{
				ConversationKey: conv.Key,
				ReaderID:        actorID,
				ReadAt:          now,
			},
		})
	}
	return nil
}

// EditMessage replaces the body of a text message. Only the sender may
// edit, and only within the configured edit window (unbounded when the
// window is zero). The original send timestamp is untouched.
func (s *ChatService) EditMessage(actorID uuid.UUID, messageID, newBody string) (*model.Message, error) {
	msg, err := s.messageByID(messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != actorID {
		return nil, apperr.AccessDenied("only the sender can edit a message")
	}
	if msg.IsDeleted() {
		return nil, apperr.InvalidOperation("message has been deleted")
	}
	if msg.Kind != model.MessageKindText {
		return nil, apperr.InvalidOperation("only text messages can be edited")
	}
	if s.editWindow > 0 && time.Since(msg.CreatedAt) > s.editWindow {
		return nil, apperr.InvalidOperation("edit window has expired")
	}
	if strings.TrimSpace(newBody) == "" {
		return nil, apperr.InvalidContent("message body cannot be empty")
	}

	now := time.Now()
	msg.Body = newBody
	msg.EditedAt = &now

	if err := s.saveAndRefreshCache(msg); err != nil {
		return nil, err
	}
	s.publish(msg.ReceiverID, &model.ChatEvent{Type: model.EventMessageEdited, Payload: msg})
	return msg, nil
}

// DeleteMessage soft-deletes a message: content is cleared, the row and
// its ordering position remain. Sender only; deleting twice is a no-op.
func (s *ChatService) DeleteMessage(actorID uuid.UUID, messageID string) (*model.Message, error) {
	msg, err := s.messageByID(messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != actorID {
		return nil, apperr.AccessDenied("only the sender can delete a message")
	}
	if msg.IsDeleted() {
		return msg, nil
	}

	now := time.Now()
	msg.DeletedAt = &now
	msg.Body = ""
	msg.MediaURL = ""
	msg.MediaName = ""
	msg.MediaSize = 0
	msg.MediaType = ""
	msg.Latitude = nil
	msg.Longitude = nil

	if err := s.saveAndRefreshCache(msg); err != nil {
		return nil, err
	}
	s.publish(msg.ReceiverID, &model.ChatEvent{Type: model.EventMessageDeleted, Payload: msg})
	return msg, nil
}

// React sets the actor's single reaction on a message, replacing any prior
// one. Either participant may react to any message in their conversation.
func (s *ChatService) React(actorID uuid.UUID, messageID, reaction string) (*model.Message, error) {
	msg, conv, err := s.messageForParticipant(messageID, actorID)
	if err != nil {
		return nil, err
	}
	if msg.IsDeleted() {
		return nil, apperr.InvalidOperation("cannot react to a deleted message")
	}
	if !emoji.IsValid(reaction) {
		return nil, apperr.InvalidContent("reaction must be a single emoji")
	}

	if msg.Reactions == nil {
		msg.Reactions = model.ReactionSet{}
	}
	msg.Reactions[actorID.String()] = reaction
	if err := s.msgRepo.Save(msg); err != nil {
		return nil, apperr.Unavailable("could not save reaction")
	}
	s.publish(conv.OtherParticipant(actorID), &model.ChatEvent{Type: model.EventReaction, Payload: msg})
	return msg, nil
}

// Unreact clears the actor's reaction from a message, if any.
func (s *ChatService) Unreact(actorID uuid.UUID, messageID string) (*model.Message, error) {
	msg, conv, err := s.messageForParticipant(messageID, actorID)
	if err != nil {
		return nil, err
	}
	if _, ok := msg.Reactions[actorID.String()]; !ok {
		return msg, nil
	}
	delete(msg.Reactions, actorID.String())
	if err := s.msgRepo.Save(msg); err != nil {
		return nil, apperr.Unavailable("could not save reaction")
	}
	s.publish(conv.OtherParticipant(actorID), &model.ChatEvent{Type: model.EventReaction, Payload: msg})
	return msg, nil
}

// SearchMessages matches bodies within one conversation, newest first.
// There is no cross-conversation search.
func (s *ChatService) SearchMessages(actorID uuid.UUID, convKey, query string) ([]model.Message, error) {
	conv, _, err := s.conversationForParticipant(convKey, actorID)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(strings.TrimSpace(query)) < 2 {
		return nil, apperr.InvalidOperation("search query must be at least 2 characters")
	}
	messages, err := s.msgRepo.Search(conv.ID, strings.TrimSpace(query), searchLimit)
	if err != nil {
		return nil, apperr.Unavailable("could not search messages")
	}
	return messages, nil
}

// saveAndRefreshCache persists a message mutation and, when the message is
// the conversation's latest, refreshes the denormalized last-message body
// in the same transaction.
func (s *ChatService) saveAndRefreshCache(msg *model.Message) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.msgRepo.WithTx(tx).Save(msg); err != nil {
			return err
		}
		latest, err := s.msgRepo.WithTx(tx).LatestID(msg.ConversationID)
		if err != nil {
			return err
		}
		if latest == msg.ID {
			cacheBody := msg.Body
			if msg.Kind != model.MessageKindText || msg.IsDeleted() {
				cacheBody = msg.Preview()
			}
			cacheBody = model.Truncate(cacheBody, model.LastMessageCacheLen)
			return s.convRepo.WithTx(tx).UpdateLastMessageBody(msg.ConversationID, cacheBody)
		}
		return nil
	})
	if err != nil {
		return apperr.Unavailable("could not update message")
	}
	return nil
}

// messageByID loads a message by its opaque id.
func (s *ChatService) messageByID(messageID string) (*model.Message, error) {
	msg, err := s.msgRepo.FindByMessageID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, apperr.Unavailable("could not load message")
	}
	return msg, nil
}

// messageForParticipant loads a message and verifies the actor belongs to
// its conversation.
func (s *ChatService) messageForParticipant(messageID string, actorID uuid.UUID) (*model.Message, *model.Conversation, error) {
	msg, err := s.messageByID(messageID)
	if err != nil {
		return nil, nil, err
	}
	conv, err := s.convRepo.FindByID(msg.ConversationID)
	if err != nil {
		return nil, nil, apperr.Unavailable("could not load conversation")
	}
	if !conv.HasParticipant(actorID) {
		return nil, nil, apperr.AccessDenied("you are not a participant of this conversation")
	}
	return msg, conv, nil
}

// validateContent checks that the payload matches the declared kind and
// returns the normalized kind (empty defaults to text).
func validateContent(req *model.SendMessageRequest) (model.MessageKind, error) {
	kind := req.Kind
	if kind == "" {
		kind = model.MessageKindText
	}
	switch kind {
	case model.MessageKindText:
		if strings.TrimSpace(req.Body) == "" {
			return "", apperr.InvalidContent("text message requires a non-empty body")
		}
	case model.MessageKindImage, model.MessageKindVideo, model.MessageKindVoice, model.MessageKindDocument:
		if req.MediaURL == "" {
			return "", apperr.InvalidContent(string(kind) + " message requires a media url")
		}
	case model.MessageKindLocation:
		if req.Latitude == nil || req.Longitude == nil {
			return "", apperr.InvalidContent("location message requires coordinates")
		}
	default:
		return "", apperr.InvalidContent("unknown message kind")
	}
	return kind, nil
}
