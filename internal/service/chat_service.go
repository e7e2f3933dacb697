package service

import (
	"context"
	"errors"
	"time"

	"github.com/8Tech-Consults/skills-chat/internal/apperr"
	"github.com/8Tech-Consults/skills-chat/internal/model"
	"github.com/8Tech-Consults/skills-chat/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventPublisher delivers per-user chat events over the out-of-band
// channel. Implementations must be safe for concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, userID uuid.UUID, event *model.ChatEvent)
}

// PushNotifier sends a push notification for a new message. Implementations
// decide delivery details; the service only gates on the recipient's mute flag.
type PushNotifier interface {
	NotifyNewMessage(ctx context.Context, receiverID uuid.UUID, senderName, preview, conversationKey string)
}

// ChatService implements the direct-messaging operations: conversation
// directory, message lifecycle, unread ledger, per-user settings and
// in-conversation search. Every operation takes the acting user explicitly.
type ChatService struct {
	db       *gorm.DB
	convRepo *repository.ConversationRepository
	msgRepo  *repository.MessageRepository
	userRepo *repository.UserRepository
	events   EventPublisher
	notifier PushNotifier

	// editWindow bounds how long after sending a text message may be
	// edited. Zero means editable while not deleted.
	editWindow time.Duration
}

func NewChatService(
	db *gorm.DB,
	convRepo *repository.ConversationRepository,
	msgRepo *repository.MessageRepository,
	userRepo *repository.UserRepository,
	events EventPublisher,
	notifier PushNotifier,
	editWindow time.Duration,
) *ChatService {
	return &ChatService{
		db:         db,
		convRepo:   convRepo,
		msgRepo:    msgRepo,
		userRepo:   userRepo,
		events:     events,
		notifier:   notifier,
		editWindow: editWindow,
	}
}

// GetOrCreateConversation resolves the actor/partner pair (optionally
// scoped to a listing) to exactly one conversation, creating it on first
// contact. Concurrent first-contact races are resolved by the unique pair
// index: a duplicate-key insert means someone else just created it, so we
// re-fetch instead of failing.
func (s *ChatService) GetOrCreateConversation(actorID uuid.UUID, req model.StartConversationRequest) (*model.ConversationSummary, error) {
	if req.PartnerID == actorID {
		return nil, apperr.InvalidOperation("cannot start a conversation with yourself")
	}

	partner, err := s.userRepo.FindByID(req.PartnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("partner not found")
		}
		return nil, apperr.Unavailable("could not resolve partner")
	}

	a, b := model.NormalizePair(actorID, req.PartnerID)
	conv, err := s.convRepo.FindByPair(a, b, req.ServiceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		kind := model.ConversationKindDirect
		if req.ServiceID > 0 {
			kind = model.ConversationKindServiceInquiry
		}
		conv = &model.Conversation{
			Key:            uuid.New().String(),
			Kind:           kind,
			ParticipantAID: a,
			ParticipantBID: b,
			ServiceID:      req.ServiceID,
			Title:          req.Title,
		}
		if createErr := s.convRepo.Create(conv); createErr != nil {
			if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return nil, apperr.Unavailable("could not create conversation")
			}
			// Lost the first-contact race; the row exists now.
			conv, err = s.convRepo.FindByPair(a, b, req.ServiceID)
			if err != nil {
				return nil, apperr.Unavailable("could not load conversation")
			}
		}
	} else if err != nil {
		return nil, apperr.Unavailable("could not load conversation")
	}

	summary := conv.SummaryFor(actorID, partner.Profile())
	return &summary, nil
}

// ListConversations returns the actor's conversations newest activity
// first. Each entry carries only the actor's own private state plus the
// shared last-message cache and the partner's identity.
func (s *ChatService) ListConversations(actorID uuid.UUID, includeArchived bool) ([]model.ConversationSummary, error) {
	conversations, err := s.convRepo.ListForUser(actorID, includeArchived)
	if err != nil {
		return nil, apperr.Unavailable("could not list conversations")
	}

	partnerIDs := make([]uuid.UUID, 0, len(conversations))
	for i := range conversations {
		partnerIDs = append(partnerIDs, conversations[i].OtherParticipant(actorID))
	}
	partners := map[uuid.UUID]model.User{}
	if len(partnerIDs) > 0 {
		partners, err = s.userRepo.FindByIDs(partnerIDs)
		if err != nil {
			return nil, apperr.Unavailable("could not resolve partners")
		}
	}

	result := []model.ConversationSummary{}
	for i := range conversations {
		conv := &conversations[i]
		partner := partners[conv.OtherParticipant(actorID)]
		result = append(result, conv.SummaryFor(actorID, partner.Profile()))
	}
	return result, nil
}

// ToggleArchive flips the actor's own archive flag and returns the new
// state. The partner's flag and list visibility are unaffected.
func (s *ChatService) ToggleArchive(actorID uuid.UUID, convKey string) (bool, error) {
	conv, side, err := s.conversationForParticipant(convKey, actorID)
	if err != nil {
		return false, err
	}
	archived := !conv.ArchivedBy(actorID)
	if err := s.convRepo.SetArchived(conv.ID, side, archived); err != nil {
		return false, apperr.Unavailable("could not update archive flag")
	}
	return archived, nil
}

// ToggleMute flips the actor's own mute flag and returns the new state.
// A muted conversation still receives messages; only push notifications
// are suppressed.
func (s *ChatService) ToggleMute(actorID uuid.UUID, convKey string) (bool, error) {
	conv, side, err := s.conversationForParticipant(convKey, actorID)
	if err != nil {
		return false, err
	}
	muted := !conv.MutedBy(actorID)
	if err := s.convRepo.SetMuted(conv.ID, side, muted); err != nil {
		return false, apperr.Unavailable("could not update mute flag")
	}
	return muted, nil
}

// ReconcileUnreadCounts recomputes every unread counter from the message
// table and fixes drift. The hot path maintains counters incrementally;
// this scan is the periodic consistency check, not part of any request.
func (s *ChatService) ReconcileUnreadCounts() (int, error) {
	const batchSize = 200
	fixed := 0
	afterID := uint(0)
	for {
		conversations, err := s.convRepo.ListAll(afterID, batchSize)
		if err != nil {
			return fixed, err
		}
		if len(conversations) == 0 {
			return fixed, nil
		}
		for i := range conversations {
			conv := &conversations[i]
			afterID = conv.ID
			sides := []struct {
				side   model.Side
				userID uuid.UUID
				stored int
			}{
				{model.SideA, conv.ParticipantAID, conv.AUnreadCount},
				{model.SideB, conv.ParticipantBID, conv.BUnreadCount},
			}
			for _, c := range sides {
				actual, err := s.msgRepo.CountUnread(conv.ID, c.userID)
				if err != nil {
					return fixed, err
				}
				if int(actual) != c.stored {
					if err := s.convRepo.SetUnread(conv.ID, c.side, int(actual)); err != nil {
						return fixed, err
					}
					fixed++
				}
			}
		}
	}
}

// conversationForParticipant loads a conversation by key and verifies the
// actor is one of its two participants.
func (s *ChatService) conversationForParticipant(convKey string, actorID uuid.UUID) (*model.Conversation, model.Side, error) {
	conv, err := s.convRepo.FindByKey(convKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperr.NotFound("conversation not found")
		}
		return nil, "", apperr.Unavailable("could not load conversation")
	}
	side, ok := conv.SideOf(actorID)
	if !ok {
		return nil, "", apperr.AccessDenied("you are not a participant of this conversation")
	}
	return conv, side, nil
}

// publish fires an out-of-band event for a user, tolerating a nil publisher.
func (s *ChatService) publish(userID uuid.UUID, event *model.ChatEvent) {
	if s.events == nil {
		return
	}
	s.events.Publish(context.Background(), userID, event)
}
