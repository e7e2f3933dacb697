package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/8Tech-Consults/skills-chat/internal/model"
)

func newConversation(a, b uuid.UUID, serviceID uint) *model.Conversation {
	na, nb := model.NormalizePair(a, b)
	return &model.Conversation{
		Key:            uuid.NewString(),
		Kind:           model.ConversationKindDirect,
		ParticipantAID: na,
		ParticipantBID: nb,
		ServiceID:      serviceID,
	}
}

func TestConversationPairUnique(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationRepository(db)

	a, b := uuid.New(), uuid.New()

	if err := repo.Create(newConversation(a, b, 0)); err != nil {
		t.Fatalf("first create: %v", err)
	}

	err := repo.Create(newConversation(b, a, 0))
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("duplicate pair error = %v, want gorm.ErrDuplicatedKey", err)
	}

	// A different listing scope is a different conversation.
	if err := repo.Create(newConversation(a, b, 42)); err != nil {
		t.Fatalf("scoped create: %v", err)
	}
}

func TestFindByPair(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationRepository(db)

	a, b := uuid.New(), uuid.New()
	conv := newConversation(a, b, 7)
	if err := repo.Create(conv); err != nil {
		t.Fatalf("create: %v", err)
	}

	na, nb := model.NormalizePair(b, a)
	found, err := repo.FindByPair(na, nb, 7)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.ID != conv.ID {
		t.Errorf("found id %d, want %d", found.ID, conv.ID)
	}

	if _, err := repo.FindByPair(na, nb, 0); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("wrong scope error = %v, want gorm.ErrRecordNotFound", err)
	}
}

func TestListForUserArchiveFilter(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationRepository(db)

	me := uuid.New()
	active := newConversation(me, uuid.New(), 0)
	mine := newConversation(me, uuid.New(), 0)
	theirs := newConversation(me, uuid.New(), 0)

	for _, conv := range []*model.Conversation{active, mine, theirs} {
		if err := repo.Create(conv); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	// Archive "mine" on my side and "theirs" on the partner's side.
	mySide, _ := mine.SideOf(me)
	if err := repo.SetArchived(mine.ID, mySide, true); err != nil {
		t.Fatalf("archive mine: %v", err)
	}
	partnerSide, _ := theirs.SideOf(theirs.OtherParticipant(me))
	if err := repo.SetArchived(theirs.ID, partnerSide, true); err != nil {
		t.Fatalf("archive theirs: %v", err)
	}

	conversations, err := repo.ListForUser(me, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	ids := map[uint]bool{}
	for _, c := range conversations {
		ids[c.ID] = true
	}
	if len(conversations) != 2 || !ids[active.ID] || !ids[theirs.ID] {
		t.Errorf("default list = %v, want active and partner-archived only", ids)
	}

	conversations, err = repo.ListForUser(me, true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(conversations) != 3 {
		t.Errorf("include_archived list has %d conversations, want 3", len(conversations))
	}
}

func TestListForUserOrdersByActivity(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationRepository(db)

	me := uuid.New()
	older := newConversation(me, uuid.New(), 0)
	newer := newConversation(me, uuid.New(), 0)
	for _, conv := range []*model.Conversation{older, newer} {
		if err := repo.Create(conv); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	base := time.Now()
	olderSide, _ := older.SideOf(older.OtherParticipant(me))
	newerSide, _ := newer.SideOf(newer.OtherParticipant(me))
	if err := repo.RecordMessage(newer.ID, newerSide, "hi", me, base.Add(-time.Hour)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.RecordMessage(older.ID, olderSide, "hi", me, base); err != nil {
		t.Fatalf("record: %v", err)
	}

	conversations, err := repo.ListForUser(me, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(conversations) != 2 {
		t.Fatalf("list has %d conversations, want 2", len(conversations))
	}
	if conversations[0].ID != older.ID {
		t.Errorf("first conversation = %d, want most recently active %d", conversations[0].ID, older.ID)
	}
}

func TestRecordMessage(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationRepository(db)

	me, partner := uuid.New(), uuid.New()
	conv := newConversation(me, partner, 0)
	if err := repo.Create(conv); err != nil {
		t.Fatalf("create: %v", err)
	}

	receiverSide, _ := conv.SideOf(partner)
	at := time.Now()
	if err := repo.RecordMessage(conv.ID, receiverSide, "hello partner", me, at); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.RecordMessage(conv.ID, receiverSide, "second", me, at.Add(time.Second)); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := repo.FindByID(conv.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.UnreadFor(partner) != 2 {
		t.Errorf("receiver unread = %d, want 2", got.UnreadFor(partner))
	}
	if got.UnreadFor(me) != 0 {
		t.Errorf("sender unread = %d, want 0", got.UnreadFor(me))
	}
	if got.LastMessageBody != "second" {
		t.Errorf("last message body = %q, want %q", got.LastMessageBody, "second")
	}
	if got.LastMessageSenderID == nil || *got.LastMessageSenderID != me {
		t.Errorf("last message sender = %v, want %s", got.LastMessageSenderID, me)
	}
	if got.LastMessageAt == nil {
		t.Error("last message timestamp not set")
	}
}

func TestResetUnread(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationRepository(db)

	me, partner := uuid.New(), uuid.New()
	conv := newConversation(me, partner, 0)
	if err := repo.Create(conv); err != nil {
		t.Fatalf("create: %v", err)
	}

	mySide, _ := conv.SideOf(me)
	if err := repo.RecordMessage(conv.ID, mySide, "hi", partner, time.Now()); err != nil {
		t.Fatalf("record: %v", err)
	}
	before, err := repo.FindByID(conv.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	readAt := time.Now()
	if err := repo.ResetUnread(conv.ID, mySide, readAt); err != nil {
		t.Fatalf("reset: %v", err)
	}

	got, err := repo.FindByID(conv.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.UnreadFor(me) != 0 {
		t.Errorf("unread = %d, want 0", got.UnreadFor(me))
	}
	if got.LastReadAtFor(me) == nil {
		t.Error("last-read timestamp not stamped")
	}
	// Reading must not reorder the conversation list.
	if !got.UpdatedAt.Equal(before.UpdatedAt) {
		t.Errorf("updated_at moved from %v to %v on read", before.UpdatedAt, got.UpdatedAt)
	}
}

func TestToggleFlagsPerSide(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationRepository(db)

	me, partner := uuid.New(), uuid.New()
	conv := newConversation(me, partner, 0)
	if err := repo.Create(conv); err != nil {
		t.Fatalf("create: %v", err)
	}

	mySide, _ := conv.SideOf(me)
	if err := repo.SetMuted(conv.ID, mySide, true); err != nil {
		t.Fatalf("mute: %v", err)
	}
	if err := repo.SetArchived(conv.ID, mySide, true); err != nil {
		t.Fatalf("archive: %v", err)
	}

	got, err := repo.FindByID(conv.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !got.MutedBy(me) || got.MutedBy(partner) {
		t.Error("mute flag leaked to the partner's side")
	}
	if !got.ArchivedBy(me) || got.ArchivedBy(partner) {
		t.Error("archive flag leaked to the partner's side")
	}
}
