package main

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/8Tech-Consults/skills-chat/internal/config"
	"github.com/8Tech-Consults/skills-chat/internal/model"
)

func main() {
	// Load config
	cfg := config.Load()

	// Force DB logging off to avoid noise
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to Database")

	// Common password for all users
	password := "password123"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}

	// Create 10 users
	log.Println("🌱 Seeding 10 users...")

	var seeded []model.User
	for i := 1; i <= 10; i++ {
		username := fmt.Sprintf("user%d", i)
		email := fmt.Sprintf("user%d@skills.ug", i)

		// Check if exists
		var existing model.User
		if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
			seeded = append(seeded, existing)
			continue
		}

		user := model.User{
			ID:       uuid.New(),
			Name:     fmt.Sprintf("User Number %d", i),
			Email:    email,
			Password: string(hashedPassword),
			Avatar:   fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", username),
		}

		if err := db.Create(&user).Error; err != nil {
			log.Printf("❌ Failed to create user %s: %v", username, err)
			continue
		}
		seeded = append(seeded, user)
		log.Printf("✅ Created user: %s | Email: %s | Pass: %s", username, email, password)
	}

	if len(seeded) >= 2 {
		seedConversation(db, seeded[0], seeded[1])
	}

	log.Println("🎉 Seeding completed!")
}

// seedConversation creates a demo thread between two users with a short
// exchange, including the denormalized last-message cache and unread count
// the chat service would normally maintain.
func seedConversation(db *gorm.DB, first, second model.User) {
	a, b := model.NormalizePair(first.ID, second.ID)

	var count int64
	db.Model(&model.Conversation{}).
		Where("participant_a_id = ? AND participant_b_id = ? AND service_id = 0", a, b).
		Count(&count)
	if count > 0 {
		return
	}

	now := time.Now()
	conv := model.Conversation{
		Key:            uuid.NewString(),
		Kind:           model.ConversationKindDirect,
		ParticipantAID: a,
		ParticipantBID: b,
	}
	if err := db.Create(&conv).Error; err != nil {
		log.Printf("❌ Failed to create demo conversation: %v", err)
		return
	}

	bodies := []string{
		"Hi! Is your graphic design gig still available?",
		"Yes it is. What do you have in mind?",
		"A logo for my bakery. Can we talk pricing?",
	}

	sender, receiver := first, second
	var last model.Message
	for i, body := range bodies {
		at := now.Add(time.Duration(i) * time.Minute)
		msg := model.Message{
			MessageID:      uuid.NewString(),
			ConversationID: conv.ID,
			SenderID:       sender.ID,
			ReceiverID:     receiver.ID,
			Kind:           model.MessageKindText,
			Body:           body,
			Status:         model.MessageStatusSent,
			Reactions:      model.ReactionSet{},
			CreatedAt:      at,
		}
		if err := db.Create(&msg).Error; err != nil {
			log.Printf("❌ Failed to create demo message: %v", err)
			return
		}
		last = msg
		sender, receiver = receiver, sender
	}

	lastAt := last.CreatedAt
	receiverSide, _ := conv.SideOf(last.ReceiverID)
	db.Model(&model.Conversation{}).Where("id = ?", conv.ID).Updates(map[string]interface{}{
		"last_message_body":               model.Truncate(last.Body, model.LastMessageCacheLen),
		"last_message_at":                 lastAt,
		"last_message_sender_id":          last.SenderID,
		receiverSide.Column("unread_count"): 1,
	})

	log.Printf("✅ Created demo conversation between %s and %s", first.Name, second.Name)
}
