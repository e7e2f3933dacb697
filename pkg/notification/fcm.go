package notification

import (
	"context"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/8Tech-Consults/skills-chat/internal/repository"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// NotificationService sends FCM pushes for new messages. The chat calls it
// only when the recipient has not muted the conversation.
type NotificationService struct {
	client   *messaging.Client
	userRepo *repository.UserRepository
}

// NewNotificationService creates a new FCM notification service. A missing
// or broken Firebase setup disables pushes instead of blocking startup.
func NewNotificationService(credentialsFile string, userRepo *repository.UserRepository) (*NotificationService, error) {
	if credentialsFile == "" {
		log.Println("⚠️  Firebase credentials not provided, push notifications disabled")
		return nil, nil
	}

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		log.Printf("⚠️  Failed to initialize Firebase app: %v (push notifications disabled)", err)
		return nil, nil
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("⚠️  Failed to get messaging client: %v", err)
		return nil, nil
	}

	log.Println("✅ Firebase FCM initialized")
	return &NotificationService{
		client:   client,
		userRepo: userRepo,
	}, nil
}

// NotifyNewMessage pushes a new-message notification to all of the
// receiver's devices. Best-effort: failures are logged, never returned to
// the send path.
func (s *NotificationService) NotifyNewMessage(ctx context.Context, receiverID uuid.UUID, senderName, preview, conversationKey string) {
	if s == nil || s.client == nil {
		return
	}

	tokens, err := s.userRepo.GetDeviceTokens(receiverID)
	if err != nil {
		log.Printf("⚠️  Could not load device tokens for %s: %v", receiverID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	if preview == "" {
		preview = "Sent an attachment"
	}
	if senderName == "" {
		senderName = "New message"
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: senderName,
			Body:  preview,
		},
		Data: map[string]string{
			"type":             "new_message",
			"conversation_key": conversationKey,
			"sender_name":      senderName,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	br, err := s.client.SendMulticast(ctx, message)
	if err != nil {
		log.Printf("⚠️  Error sending multicast message: %v", err)
		return
	}

	if br.FailureCount > 0 {
		for idx, resp := range br.Responses {
			if !resp.Success {
				log.Printf("⚠️  FCM failure for token %s: %v", tokens[idx], resp.Error)
			}
		}
	}
}
