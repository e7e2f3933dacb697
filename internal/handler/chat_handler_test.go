package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/8Tech-Consults/skills-chat/internal/model"
	"github.com/8Tech-Consults/skills-chat/internal/repository"
	"github.com/8Tech-Consults/skills-chat/internal/service"
)

// buildTestRouter wires the chat routes over an sqlite database with a
// stub auth middleware that injects the given user.
func buildTestRouter(t *testing.T, userID uuid.UUID) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "chat.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Device{}, &model.Conversation{}, &model.Message{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	chatService := service.NewChatService(
		db,
		repository.NewConversationRepository(db),
		repository.NewMessageRepository(db),
		repository.NewUserRepository(db),
		nil,
		nil,
		0,
	)
	chatHandler := NewChatHandler(chatService)

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	api.GET("/conversations", chatHandler.ListConversations)
	api.POST("/conversations", chatHandler.GetOrCreateConversation)
	api.GET("/conversations/:key/messages", chatHandler.ListMessages)
	api.POST("/conversations/:key/messages", chatHandler.SendMessage)
	api.GET("/conversations/:key/search", chatHandler.SearchMessages)
	return router, db
}

func TestGetOrCreateConversationEndpoint(t *testing.T) {
	me := uuid.New()
	router, db := buildTestRouter(t, me)

	partner := model.User{ID: uuid.New(), Name: "Partner", Email: "partner@skills.ug"}
	if err := db.Create(&model.User{ID: me, Name: "Me", Email: "me@skills.ug"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Create(&partner).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	body := `{"partner_id":"` + partner.ID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}
	var summary model.ConversationSummary
	if err := json.Unmarshal(resp.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Key == "" || summary.Partner.ID != partner.ID {
		t.Errorf("summary = %+v", summary)
	}
}

func TestErrorEnvelope(t *testing.T) {
	me := uuid.New()
	router, db := buildTestRouter(t, me)
	if err := db.Create(&model.User{ID: me, Name: "Me", Email: "me@skills.ug"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "self conversation",
			method:     http.MethodPost,
			target:     "/api/v1/conversations",
			body:       `{"partner_id":"` + me.String() + `"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_operation",
		},
		{
			name:       "unknown conversation",
			method:     http.MethodGet,
			target:     "/api/v1/conversations/no-such-key/messages",
			wantStatus: http.StatusNotFound,
			wantError:  "not_found",
		},
		{
			name:       "short search query",
			method:     http.MethodGet,
			target:     "/api/v1/conversations/whatever/search?q=x",
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_operation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reqBody *strings.Reader
			if tt.body != "" {
				reqBody = strings.NewReader(tt.body)
			} else {
				reqBody = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, tt.target, reqBody)
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", resp.Code, tt.wantStatus, resp.Body.String())
			}
			var envelope model.ErrorResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if envelope.Error != tt.wantError {
				t.Errorf("error tag = %q, want %q", envelope.Error, tt.wantError)
			}
			if envelope.Message == "" {
				t.Error("error envelope missing message")
			}
		})
	}
}

func TestSendAndListEndpoint(t *testing.T) {
	me := uuid.New()
	router, db := buildTestRouter(t, me)

	partner := model.User{ID: uuid.New(), Name: "Partner", Email: "partner@skills.ug"}
	if err := db.Create(&model.User{ID: me, Name: "Me", Email: "me@skills.ug"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Create(&partner).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Create the conversation.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations",
		strings.NewReader(`{"partner_id":"`+partner.ID.String()+`"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("create status = %d", resp.Code)
	}
	var summary model.ConversationSummary
	if err := json.Unmarshal(resp.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Send a message.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/conversations/"+summary.Key+"/messages",
		strings.NewReader(`{"body":"hello over http"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("send status = %d, body %s", resp.Code, resp.Body.String())
	}

	// List it back.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/conversations/"+summary.Key+"/messages", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("list status = %d", resp.Code)
	}
	var page model.MessagePage
	if err := json.Unmarshal(resp.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Messages) != 1 || page.Messages[0].Body != "hello over http" {
		t.Errorf("page = %+v", page)
	}
}
