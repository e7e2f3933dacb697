package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/8Tech-Consults/skills-chat/internal/apperr"
	"github.com/8Tech-Consults/skills-chat/internal/model"
	"github.com/8Tech-Consults/skills-chat/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatHandler handles chat-related HTTP endpoints
type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// respondError maps a kind-tagged error to its HTTP status with the
// uniform error envelope.
func respondError(c *gin.Context, err error) {
	var tagged *apperr.Error
	if errors.As(err, &tagged) {
		c.JSON(apperr.HTTPStatus(err), model.ErrorResponse{
			Error:   string(tagged.Kind),
			Message: tagged.Message,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "internal", Message: "something went wrong"})
}

func actorID(c *gin.Context) uuid.UUID {
	return c.MustGet("user_id").(uuid.UUID)
}

// ListConversations godoc
// @Summary List the current user's conversations
// @Description Newest activity first. Conversations the user archived are excluded unless include_archived is set.
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param include_archived query bool false "Include conversations the user archived"
// @Success 200 {array} model.ConversationSummary
// @Router /conversations [get]
func (h *ChatHandler) ListConversations(c *gin.Context) {
	includeArchived, _ := strconv.ParseBool(c.DefaultQuery("include_archived", "false"))

	conversations, err := h.chatService.ListConversations(actorID(c), includeArchived)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// GetOrCreateConversation godoc
// @Summary Get or create a conversation with a partner
// @Description Resolves the (user, partner) pair, optionally scoped to a service listing, to exactly one conversation, creating it on first contact.
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.StartConversationRequest true "Partner and optional listing scope"
// @Success 200 {object} model.ConversationSummary
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /conversations [post]
func (h *ChatHandler) GetOrCreateConversation(c *gin.Context) {
	var req model.StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid_operation", Message: err.Error()})
		return
	}

	summary, err := h.chatService.GetOrCreateConversation(actorID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListMessages godoc
// @Summary List messages of a conversation
// @Description Cursor-paginated, newest first. Fetching marks everything the user had not read as read.
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param key path string true "Conversation key"
// @Param before query string false "Cursor: message id to page before"
// @Param limit query int false "Page size (default 50, max 100)"
// @Success 200 {object} model.MessagePage
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /conversations/{key}/messages [get]
func (h *ChatHandler) ListMessages(c *gin.Context) {
	var req model.MessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid_operation", Message: err.Error()})
		return
	}

	page, err := h.chatService.ListMessages(actorID(c), c.Param("key"), req.Before, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// SendMessage godoc
// @Summary Send a message
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param key path string true "Conversation key"
// @Param body body model.SendMessageRequest true "Message content, kind-appropriate"
// @Success 201 {object} model.Message
// @Failure 400 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /conversations/{key}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid_content", Message: err.Error()})
		return
	}

	msg, err := h.chatService.SendMessage(actorID(c), c.Param("key"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// MarkDelivered godoc
// @Summary Acknowledge receipt of pending messages
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param key path string true "Conversation key"
// @Success 200 {object} model.SuccessResponse
// @Router /conversations/{key}/delivered [post]
func (h *ChatHandler) MarkDelivered(c *gin.Context) {
	if err := h.chatService.MarkDelivered(actorID(c), c.Param("key")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Messages marked as delivered"})
}

// MarkRead godoc
// @Summary Mark all messages in a conversation as read
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param key path string true "Conversation key"
// @Success 200 {object} model.SuccessResponse
// @Router /conversations/{key}/read [post]
func (h *ChatHandler) MarkRead(c *gin.Context) {
	if err := h.chatService.MarkRead(actorID(c), c.Param("key")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Messages marked as read"})
}

// EditMessage godoc
// @Summary Edit the body of a sent text message
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message id"
// @Param body body model.EditMessageRequest true "New body"
// @Success 200 {object} model.Message
// @Failure 400 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /messages/{id} [patch]
func (h *ChatHandler) EditMessage(c *gin.Context) {
	var req model.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid_content", Message: err.Error()})
		return
	}

	msg, err := h.chatService.EditMessage(actorID(c), c.Param("id"), req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// DeleteMessage godoc
// @Summary Delete a sent message
// @Description Soft delete: content is hidden, the row keeps its position.
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message id"
// @Success 200 {object} model.Message
// @Failure 403 {object} model.ErrorResponse
// @Router /messages/{id} [delete]
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	msg, err := h.chatService.DeleteMessage(actorID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// React godoc
// @Summary Set the user's emoji reaction on a message
// @Description One reaction per user per message; a new emoji replaces the previous one.
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message id"
// @Param body body model.ReactRequest true "Emoji"
// @Success 200 {object} model.Message
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /messages/{id}/reaction [put]
func (h *ChatHandler) React(c *gin.Context) {
	var req model.ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid_content", Message: err.Error()})
		return
	}

	msg, err := h.chatService.React(actorID(c), c.Param("id"), req.Emoji)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// Unreact godoc
// @Summary Remove the user's reaction from a message
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message id"
// @Success 200 {object} model.Message
// @Router /messages/{id}/reaction [delete]
func (h *ChatHandler) Unreact(c *gin.Context) {
	msg, err := h.chatService.Unreact(actorID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// ToggleArchive godoc
// @Summary Toggle the user's own archive flag for a conversation
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param key path string true "Conversation key"
// @Success 200 {object} model.ToggleResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /conversations/{key}/archive [post]
func (h *ChatHandler) ToggleArchive(c *gin.Context) {
	archived, err := h.chatService.ToggleArchive(actorID(c), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ToggleResponse{Enabled: archived})
}

// ToggleMute godoc
// @Summary Toggle the user's own mute flag for a conversation
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param key path string true "Conversation key"
// @Success 200 {object} model.ToggleResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /conversations/{key}/mute [post]
func (h *ChatHandler) ToggleMute(c *gin.Context) {
	muted, err := h.chatService.ToggleMute(actorID(c), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ToggleResponse{Enabled: muted})
}

// SearchMessages godoc
// @Summary Search message bodies within one conversation
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param key path string true "Conversation key"
// @Param q query string true "Search query (min length 2)"
// @Success 200 {array} model.Message
// @Failure 400 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /conversations/{key}/search [get]
func (h *ChatHandler) SearchMessages(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid_operation", Message: "search query must be at least 2 characters"})
		return
	}

	messages, err := h.chatService.SearchMessages(actorID(c), c.Param("key"), req.Query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}
