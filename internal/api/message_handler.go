package api

import (
	"go-study-group/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// 向群组发送消息（仅存储，实时推送由外部协作方负责）
func (h *MessageHandler) SendGroupMessage(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := getGroupIDFromParam(c)
	if !ok {
		return
	}

	var req service.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	message, err := h.messageService.SendGroupMessage(groupID, userID, req)
	if err != nil {
		writeError(c, err, "Failed to send message")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// 拉取群组聊天记录
func (h *MessageHandler) GetGroupMessages(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := getGroupIDFromParam(c)
	if !ok {
		return
	}
	limit, offset := getPaginationParams(c)

	messages, err := h.messageService.GetGroupMessages(groupID, userID, limit, offset)
	if err != nil {
		writeError(c, err, "Failed to retrieve group messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
