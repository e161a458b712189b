package api

import (
	"errors"
	"go-study-group/internal/service"
	"go-study-group/pkg/logger"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type GroupHandler struct {
	groupService *service.GroupService
}

func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
	}
}

func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	var req service.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.L.Warn("Failed to bind CreateGroup request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	group, err := h.groupService.CreateGroup(userID, req)
	if err != nil {
		writeError(c, err, "Failed to create group")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Group created successfully",
		"group":   group,
	})
}

func (h *GroupHandler) GetAllGroups(c *gin.Context) {
	groups, err := h.groupService.GetAllGroups()
	if err != nil {
		writeError(c, err, "Failed to retrieve groups")
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *GroupHandler) GetUserGroups(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	groups, err := h.groupService.GetUserGroups(userID)
	if err != nil {
		writeError(c, err, "Failed to retrieve groups")
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *GroupHandler) GetGroupDetails(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := getGroupIDFromParam(c)
	if !ok {
		return
	}

	group, err := h.groupService.GetGroupDetails(groupID, userID)
	if err != nil {
		writeError(c, err, "Failed to retrieve group details")
		return
	}
	c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) GetGroupMembers(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := getGroupIDFromParam(c)
	if !ok {
		return
	}

	members, err := h.groupService.GetGroupMembers(groupID, userID)
	if err != nil {
		writeError(c, err, "Failed to retrieve group members")
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := getGroupIDFromParam(c)
	if !ok {
		return
	}

	var req service.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	group, err := h.groupService.UpdateGroup(groupID, userID, req)
	if err != nil {
		writeError(c, err, "Failed to update group")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Group updated successfully",
		"group":   group,
	})
}

type joinGroupRequest struct {
	Passkey string `json:"passkey"`
}

func (h *GroupHandler) JoinGroup(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := getGroupIDFromParam(c)
	if !ok {
		return
	}

	// 请求体可省略（公开群组无需通行码）
	var req joinGroupRequest
	_ = c.ShouldBindJSON(&req)

	outcome, err := h.groupService.JoinGroup(groupID, userID, req.Passkey)
	if err != nil {
		writeError(c, err, "Failed to join group")
		return
	}

	message := "Successfully joined group."
	if outcome == service.JoinOutcomeRequested {
		message = "Your request to join the group has been sent."
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "outcome": outcome})
}

func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := getGroupIDFromParam(c)
	if !ok {
		return
	}

	result, err := h.groupService.LeaveGroup(groupID, userID)
	if err != nil {
		writeError(c, err, "Failed to leave group")
		return
	}

	message := "You have left the group successfully."
	if result.GroupDeleted {
		message = "You have left the group; as the last member, the group was deleted."
	} else if result.NewOwner != nil {
		message = "You have left the group; ownership was transferred to " + result.NewOwner.Username + "."
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "result": result})
}

func (h *GroupHandler) RemoveAllMembers(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := getGroupIDFromParam(c)
	if !ok {
		return
	}

	if err := h.groupService.RemoveAllMembers(groupID, userID); err != nil {
		writeError(c, err, "Failed to remove members")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All members removed from group successfully."})
}

func (h *GroupHandler) ListJoinRequests(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := getGroupIDFromParam(c)
	if !ok {
		return
	}

	requests, err := h.groupService.ListPendingJoinRequests(groupID, userID)
	if err != nil {
		writeError(c, err, "Failed to retrieve join requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

type resolveJoinRequest struct {
	Decision string `json:"decision" binding:"required"`
}

func (h *GroupHandler) ResolveJoinRequest(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	requestIDStr := c.Param("request_id")
	requestID64, err := strconv.ParseUint(requestIDStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request_id parameter"})
		return
	}

	var req resolveJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: decision is required"})
		return
	}

	if err := h.groupService.ResolveJoinRequest(uint(requestID64), req.Decision, userID); err != nil {
		writeError(c, err, "Failed to resolve join request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request handled successfully."})
}

// 将类型化的业务错误映射为HTTP状态码；
// 其余错误视为基础设施故障，返回500且不泄露内部细节
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrGroupNotFound),
		errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrRequestAlreadyPending),
		errors.Is(err, service.ErrGroupNameTaken),
		errors.Is(err, service.ErrAlreadyEnrolled),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrGroupFull),
		errors.Is(err, service.ErrInvalidPasskey),
		errors.Is(err, service.ErrNotAMember),
		errors.Is(err, service.ErrRequestResolved),
		errors.Is(err, service.ErrInvalidMemberLimit),
		errors.Is(err, service.ErrInvalidDecision),
		errors.Is(err, service.ErrNotEnrolled):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.L.Error("unexpected error handling request",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	userIDValue, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, false
	}
	userID, ok := userIDValue.(uint)
	if !ok {
		logger.L.Error("Invalid userID type in context", zap.Any("userIDValue", userIDValue))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID in context"})
		return 0, false
	}
	return userID, true
}

func getGroupIDFromParam(c *gin.Context) (uint, bool) {
	groupIDStr := c.Param("group_id")
	groupID64, err := strconv.ParseUint(groupIDStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group_id parameter"})
		return 0, false
	}
	return uint(groupID64), true
}

func getPaginationParams(c *gin.Context) (limit, offset int) {
	var err error
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
