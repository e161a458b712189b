package service

import (
	"fmt"
	"go-study-group/internal/model"
	"go-study-group/internal/repository"
	"go-study-group/pkg/logger"

	"go.uber.org/zap"
)

// NotificationService 站内通知。工作流事件通过 NotifyAsync 尽力投递，
// 投递失败只记日志，绝不影响触发它的事务。
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
}

func NewNotificationService(notificationRepo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// 同步写入一条通知
func (s *NotificationService) Notify(userID uint, message, link string) error {
	notification := &model.Notification{
		UserID:  userID,
		Message: message,
		Link:    link,
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// 异步写入，失败吞掉只记日志（fire-and-forget）
func (s *NotificationService) NotifyAsync(userID uint, message, link string) {
	go func() {
		if err := s.Notify(userID, message, link); err != nil {
			logger.L.Warn("notification delivery failed",
				zap.Uint("userID", userID),
				zap.String("message", message),
				zap.Error(err))
		}
	}()
}

// 用户的通知列表，按时间倒序
func (s *NotificationService) GetUserNotifications(userID uint, limit, offset int) ([]model.Notification, error) {
	notifications, err := s.notificationRepo.FindByUserID(userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// 未读通知数
func (s *NotificationService) GetUnreadCount(userID uint) (int64, error) {
	count, err := s.notificationRepo.CountUnread(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// 标记已读；只能操作自己的通知
func (s *NotificationService) MarkRead(notificationID, userID uint) error {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		return fmt.Errorf("failed to load notification: %w", err)
	}
	if notification == nil {
		return ErrNotificationNotFound
	}
	if notification.UserID != userID {
		return ErrNotAuthorized
	}
	if err := s.notificationRepo.MarkRead(notificationID); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
