package service

import (
	"fmt"
	"go-study-group/internal/model"
	"go-study-group/internal/repository"

	"github.com/google/uuid"
)

// MessageService 群组消息存储。只做持久化与读取，
// 实时转发由外部协作方负责。
type MessageService struct {
	messageRepo *repository.MessageRepository
	memberRepo  *repository.GroupMemberRepository
	groupRepo   *repository.GroupRepository
}

func NewMessageService(
	messageRepo *repository.MessageRepository,
	memberRepo *repository.GroupMemberRepository,
	groupRepo *repository.GroupRepository,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		memberRepo:  memberRepo,
		groupRepo:   groupRepo,
	}
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
	// 客户端幂等ID；为空时由服务端生成
	UUID string `json:"uuid"`
}

// 向群组追加一条消息；仅成员可发
func (s *MessageService) SendGroupMessage(groupID, senderID uint, req SendMessageRequest) (*model.Message, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}

	member, err := s.memberRepo.FindMember(groupID, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if member == nil {
		return nil, ErrNotAMember
	}

	clientID := req.UUID
	if clientID == "" {
		clientID = uuid.NewString()
	} else {
		// 同一客户端ID重复投递时返回已有消息
		existing, err := s.messageRepo.FindByUUID(clientID)
		if err != nil {
			return nil, fmt.Errorf("failed to check message uuid: %w", err)
		}
		if existing != nil {
			return existing, nil
		}
	}

	message := &model.Message{
		UUID:     clientID,
		Content:  req.Content,
		SenderID: senderID,
		GroupID:  groupID,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	return message, nil
}

// 群组聊天记录；仅成员可读
func (s *MessageService) GetGroupMessages(groupID, requesterID uint, limit, offset int) ([]model.Message, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}

	member, err := s.memberRepo.FindMember(groupID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if member == nil {
		return nil, ErrNotAMember
	}

	messages, err := s.messageRepo.FindGroupMessages(groupID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve group messages: %w", err)
	}
	return messages, nil
}
