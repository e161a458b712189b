package repository

import (
	"errors"
	"go-study-group/internal/model"
	"go-study-group/pkg/db"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{db: db.DB}
}

// WithTx 返回一个绑定到给定事务的仓库实例
func (r *MessageRepository) WithTx(tx *gorm.DB) *MessageRepository {
	return &MessageRepository{db: tx}
}

// 保存新消息
func (r *MessageRepository) Create(message *model.Message) error {
	return r.db.Create(message).Error
}

// 通过客户端UUID查找消息（幂等投递检查）
func (r *MessageRepository) FindByUUID(uuid string) (*model.Message, error) {
	var message model.Message
	if err := r.db.Where("uuid = ?", uuid).First(&message).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

// 获取群组的聊天记录
func (r *MessageRepository) FindGroupMessages(groupID uint, limit, offset int) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.Where("group_id = ?", groupID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Sender"). // 预加载发送者信息
		Find(&messages).Error
	return messages, err
}

// 删除群组的全部消息（群组删除时级联调用）
func (r *MessageRepository) DeleteGroupMessages(groupID uint) error {
	return r.db.Where("group_id = ?", groupID).Delete(&model.Message{}).Error
}
