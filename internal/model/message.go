package model

import (
	"time"

	"gorm.io/gorm"
)

// Message 群组聊天消息存储（实时转发不在本服务内）
type Message struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UUID      string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"` // 客户端幂等ID
	Content   string         `gorm:"type:text;not null" json:"content"`
	SenderID  uint           `gorm:"not null;index" json:"sender_id"`
	GroupID   uint           `gorm:"not null;index" json:"group_id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Sender User  `gorm:"foreignKey:SenderID" json:"sender"`
	Group  Group `gorm:"foreignKey:GroupID" json:"-"`
}
