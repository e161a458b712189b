package model

import "time"

// Notification 工作流事件触发的站内通知，尽力投递
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Message   string    `gorm:"type:varchar(255);not null" json:"message"`
	Link      string    `gorm:"type:varchar(255)" json:"link"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
