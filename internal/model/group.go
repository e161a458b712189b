package model

import (
	"time"

	"gorm.io/gorm"
)

// 群组隐私模式
const (
	GroupPrivacyPublic  = "public"
	GroupPrivacyPrivate = "private"
)

// (所有者, 名称) 的唯一性由工作流引擎在事务内先查后插保证，
// 不用数据库唯一索引：软删除的群组行会占住索引，
// 导致删除后同名重建永远失败。
type Group struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:text"`
	Privacy     string `gorm:"type:varchar(10);not null;default:'public'"`
	// 仅对带通行码的私有群组存在；私有且无通行码的群组走加群申请流程
	Passkey     string `gorm:"type:varchar(64)"`
	MemberLimit int    `gorm:"not null"`
	CourseID    uint   `gorm:"not null;index"`
	OwnerID     uint   `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`

	Course  Course        `gorm:"foreignKey:CourseID"`
	Owner   User          `gorm:"foreignKey:OwnerID"`
	Members []GroupMember `gorm:"foreignKey:GroupID"`
}

// HasPasskey 判断该群组是否使用通行码加群
func (g *Group) HasPasskey() bool {
	return g.Passkey != ""
}
