package model

import "time"

// 群组成员角色
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// GroupMember 成员表使用 (group_id, user_id) 复合主键，
// 同一对 (群组, 用户) 不可能有两条存活记录。
// 注意：成员记录是硬删除，软删除会让退出后再次加群撞主键。
type GroupMember struct {
	GroupID   uint   `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint   `gorm:"primaryKey;autoIncrement:false"`
	Role      string `gorm:"type:varchar(20);not null;default:'member'"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Group Group `gorm:"foreignKey:GroupID"`
	User  User  `gorm:"foreignKey:UserID"`
}
