package model

import "time"

// 加群申请状态；申请一旦被处理即为终态
const (
	JoinRequestPending  = "pending"
	JoinRequestApproved = "approved"
	JoinRequestDenied   = "denied"
)

// JoinRequest 私有且无通行码群组的加群申请。
// 不变式：同一 (群组, 用户) 至多存在一条 pending 申请，
// 由工作流在同一事务内先查后插保证。
type JoinRequest struct {
	ID        uint   `gorm:"primaryKey"`
	GroupID   uint   `gorm:"not null;index:idx_join_request_group_user"`
	UserID    uint   `gorm:"not null;index:idx_join_request_group_user"`
	Status    string `gorm:"type:varchar(10);not null;default:'pending';index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Group Group `gorm:"foreignKey:GroupID"`
	User  User  `gorm:"foreignKey:UserID"`
}
