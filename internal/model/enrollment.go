package model

import "time"

// Enrollment 用户的选课记录，驱动仪表盘的同伴推荐。
// (user_id, course_id) 复合主键，硬删除（退课后可重新选课）。
type Enrollment struct {
	UserID    uint `gorm:"primaryKey;autoIncrement:false"`
	CourseID  uint `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time

	User   User   `gorm:"foreignKey:UserID"`
	Course Course `gorm:"foreignKey:CourseID"`
}
