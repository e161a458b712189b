package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"type:varchar(30);not null;uniqueIndex" json:"username"`
	Email     string `gorm:"type:varchar(100);not null;uniqueIndex" json:"email"`
	Password  string `gorm:"type:varchar(100);not null" json:"-"`
	Avatar    string `gorm:"type:varchar(255)" json:"avatar"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
