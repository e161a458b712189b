package repository

import (
	"errors"
	"go-study-group/internal/model"
	"go-study-group/pkg/db"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository() *EnrollmentRepository {
	return &EnrollmentRepository{db: db.DB}
}

// 选课；(user_id, course_id) 复合主键保证不会重复插入
func (r *EnrollmentRepository) Create(enrollment *model.Enrollment) error {
	return r.db.Create(enrollment).Error
}

// 退课（硬删除，允许之后重新选课）
func (r *EnrollmentRepository) Delete(userID, courseID uint) error {
	return r.db.Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&model.Enrollment{}).Error
}

// 查找特定的选课记录
func (r *EnrollmentRepository) Find(userID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 未选该课程
		}
		return nil, err
	}
	return &enrollment, nil
}

// 用户选的全部课程，附带课程信息，按选课时间升序
func (r *EnrollmentRepository) FindUserEnrollments(userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.Where("user_id = ?", userID).
		Preload("Course").
		Order("created_at ASC").
		Find(&enrollments).Error
	return enrollments, err
}

// 统计用户选课数
func (r *EnrollmentRepository) CountUserCourses(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Enrollment{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// 其他用户在给定课程集合上的选课记录（同伴推荐的原料），
// 附带用户与课程信息
func (r *EnrollmentRepository) FindPeerEnrollments(courseIDs []uint, excludeUserID uint) ([]model.Enrollment, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var enrollments []model.Enrollment
	err := r.db.Where("course_id IN ? AND user_id <> ?", courseIDs, excludeUserID).
		Preload("User").
		Preload("Course").
		Find(&enrollments).Error
	return enrollments, err
}
