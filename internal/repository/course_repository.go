package repository

import (
	"errors"
	"go-study-group/internal/model"
	"go-study-group/pkg/db"

	"gorm.io/gorm"
)

// CourseRepository 课程目录的数据访问
type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository() *CourseRepository {
	return &CourseRepository{db: db.DB}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.db.Create(course).Error
}

// 通过ID查找课程
func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	if err := r.db.First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 课程不存在
		}
		return nil, err
	}
	return &course, nil
}

// 列出全部课程
func (r *CourseRepository) FindAll() ([]model.Course, error) {
	var courses []model.Course
	err := r.db.Order("code ASC").Find(&courses).Error
	return courses, err
}
