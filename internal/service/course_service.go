package service

import (
	"fmt"
	"go-study-group/internal/model"
	"go-study-group/internal/repository"
)

// CourseService 课程目录，供创建群组时解析课程引用
type CourseService struct {
	courseRepo *repository.CourseRepository
}

func NewCourseService(courseRepo *repository.CourseRepository) *CourseService {
	return &CourseService{courseRepo: courseRepo}
}

// 课程列表
func (s *CourseService) GetAllCourses() ([]model.Course, error) {
	courses, err := s.courseRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// 按ID解析课程
func (s *CourseService) GetCourse(courseID uint) (*model.Course, error) {
	course, err := s.courseRepo.FindByID(courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	return course, nil
}
