package api

import (
	"go-study-group/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	courseService *service.CourseService
}

func NewCourseHandler(courseService *service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

func (h *CourseHandler) GetAllCourses(c *gin.Context) {
	courses, err := h.courseService.GetAllCourses()
	if err != nil {
		writeError(c, err, "Failed to retrieve courses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (h *CourseHandler) GetCourse(c *gin.Context) {
	courseIDStr := c.Param("course_id")
	courseID64, err := strconv.ParseUint(courseIDStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course_id parameter"})
		return
	}

	course, err := h.courseService.GetCourse(uint(courseID64))
	if err != nil {
		writeError(c, err, "Failed to retrieve course")
		return
	}
	c.JSON(http.StatusOK, course)
}
