package api

import (
	"go-study-group/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
}

func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// 用户主页：已加入的群组、同伴推荐、选课数
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	dashboard, err := h.dashboardService.GetDashboard(userID)
	if err != nil {
		writeError(c, err, "Failed to load dashboard")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func (h *DashboardHandler) EnrollInCourse(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	courseID, ok := getCourseIDFromParam(c)
	if !ok {
		return
	}

	if err := h.dashboardService.EnrollInCourse(userID, courseID); err != nil {
		writeError(c, err, "Failed to enroll in course")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Enrolled in course successfully"})
}

func (h *DashboardHandler) UnenrollFromCourse(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	courseID, ok := getCourseIDFromParam(c)
	if !ok {
		return
	}

	if err := h.dashboardService.UnenrollFromCourse(userID, courseID); err != nil {
		writeError(c, err, "Failed to unenroll from course")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unenrolled from course successfully"})
}

func (h *DashboardHandler) GetEnrolledCourses(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	courses, err := h.dashboardService.GetEnrolledCourses(userID)
	if err != nil {
		writeError(c, err, "Failed to retrieve enrolled courses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func getCourseIDFromParam(c *gin.Context) (uint, bool) {
	courseIDStr := c.Param("course_id")
	courseID64, err := strconv.ParseUint(courseIDStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course_id parameter"})
		return 0, false
	}
	return uint(courseID64), true
}
