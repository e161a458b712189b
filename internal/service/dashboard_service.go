package service

import (
	"fmt"
	"sort"

	"go-study-group/internal/model"
	"go-study-group/internal/repository"
)

// DashboardService 用户主页：已加入的群组、按共同课程推荐的同伴、
// 选课数，以及支撑这些的选课管理。
type DashboardService struct {
	enrollmentRepo *repository.EnrollmentRepository
	courseRepo     *repository.CourseRepository
	groupService   *GroupService
}

func NewDashboardService(
	enrollmentRepo *repository.EnrollmentRepository,
	courseRepo *repository.CourseRepository,
	groupService *GroupService,
) *DashboardService {
	return &DashboardService{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		groupService:   groupService,
	}
}

// SuggestedPeerDTO 按共同课程数降序推荐的同伴
type SuggestedPeerDTO struct {
	User              UserSummary `json:"user"`
	CommonCourseCount int         `json:"common_course_count"`
	CommonCourses     []string    `json:"common_courses"`
}

type DashboardDTO struct {
	JoinedGroups        []GroupDTO         `json:"joined_groups"`
	SuggestedPeers      []SuggestedPeerDTO `json:"suggested_peers"`
	EnrolledCourseCount int                `json:"enrolled_course_count"`
}

// 选课
func (s *DashboardService) EnrollInCourse(userID, courseID uint) error {
	course, err := s.courseRepo.FindByID(courseID)
	if err != nil {
		return fmt.Errorf("failed to look up course: %w", err)
	}
	if course == nil {
		return ErrCourseNotFound
	}

	existing, err := s.enrollmentRepo.Find(userID, courseID)
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if existing != nil {
		return ErrAlreadyEnrolled
	}

	if err := s.enrollmentRepo.Create(&model.Enrollment{UserID: userID, CourseID: courseID}); err != nil {
		return fmt.Errorf("failed to enroll in course: %w", err)
	}
	return nil
}

// 退课
func (s *DashboardService) UnenrollFromCourse(userID, courseID uint) error {
	existing, err := s.enrollmentRepo.Find(userID, courseID)
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if existing == nil {
		return ErrNotEnrolled
	}

	if err := s.enrollmentRepo.Delete(userID, courseID); err != nil {
		return fmt.Errorf("failed to unenroll from course: %w", err)
	}
	return nil
}

// 用户选的全部课程
func (s *DashboardService) GetEnrolledCourses(userID uint) ([]model.Course, error) {
	enrollments, err := s.enrollmentRepo.FindUserEnrollments(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	courses := make([]model.Course, 0, len(enrollments))
	for _, e := range enrollments {
		courses = append(courses, e.Course)
	}
	return courses, nil
}

// 组装用户主页数据
func (s *DashboardService) GetDashboard(userID uint) (*DashboardDTO, error) {
	joined, err := s.groupService.GetUserGroups(userID)
	if err != nil {
		return nil, err
	}

	enrollments, err := s.enrollmentRepo.FindUserEnrollments(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	peers, err := s.suggestPeers(userID, enrollments)
	if err != nil {
		return nil, err
	}

	return &DashboardDTO{
		JoinedGroups:        joined,
		SuggestedPeers:      peers,
		EnrolledCourseCount: len(enrollments),
	}, nil
}

// 同伴推荐：选了共同课程的其他用户，按共同课程数降序，
// 并列时按用户ID升序保证输出确定
func (s *DashboardService) suggestPeers(userID uint, enrollments []model.Enrollment) ([]SuggestedPeerDTO, error) {
	if len(enrollments) == 0 {
		return []SuggestedPeerDTO{}, nil // 没选课就没有推荐
	}

	courseIDs := make([]uint, 0, len(enrollments))
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
	}

	peerEnrollments, err := s.enrollmentRepo.FindPeerEnrollments(courseIDs, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find peer enrollments: %w", err)
	}

	type peerAgg struct {
		user    UserSummary
		courses []string
	}
	byUser := make(map[uint]*peerAgg)
	for _, e := range peerEnrollments {
		agg, ok := byUser[e.UserID]
		if !ok {
			agg = &peerAgg{user: userSummary(&e.User)}
			byUser[e.UserID] = agg
		}
		agg.courses = append(agg.courses, e.Course.Code)
	}

	peers := make([]SuggestedPeerDTO, 0, len(byUser))
	for _, agg := range byUser {
		sort.Strings(agg.courses)
		peers = append(peers, SuggestedPeerDTO{
			User:              agg.user,
			CommonCourseCount: len(agg.courses),
			CommonCourses:     agg.courses,
		})
	}
	sort.Slice(peers, func(i, j int) bool {
		if peers[i].CommonCourseCount != peers[j].CommonCourseCount {
			return peers[i].CommonCourseCount > peers[j].CommonCourseCount
		}
		return peers[i].User.ID < peers[j].User.ID
	})
	return peers, nil
}
