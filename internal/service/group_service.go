package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go-study-group/internal/model"
	"go-study-group/internal/repository"
	"go-study-group/pkg/db"
	"go-study-group/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 加群申请的处理决定
const (
	DecisionApprove = "approve"
	DecisionDeny    = "deny"
)

// JoinGroup 的两种成功出口
const (
	JoinOutcomeJoined    = "joined"    // 直接入群
	JoinOutcomeRequested = "requested" // 创建了加群申请
)

// GroupService 群组工作流引擎：群组生命周期、成员与加群申请的
// 全部业务规则都在这里决策。所有写操作在单个事务内执行，
// 同一群组的写操作还会通过 per-group 互斥锁串行化，
// 保证先查后改的窗口内不会被并发加群/退群穿插。
type GroupService struct {
	db          *gorm.DB
	groupRepo   *repository.GroupRepository
	memberRepo  *repository.GroupMemberRepository
	requestRepo *repository.JoinRequestRepository
	courseRepo  *repository.CourseRepository
	userRepo    *repository.UserRepository
	messageRepo *repository.MessageRepository
	notifier    *NotificationService

	groupLocks sync.Map // groupID -> *sync.Mutex
	ownerLocks sync.Map // ownerID -> *sync.Mutex，串行化同一所有者的建群
}

func NewGroupService(
	groupRepo *repository.GroupRepository,
	memberRepo *repository.GroupMemberRepository,
	requestRepo *repository.JoinRequestRepository,
	courseRepo *repository.CourseRepository,
	userRepo *repository.UserRepository,
	messageRepo *repository.MessageRepository,
	notifier *NotificationService,
) *GroupService {
	return &GroupService{
		db:          db.DB,
		groupRepo:   groupRepo,
		memberRepo:  memberRepo,
		requestRepo: requestRepo,
		courseRepo:  courseRepo,
		userRepo:    userRepo,
		messageRepo: messageRepo,
		notifier:    notifier,
	}
}

// 锁定群组的成员集合，返回解锁函数
func (s *GroupService) lockGroup(groupID uint) func() {
	v, _ := s.groupLocks.LoadOrStore(groupID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// 锁定所有者的群组命名空间，返回解锁函数
func (s *GroupService) lockOwner(ownerID uint) func() {
	v, _ := s.ownerLocks.LoadOrStore(ownerID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description"`
	Privacy     string `json:"privacy" binding:"required,oneof=public private"`
	Passkey     string `json:"passkey"`
	MemberLimit int    `json:"member_limit" binding:"required,min=1"`
	CourseID    uint   `json:"course_id" binding:"required"`
}

type UpdateGroupRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description"`
}

type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type CourseSummary struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type GroupDTO struct {
	ID          uint          `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Privacy     string        `json:"privacy"`
	HasPasskey  bool          `json:"has_passkey"`
	MemberLimit int           `json:"member_limit"`
	MemberCount int64         `json:"member_count"`
	Course      CourseSummary `json:"course"`
	Owner       UserSummary   `json:"owner"`
	UserRole    string        `json:"user_role,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

type GroupMemberDTO struct {
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type JoinRequestDTO struct {
	ID        uint        `json:"id"`
	User      UserSummary `json:"user"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// LeaveResult 描述退群的结果：普通退群、所有权转移或群组整体删除
type LeaveResult struct {
	GroupDeleted bool         `json:"group_deleted"`
	NewOwner     *UserSummary `json:"new_owner,omitempty"`
}

func userSummary(u *model.User) UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

func (s *GroupService) groupDTO(group *model.Group, memberCount int64, userRole string) *GroupDTO {
	return &GroupDTO{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		Privacy:     group.Privacy,
		HasPasskey:  group.HasPasskey(),
		MemberLimit: group.MemberLimit,
		MemberCount: memberCount,
		Course:      CourseSummary{ID: group.Course.ID, Code: group.Course.Code, Name: group.Course.Name},
		Owner:       userSummary(&group.Owner),
		UserRole:    userRole,
		CreatedAt:   group.CreatedAt,
	}
}

// 创建群组，创建者在同一事务内成为 owner 成员
func (s *GroupService) CreateGroup(creatorID uint, req CreateGroupRequest) (*GroupDTO, error) {
	if req.MemberLimit < 1 {
		return nil, ErrInvalidMemberLimit
	}

	course, err := s.courseRepo.FindByID(req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	group := &model.Group{
		Name:        req.Name,
		Description: req.Description,
		Privacy:     req.Privacy,
		MemberLimit: req.MemberLimit,
		CourseID:    req.CourseID,
		OwnerID:     creatorID,
	}
	// 通行码只对私有群组生效；私有且无通行码的群组走申请审批
	if req.Privacy == model.GroupPrivacyPrivate && req.Passkey != "" {
		group.Passkey = req.Passkey
	}

	// 名称查重与插入必须在同一把锁和同一事务内，
	// 否则并发同名建群的败者会落到存储层错误而不是类型化错误
	unlock := s.lockOwner(creatorID)
	defer unlock()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		groups := s.groupRepo.WithTx(tx)

		existing, err := groups.FindByOwnerAndName(creatorID, req.Name)
		if err != nil {
			return fmt.Errorf("failed to check group name: %w", err)
		}
		if existing != nil {
			return ErrGroupNameTaken
		}
		return groups.Create(group)
	})
	if err != nil {
		if errors.Is(err, ErrGroupNameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	logger.L.Info("group created",
		zap.Uint("groupID", group.ID),
		zap.Uint("ownerID", creatorID),
		zap.String("privacy", group.Privacy))

	created, err := s.groupRepo.FindByID(group.ID)
	if err != nil || created == nil {
		// 创建已提交；详情加载失败只影响返回值
		return s.groupDTO(group, 1, model.RoleOwner), nil
	}
	return s.groupDTO(created, 1, model.RoleOwner), nil
}

// 加群。策略按顺序评估：存在性 → 已是成员 → 满员 → 公开/通行码/申请。
// 返回 JoinOutcomeJoined 或 JoinOutcomeRequested。
func (s *GroupService) JoinGroup(groupID, userID uint, passkey string) (string, error) {
	unlock := s.lockGroup(groupID)
	defer unlock()

	var outcome string
	var group model.Group

	err := s.db.Transaction(func(tx *gorm.DB) error {
		groups := s.groupRepo.WithTx(tx)
		members := s.memberRepo.WithTx(tx)
		requests := s.requestRepo.WithTx(tx)

		g, err := groups.FindByID(groupID)
		if err != nil {
			return fmt.Errorf("failed to load group: %w", err)
		}
		if g == nil {
			return ErrGroupNotFound
		}
		group = *g

		member, err := members.FindMember(groupID, userID)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if member != nil {
			return ErrAlreadyMember
		}

		count, err := members.CountMembers(groupID)
		if err != nil {
			return fmt.Errorf("failed to count members: %w", err)
		}
		if count >= int64(g.MemberLimit) {
			return ErrGroupFull
		}

		if g.Privacy == model.GroupPrivacyPrivate {
			if g.HasPasskey() {
				if passkey != g.Passkey {
					return ErrInvalidPasskey
				}
				// 通行码正确，直接入群
			} else {
				// 私有且无通行码：创建加群申请，不产生成员记录
				pending, err := requests.FindPending(groupID, userID)
				if err != nil {
					return fmt.Errorf("failed to check pending request: %w", err)
				}
				if pending != nil {
					return ErrRequestAlreadyPending
				}
				if err := requests.Create(&model.JoinRequest{
					GroupID: groupID,
					UserID:  userID,
					Status:  model.JoinRequestPending,
				}); err != nil {
					return fmt.Errorf("failed to create join request: %w", err)
				}
				outcome = JoinOutcomeRequested
				return nil
			}
		}

		// 公开群组，或私有群组通行码匹配
		if err := members.AddMember(groupID, userID, model.RoleMember); err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
		outcome = JoinOutcomeJoined
		return nil
	})
	if err != nil {
		return "", err
	}

	switch outcome {
	case JoinOutcomeJoined:
		s.notifier.NotifyAsync(group.OwnerID,
			fmt.Sprintf("A new member joined your group %q.", group.Name),
			fmt.Sprintf("/groups/%d", group.ID))
	case JoinOutcomeRequested:
		s.notifier.NotifyAsync(group.OwnerID,
			fmt.Sprintf("You have a new join request for your group %q.", group.Name),
			fmt.Sprintf("/groups/%d/requests", group.ID))
	}

	logger.L.Info("join group processed",
		zap.Uint("groupID", groupID),
		zap.Uint("userID", userID),
		zap.String("outcome", outcome))
	return outcome, nil
}

// 处理加群申请。只有群主可以处理；
// 批准时重新检查成员上限，满员则失败并保持申请为 pending。
func (s *GroupService) ResolveJoinRequest(requestID uint, decision string, actorID uint) error {
	if decision != DecisionApprove && decision != DecisionDeny {
		return ErrInvalidDecision
	}

	// 先定位申请以确定要锁的群组
	probe, err := s.requestRepo.FindByID(requestID)
	if err != nil {
		return fmt.Errorf("failed to load join request: %w", err)
	}
	if probe == nil {
		return ErrRequestNotFound
	}

	unlock := s.lockGroup(probe.GroupID)
	defer unlock()

	var group model.Group
	var requesterID uint

	err = s.db.Transaction(func(tx *gorm.DB) error {
		groups := s.groupRepo.WithTx(tx)
		members := s.memberRepo.WithTx(tx)
		requests := s.requestRepo.WithTx(tx)

		// 锁内重读，申请可能已被并发处理
		request, err := requests.FindByID(requestID)
		if err != nil {
			return fmt.Errorf("failed to load join request: %w", err)
		}
		if request == nil {
			return ErrRequestNotFound
		}
		if request.Status != model.JoinRequestPending {
			return ErrRequestResolved
		}
		requesterID = request.UserID

		g, err := groups.FindByID(request.GroupID)
		if err != nil {
			return fmt.Errorf("failed to load group: %w", err)
		}
		if g == nil {
			return ErrGroupNotFound
		}
		group = *g

		ok, err := s.actorIsOwner(members, g, actorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotAuthorized
		}

		if decision == DecisionDeny {
			if err := requests.UpdateStatus(requestID, model.JoinRequestDenied); err != nil {
				return fmt.Errorf("failed to deny join request: %w", err)
			}
			return nil
		}

		// 批准：申请创建后群组可能已满员，满员时保持 pending 并报错
		count, err := members.CountMembers(g.ID)
		if err != nil {
			return fmt.Errorf("failed to count members: %w", err)
		}
		if count >= int64(g.MemberLimit) {
			return ErrGroupFull
		}
		if err := requests.UpdateStatus(requestID, model.JoinRequestApproved); err != nil {
			return fmt.Errorf("failed to approve join request: %w", err)
		}
		if err := members.AddMember(g.ID, request.UserID, model.RoleMember); err != nil {
			return fmt.Errorf("failed to add approved member: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if decision == DecisionApprove {
		s.notifier.NotifyAsync(requesterID,
			fmt.Sprintf("Your request to join %q was approved.", group.Name),
			fmt.Sprintf("/groups/%d", group.ID))
	} else {
		s.notifier.NotifyAsync(requesterID,
			fmt.Sprintf("Your request to join %q was denied.", group.Name), "")
	}

	logger.L.Info("join request resolved",
		zap.Uint("requestID", requestID),
		zap.String("decision", decision),
		zap.Uint("actorID", actorID))
	return nil
}

// 退群。普通成员直接移除；群主退出时在同一事务内完成
// 删除成员 → 重新计数 → 提拔继任者或删除群组，
// 保证不会出现零群主（尚有成员）或双群主的状态。
func (s *GroupService) LeaveGroup(groupID, userID uint) (*LeaveResult, error) {
	unlock := s.lockGroup(groupID)
	defer unlock()

	result := &LeaveResult{}
	var successorID uint
	var groupName string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		groups := s.groupRepo.WithTx(tx)
		members := s.memberRepo.WithTx(tx)
		requests := s.requestRepo.WithTx(tx)

		group, err := groups.FindByID(groupID)
		if err != nil {
			return fmt.Errorf("failed to load group: %w", err)
		}
		if group == nil {
			return ErrGroupNotFound
		}
		groupName = group.Name

		member, err := members.FindMember(groupID, userID)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if member == nil {
			return ErrNotAMember
		}

		if err := members.RemoveMember(groupID, userID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}

		if member.Role != model.RoleOwner {
			return nil
		}

		// 群主退出：重新计数剩余成员
		remaining, err := members.CountMembers(groupID)
		if err != nil {
			return fmt.Errorf("failed to count remaining members: %w", err)
		}

		if remaining == 0 {
			// 最后一名成员离开：先删依赖再删群组
			if err := requests.DeletePendingByGroup(groupID); err != nil {
				return fmt.Errorf("failed to delete pending requests: %w", err)
			}
			if err := s.messageRepo.WithTx(tx).DeleteGroupMessages(groupID); err != nil {
				return fmt.Errorf("failed to delete group messages: %w", err)
			}
			if err := groups.Delete(groupID); err != nil {
				return fmt.Errorf("failed to delete group: %w", err)
			}
			result.GroupDeleted = true
			return nil
		}

		// 提拔继任者：最早入群的剩余成员，并列时取最小用户ID
		successor, err := members.FindSuccessor(groupID)
		if err != nil {
			return fmt.Errorf("failed to select successor: %w", err)
		}
		if successor == nil {
			// 计数与选取在同一事务内，走到这里说明存储层异常
			return fmt.Errorf("no successor found despite %d remaining members", remaining)
		}
		if err := members.UpdateMemberRole(groupID, successor.UserID, model.RoleOwner); err != nil {
			return fmt.Errorf("failed to promote successor: %w", err)
		}
		if err := groups.UpdateOwner(groupID, successor.UserID); err != nil {
			return fmt.Errorf("failed to update group owner: %w", err)
		}
		successorID = successor.UserID
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 群组已删除，对应的互斥锁条目不再需要
	if result.GroupDeleted {
		s.groupLocks.Delete(groupID)
	}

	if successorID != 0 {
		successorUser, err := s.userRepo.FindByID(successorID)
		if err == nil && successorUser != nil {
			summary := userSummary(successorUser)
			result.NewOwner = &summary
		} else {
			result.NewOwner = &UserSummary{ID: successorID}
		}
		s.notifier.NotifyAsync(successorID,
			fmt.Sprintf("You are now the owner of the group %q.", groupName),
			fmt.Sprintf("/groups/%d", groupID))
	}

	logger.L.Info("member left group",
		zap.Uint("groupID", groupID),
		zap.Uint("userID", userID),
		zap.Bool("groupDeleted", result.GroupDeleted),
		zap.Uint("newOwnerID", successorID))
	return result, nil
}

// 群主批量移除除自己外的全部成员
func (s *GroupService) RemoveAllMembers(groupID, actorID uint) error {
	unlock := s.lockGroup(groupID)
	defer unlock()

	var removed []uint
	var groupName string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		groups := s.groupRepo.WithTx(tx)
		members := s.memberRepo.WithTx(tx)

		group, err := groups.FindByID(groupID)
		if err != nil {
			return fmt.Errorf("failed to load group: %w", err)
		}
		if group == nil {
			return ErrGroupNotFound
		}
		groupName = group.Name

		ok, err := s.actorIsOwner(members, group, actorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotAuthorized
		}

		all, err := members.FindMembers(groupID)
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		for _, m := range all {
			if m.UserID != actorID {
				removed = append(removed, m.UserID)
			}
		}

		if err := members.RemoveAllExcept(groupID, actorID); err != nil {
			return fmt.Errorf("failed to remove members: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, uid := range removed {
		s.notifier.NotifyAsync(uid,
			fmt.Sprintf("You were removed from the group %q.", groupName), "")
	}

	logger.L.Info("all members removed",
		zap.Uint("groupID", groupID),
		zap.Uint("actorID", actorID),
		zap.Int("removedCount", len(removed)))
	return nil
}

// 群组详情。私有群组仅成员可见；公开群组任何已认证用户可见。
func (s *GroupService) GetGroupDetails(groupID, userID uint) (*GroupDTO, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}

	member, err := s.memberRepo.FindMember(groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if group.Privacy == model.GroupPrivacyPrivate && member == nil {
		return nil, ErrNotAuthorized
	}

	count, err := s.memberRepo.CountMembers(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}

	role := "non-member"
	if member != nil {
		role = member.Role
	}
	return s.groupDTO(group, count, role), nil
}

// 成员列表。私有群组仅成员可见。
func (s *GroupService) GetGroupMembers(groupID, userID uint) ([]GroupMemberDTO, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}

	member, err := s.memberRepo.FindMember(groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if group.Privacy == model.GroupPrivacyPrivate && member == nil {
		return nil, ErrNotAuthorized
	}

	members, err := s.memberRepo.FindMembers(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	dtos := make([]GroupMemberDTO, 0, len(members))
	for _, m := range members {
		dtos = append(dtos, GroupMemberDTO{
			UserID:   m.UserID,
			Username: m.User.Username,
			Avatar:   m.User.Avatar,
			Role:     m.Role,
			JoinedAt: m.CreatedAt,
		})
	}
	return dtos, nil
}

// 群主查看群组的全部 pending 加群申请
func (s *GroupService) ListPendingJoinRequests(groupID, actorID uint) ([]JoinRequestDTO, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}

	ok, err := s.actorIsOwner(s.memberRepo, group, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAuthorized
	}

	requests, err := s.requestRepo.FindPendingByGroup(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}

	dtos := make([]JoinRequestDTO, 0, len(requests))
	for _, req := range requests {
		dtos = append(dtos, JoinRequestDTO{
			ID:        req.ID,
			User:      userSummary(&req.User),
			Status:    req.Status,
			CreatedAt: req.CreatedAt,
		})
	}
	return dtos, nil
}

// 公开目录：全部群组的概要视图
func (s *GroupService) GetAllGroups() ([]GroupDTO, error) {
	groups, err := s.groupRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return s.summarize(groups, 0)
}

// 用户所属的全部群组，附带该用户在群内的角色
func (s *GroupService) GetUserGroups(userID uint) ([]GroupDTO, error) {
	groups, err := s.groupRepo.FindUserGroups(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user groups: %w", err)
	}
	return s.summarize(groups, userID)
}

// 群主更新群组名称与描述
func (s *GroupService) UpdateGroup(groupID, actorID uint, req UpdateGroupRequest) (*GroupDTO, error) {
	unlock := s.lockGroup(groupID)
	defer unlock()

	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	if group.OwnerID != actorID {
		return nil, ErrNotAuthorized
	}

	if err := s.groupRepo.UpdateDetails(groupID, req.Name, req.Description); err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	return s.GetGroupDetails(groupID, actorID)
}

func (s *GroupService) summarize(groups []model.Group, userID uint) ([]GroupDTO, error) {
	dtos := make([]GroupDTO, 0, len(groups))
	for i := range groups {
		g := &groups[i]
		count, err := s.memberRepo.CountMembers(g.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count members: %w", err)
		}
		role := ""
		if userID != 0 {
			member, err := s.memberRepo.FindMember(g.ID, userID)
			if err != nil {
				return nil, fmt.Errorf("failed to check membership: %w", err)
			}
			if member != nil {
				role = member.Role
			}
		}
		dtos = append(dtos, *s.groupDTO(g, count, role))
	}
	return dtos, nil
}

// 群主判定：群组的 owner 引用或成员表中的 owner 角色
func (s *GroupService) actorIsOwner(members *repository.GroupMemberRepository, group *model.Group, actorID uint) (bool, error) {
	if group.OwnerID == actorID {
		return true, nil
	}
	member, err := members.FindMember(group.ID, actorID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return member != nil && member.Role == model.RoleOwner, nil
}
