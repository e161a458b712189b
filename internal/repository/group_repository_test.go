package repository

import (
	"fmt"
	"testing"

	"go-study-group/internal/model"
	"go-study-group/pkg/config"
	"go-study-group/pkg/db"
	"go-study-group/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- Test Setup ---

// setupRepos initializes config, logger and the test database and
// registers cleanup for every table the repositories touch.
func setupRepos(t *testing.T) {
	if err := config.InitTest(); err != nil {
		t.Fatalf("Failed to initialize config: %v", err)
	}
	if logger.L == nil {
		if err := logger.InitLogger(config.GlobalConfig.Log.Level, config.GlobalConfig.Log.ProductionMode); err != nil {
			t.Logf("Logger init failed (using default): %v", err)
		}
	}
	require.NoError(t, db.InitDB(), "Failed to connect to test database")

	t.Cleanup(func() { cleanupRepoTables(t) })
}

func cleanupRepoTables(t *testing.T) {
	session := db.DB.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []interface{}{
		&model.Message{},
		&model.Notification{},
		&model.JoinRequest{},
		&model.GroupMember{},
		&model.Group{},
		&model.Enrollment{},
		&model.Course{},
		&model.User{},
	} {
		if err := session.Unscoped().Delete(m).Error; err != nil {
			t.Logf("Warning: failed to cleanup table for %T: %v", m, err)
		}
	}
}

func createRepoTestUser(t *testing.T, username string) *model.User {
	user := &model.User{
		Username: username,
		Password: "testpassword",
		Email:    fmt.Sprintf("%s@example.com", username),
		Avatar:   "default.png",
	}
	require.NoError(t, NewUserRepository().Create(user), "Failed to create test user %s", username)
	require.True(t, user.ID > 0)
	return user
}

func createRepoTestCourse(t *testing.T, code string) *model.Course {
	course := &model.Course{Code: code, Name: "Course " + code}
	require.NoError(t, NewCourseRepository().Create(course), "Failed to create test course %s", code)
	return course
}

func createRepoTestGroup(t *testing.T, ownerID, courseID uint, name string) *model.Group {
	group := &model.Group{
		Name:        name,
		Privacy:     model.GroupPrivacyPublic,
		MemberLimit: 10,
		CourseID:    courseID,
		OwnerID:     ownerID,
	}
	require.NoError(t, NewGroupRepository().Create(group))
	require.True(t, group.ID > 0)
	return group
}

// --- Tests ---

func TestGroupRepository_CreateSeedsOwner(t *testing.T) {
	setupRepos(t)
	owner := createRepoTestUser(t, "groupOwner1")
	course := createRepoTestCourse(t, "REPO101")

	group := createRepoTestGroup(t, owner.ID, course.ID, "Test Group Alpha")

	// Verify group exists with preloaded relations
	found, err := NewGroupRepository().FindByID(group.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, group.Name, found.Name)
	assert.Equal(t, owner.ID, found.OwnerID)
	assert.Equal(t, owner.Username, found.Owner.Username)
	assert.Equal(t, course.Code, found.Course.Code)

	// Verify owner is automatically added as a member with 'owner' role
	ownerMember, err := NewGroupMemberRepository().FindMember(group.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, ownerMember, "Owner should be added as a member")
	assert.Equal(t, model.RoleOwner, ownerMember.Role)
}

func TestGroupRepository_FindByID_NotFound(t *testing.T) {
	setupRepos(t)

	group, err := NewGroupRepository().FindByID(99999)
	assert.NoError(t, err) // not-found is (nil, nil), not an error
	assert.Nil(t, group)
}

func TestGroupRepository_FindUserGroups(t *testing.T) {
	setupRepos(t)
	user1 := createRepoTestUser(t, "userGroups1")
	user2 := createRepoTestUser(t, "userGroups2")
	course := createRepoTestCourse(t, "REPO102")

	group1 := createRepoTestGroup(t, user1.ID, course.ID, "User1 Group A")
	createRepoTestGroup(t, user2.ID, course.ID, "User2 Group B")
	group3 := createRepoTestGroup(t, user1.ID, course.ID, "Shared Group C")

	// Add user2 to group3
	memberRepo := NewGroupMemberRepository()
	require.NoError(t, memberRepo.AddMember(group3.ID, user2.ID, model.RoleMember))

	groupsUser1, err := NewGroupRepository().FindUserGroups(user1.ID)
	require.NoError(t, err)
	assert.Len(t, groupsUser1, 2)

	groupsUser2, err := NewGroupRepository().FindUserGroups(user2.ID)
	require.NoError(t, err)
	assert.Len(t, groupsUser2, 2)

	names2 := make(map[string]bool)
	for _, g := range groupsUser2 {
		names2[g.Name] = true
		assert.NotZero(t, g.Owner.ID, "Owner should be preloaded for user groups")
	}
	assert.True(t, names2["User2 Group B"])
	assert.True(t, names2["Shared Group C"])
	_ = group1
}

func TestGroupRepository_UpdateOwnerAndDetails(t *testing.T) {
	setupRepos(t)
	owner := createRepoTestUser(t, "updRepoOwner")
	heir := createRepoTestUser(t, "updRepoHeir")
	course := createRepoTestCourse(t, "REPO103")

	group := createRepoTestGroup(t, owner.ID, course.ID, "Before")
	groupRepo := NewGroupRepository()

	require.NoError(t, groupRepo.UpdateDetails(group.ID, "After", "new description"))
	require.NoError(t, groupRepo.UpdateOwner(group.ID, heir.ID))

	found, err := groupRepo.FindByID(group.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "After", found.Name)
	assert.Equal(t, "new description", found.Description)
	assert.Equal(t, heir.ID, found.OwnerID)
}

func TestGroupRepository_Delete(t *testing.T) {
	setupRepos(t)
	owner := createRepoTestUser(t, "delRepoOwner")
	course := createRepoTestCourse(t, "REPO104")

	group := createRepoTestGroup(t, owner.ID, course.ID, "Doomed")
	groupRepo := NewGroupRepository()

	require.NoError(t, groupRepo.Delete(group.ID))

	found, err := groupRepo.FindByID(group.ID)
	require.NoError(t, err)
	assert.Nil(t, found, "Deleted group should not be found")
}

func TestGroupMemberRepository_MembershipLifecycle(t *testing.T) {
	setupRepos(t)
	owner := createRepoTestUser(t, "memberRepoOwner")
	member := createRepoTestUser(t, "memberRepoMember")
	course := createRepoTestCourse(t, "REPO105")

	group := createRepoTestGroup(t, owner.ID, course.ID, "Membership Group")
	memberRepo := NewGroupMemberRepository()

	require.NoError(t, memberRepo.AddMember(group.ID, member.ID, ""))

	// Default role is member
	m, err := memberRepo.FindMember(group.ID, member.ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, model.RoleMember, m.Role)

	// Composite primary key rejects a duplicate membership row
	err = memberRepo.AddMember(group.ID, member.ID, model.RoleMember)
	assert.Error(t, err, "Duplicate membership insert should violate the primary key")

	count, err := memberRepo.CountMembers(group.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Successor ordering: earliest join first
	successor, err := memberRepo.FindSuccessor(group.ID)
	require.NoError(t, err)
	require.NotNil(t, successor)
	assert.Equal(t, owner.ID, successor.UserID)

	require.NoError(t, memberRepo.RemoveMember(group.ID, member.ID))
	gone, err := memberRepo.FindMember(group.ID, member.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// Removal is a hard delete, so re-joining works
	require.NoError(t, memberRepo.AddMember(group.ID, member.ID, model.RoleMember))
}

func TestGroupMemberRepository_RemoveAllExcept(t *testing.T) {
	setupRepos(t)
	owner := createRepoTestUser(t, "purgeRepoOwner")
	m1 := createRepoTestUser(t, "purgeRepoM1")
	m2 := createRepoTestUser(t, "purgeRepoM2")
	course := createRepoTestCourse(t, "REPO106")

	group := createRepoTestGroup(t, owner.ID, course.ID, "Purge Repo Group")
	memberRepo := NewGroupMemberRepository()
	require.NoError(t, memberRepo.AddMember(group.ID, m1.ID, model.RoleMember))
	require.NoError(t, memberRepo.AddMember(group.ID, m2.ID, model.RoleMember))

	require.NoError(t, memberRepo.RemoveAllExcept(group.ID, owner.ID))

	members, err := memberRepo.FindMembers(group.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, owner.ID, members[0].UserID)
}
