package repository

import (
	"go-study-group/internal/model"
	"go-study-group/pkg/db"

	"errors"

	"gorm.io/gorm"
)

type GroupMemberRepository struct {
	db *gorm.DB
}

func NewGroupMemberRepository() *GroupMemberRepository {
	return &GroupMemberRepository{db: db.DB}
}

// WithTx 返回一个绑定到给定事务的仓库实例
func (r *GroupMemberRepository) WithTx(tx *gorm.DB) *GroupMemberRepository {
	return &GroupMemberRepository{db: tx}
}

// 将用户添加到群组；(group_id, user_id) 复合主键保证不会重复插入
func (r *GroupMemberRepository) AddMember(groupID, userID uint, role string) error {
	if role == "" {
		role = model.RoleMember
	}
	member := &model.GroupMember{
		GroupID: groupID,
		UserID:  userID,
		Role:    role,
	}
	return r.db.Create(member).Error
}

// 将用户从群组中移除（硬删除，允许之后重新加群）
func (r *GroupMemberRepository) RemoveMember(groupID, userID uint) error {
	return r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&model.GroupMember{}).Error
}

// 移除群组中除指定用户外的全部成员
func (r *GroupMemberRepository) RemoveAllExcept(groupID, keepUserID uint) error {
	return r.db.Where("group_id = ? AND user_id <> ?", groupID, keepUserID).
		Delete(&model.GroupMember{}).Error
}

// 查找特定群组的特定成员
func (r *GroupMemberRepository) FindMember(groupID, userID uint) (*model.GroupMember, error) {
	var member model.GroupMember
	err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 不是群组成员
		}
		return nil, err
	}
	return &member, nil
}

// 获取群组全部成员，按入群时间升序（并列时按用户ID升序）
func (r *GroupMemberRepository) FindMembers(groupID uint) ([]model.GroupMember, error) {
	var members []model.GroupMember
	err := r.db.Where("group_id = ?", groupID).
		Preload("User").
		Order("created_at ASC, user_id ASC").
		Find(&members).Error
	return members, err
}

// 统计群组当前成员数
func (r *GroupMemberRepository) CountMembers(groupID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.GroupMember{}).Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}

// 群主退出时的继任者：最早入群的剩余成员，入群时间并列时取最小用户ID
func (r *GroupMemberRepository) FindSuccessor(groupID uint) (*model.GroupMember, error) {
	var member model.GroupMember
	err := r.db.Where("group_id = ?", groupID).
		Order("created_at ASC, user_id ASC").
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 没有剩余成员
		}
		return nil, err
	}
	return &member, nil
}

// 更新成员角色
func (r *GroupMemberRepository) UpdateMemberRole(groupID, userID uint, newRole string) error {
	return r.db.Model(&model.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("role", newRole).Error
}
