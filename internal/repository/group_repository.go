package repository

import (
	"errors"
	"go-study-group/internal/model"
	"go-study-group/pkg/db"

	"gorm.io/gorm"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository() *GroupRepository {
	return &GroupRepository{db: db.DB}
}

// WithTx 返回一个绑定到给定事务的仓库实例
func (r *GroupRepository) WithTx(tx *gorm.DB) *GroupRepository {
	return &GroupRepository{db: tx}
}

// 创建新群组，并原子地将创建者添加为 owner 成员
func (r *GroupRepository) Create(group *model.Group) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 创建群组
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		// 将群主添加为成员
		ownerMember := &model.GroupMember{
			GroupID: group.ID,
			UserID:  group.OwnerID,
			Role:    model.RoleOwner,
		}
		if err := tx.Create(ownerMember).Error; err != nil {
			return err
		}
		return nil
	})
}

// 根据ID查找群组，并预加载课程和群主信息
func (r *GroupRepository) FindByID(groupID uint) (*model.Group, error) {
	var group model.Group
	err := r.db.Preload("Course").Preload("Owner").First(&group, groupID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 群组不存在
		}
		return nil, err
	}
	return &group, nil
}

// 列出全部群组（公开目录）
func (r *GroupRepository) FindAll() ([]model.Group, error) {
	var groups []model.Group
	err := r.db.Preload("Course").Preload("Owner").
		Order("groups.created_at DESC").
		Find(&groups).Error
	return groups, err
}

// 查找用户所属的所有群组
func (r *GroupRepository) FindUserGroups(userID uint) ([]model.Group, error) {
	var groups []model.Group
	// 通过 group_members 连接查询
	err := r.db.Joins("JOIN group_members ON groups.id = group_members.group_id").
		Where("group_members.user_id = ?", userID).
		Preload("Course").
		Preload("Owner").
		Order("groups.created_at DESC").
		Find(&groups).Error
	return groups, err
}

// 根据所有者ID和群组名称查找群组
func (r *GroupRepository) FindByOwnerAndName(ownerID uint, name string) (*model.Group, error) {
	var group model.Group
	err := r.db.Where("owner_id = ? AND name = ?", ownerID, name).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // not found
		}
		return nil, err
	}
	return &group, nil
}

// 更新群组的名称与描述
func (r *GroupRepository) UpdateDetails(groupID uint, name, description string) error {
	return r.db.Model(&model.Group{}).Where("id = ?", groupID).
		Updates(map[string]interface{}{"name": name, "description": description}).Error
}

// 更新群主引用（所有权转移时与成员角色更新同事务调用）
func (r *GroupRepository) UpdateOwner(groupID, newOwnerID uint) error {
	return r.db.Model(&model.Group{}).Where("id = ?", groupID).
		Update("owner_id", newOwnerID).Error
}

// 删除群组（软删除）
func (r *GroupRepository) Delete(groupID uint) error {
	return r.db.Delete(&model.Group{}, groupID).Error
}
