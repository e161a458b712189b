package repository

import (
	"errors"
	"go-study-group/internal/model"
	"go-study-group/pkg/db"

	"gorm.io/gorm"
)

type JoinRequestRepository struct {
	db *gorm.DB
}

func NewJoinRequestRepository() *JoinRequestRepository {
	return &JoinRequestRepository{db: db.DB}
}

// WithTx 返回一个绑定到给定事务的仓库实例
func (r *JoinRequestRepository) WithTx(tx *gorm.DB) *JoinRequestRepository {
	return &JoinRequestRepository{db: tx}
}

// 新建加群申请（调用方需先确认同一对 (群组, 用户) 没有 pending 申请）
func (r *JoinRequestRepository) Create(request *model.JoinRequest) error {
	return r.db.Create(request).Error
}

// 通过ID查找申请
func (r *JoinRequestRepository) FindByID(requestID uint) (*model.JoinRequest, error) {
	var request model.JoinRequest
	err := r.db.Preload("User").First(&request, requestID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 申请不存在
		}
		return nil, err
	}
	return &request, nil
}

// 查找 (群组, 用户) 的 pending 申请
func (r *JoinRequestRepository) FindPending(groupID, userID uint) (*model.JoinRequest, error) {
	var request model.JoinRequest
	err := r.db.Where("group_id = ? AND user_id = ? AND status = ?",
		groupID, userID, model.JoinRequestPending).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// 列出群组的全部 pending 申请，附带申请人信息
func (r *JoinRequestRepository) FindPendingByGroup(groupID uint) ([]model.JoinRequest, error) {
	var requests []model.JoinRequest
	err := r.db.Where("group_id = ? AND status = ?", groupID, model.JoinRequestPending).
		Preload("User").
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

// 更新申请状态（pending -> approved/denied，终态）
func (r *JoinRequestRepository) UpdateStatus(requestID uint, status string) error {
	return r.db.Model(&model.JoinRequest{}).Where("id = ?", requestID).
		Update("status", status).Error
}

// 删除群组的全部 pending 申请（群组删除级联的第一步）
func (r *JoinRequestRepository) DeletePendingByGroup(groupID uint) error {
	return r.db.Where("group_id = ? AND status = ?", groupID, model.JoinRequestPending).
		Delete(&model.JoinRequest{}).Error
}
