package service

import "errors"

// 业务错误是可恢复的、面向调用方的类型化错误，
// API 层用 errors.Is 将它们映射为 HTTP 状态码；
// 存储层故障一律用 %w 包装后作为基础设施错误上抛。
var (
	ErrGroupNotFound        = errors.New("group not found")
	ErrCourseNotFound       = errors.New("course not found")
	ErrRequestNotFound      = errors.New("join request not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrAlreadyMember         = errors.New("you are already a member of this group")
	ErrGroupFull             = errors.New("this group is full and cannot accept new members")
	ErrInvalidPasskey        = errors.New("invalid passkey for this private group")
	ErrRequestAlreadyPending = errors.New("you have already sent a request to join this group")
	ErrNotAuthorized         = errors.New("you are not authorized to perform this action")
	ErrNotAMember            = errors.New("you are not a member of this group")
	ErrRequestResolved       = errors.New("this join request has already been resolved")

	ErrGroupNameTaken     = errors.New("you already have a group with this name")
	ErrInvalidMemberLimit = errors.New("member limit must be at least 1")
	ErrInvalidDecision    = errors.New("decision must be approve or deny")

	ErrAlreadyEnrolled = errors.New("you are already enrolled in this course")
	ErrNotEnrolled     = errors.New("you are not enrolled in this course")

	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
