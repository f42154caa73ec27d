package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid      = errors.New("参数错误")
	ErrTargetUserInvalid = errors.New("目标用户无效")
	ErrSendToSelf        = errors.New("不能给自己发消息")
	UnauthorizedError    = errors.New("权限不足")
	UnExpectedError      = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:      BadRequest,
	ErrTargetUserInvalid: BadRequest,
	ErrSendToSelf:        BadRequest,
	UnauthorizedError:    Unauthorized,
	UnExpectedError:      InternalServerError,
}
