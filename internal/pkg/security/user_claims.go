package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	JWTSecret         string = "BookItNow"
	JWTExpirationTime        = time.Hour * 24
)

const (
	RoleUser      = "user"
	RolePerformer = "performer"
)

// UserClaims 定义了我们 Token 中需要包含的业务信息
type UserClaims struct {
	UserID uint64 `json:"user_id"`
	Role   string `json:"role"` // user / performer
	jwt.RegisteredClaims
}
