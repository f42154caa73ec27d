package security

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/goccy/go-json"
)

// ErrNotAuthenticated 凭证缺失或无法解析
var ErrNotAuthenticated = errors.New("未登录或凭证无效")

// Identity 从凭证负载中解出的身份信息
type Identity struct {
	UserID uint64 `json:"user_id"`
	Role   string `json:"role"` // user / performer
}

// ResolveIdentity 仅解码凭证中间段，不校验签名。
// 只用于客户端确定向通道注册哪个身份，任何鉴权都以服务端 ValidateToken 为准。
func ResolveIdentity(credential string) (*Identity, error) {
	if credential == "" {
		return nil, ErrNotAuthenticated
	}

	parts := strings.Split(credential, ".")
	if len(parts) != 3 {
		return nil, ErrNotAuthenticated
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	var identity Identity
	if err := json.Unmarshal(payload, &identity); err != nil {
		return nil, ErrNotAuthenticated
	}
	if identity.UserID == 0 {
		return nil, ErrNotAuthenticated
	}

	return &identity, nil
}
