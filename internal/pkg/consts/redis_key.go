package consts

const (
	// IMViewingKey im:viewing:<userID>:<otherID>，存在即表示 userID 正停留在与 otherID 的会话页
	IMViewingKey = "im:viewing:"
	// TokenRevokedKey 已注销 Token 的签名黑名单
	TokenRevokedKey = "token:revoked:"
)
