package request

// RefreshTokenRequest 刷新访问令牌请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
