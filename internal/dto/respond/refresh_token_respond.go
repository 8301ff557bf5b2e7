package respond

// RefreshTokenRespond 刷新访问令牌响应
type RefreshTokenRespond struct {
	AccessToken string `json:"access_token"`
}
