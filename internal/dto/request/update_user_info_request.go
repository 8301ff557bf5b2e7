package request

// UpdateUserInfoRequest 更新用户资料请求
// 空字段表示不修改
type UpdateUserInfoRequest struct {
	Nickname  string `json:"nickname"`
	Avatar    string `json:"avatar"`
	Signature string `json:"signature"`
}
