package request

// ChangePasswordRequest 修改密码请求
// 修改成功后除当前会话外全部会话作废
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required,min=6"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}
