package request

// UpdateStatusRequest 手动切换在线状态请求（away 等）
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
