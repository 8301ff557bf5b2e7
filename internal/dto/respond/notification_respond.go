package respond

// NotificationRespond 通知条目响应
type NotificationRespond struct {
	Uuid      int64  `json:"uuid,string"`
	SenderId  string `json:"sender_id,omitempty"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Payload   string `json:"payload,omitempty"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}
