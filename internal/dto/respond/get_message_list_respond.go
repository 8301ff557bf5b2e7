package respond

// GetMessageListRespond 历史消息条目
// 墓碑消息 Deleted 为 true，内容字段为空
type GetMessageListRespond struct {
	Uuid        int64  `json:"uuid,string"`
	ChatUuid    string `json:"chat_uuid"`
	SendId      string `json:"send_id"`
	Type        int8   `json:"type"`
	Content     string `json:"content"`
	Url         string `json:"url"`
	FileName    string `json:"file_name"`
	FileType    string `json:"file_type"`
	FileSize    string `json:"file_size"`
	ReplyToUuid int64  `json:"reply_to_uuid,string,omitempty"`
	Edited      bool   `json:"edited"`
	Deleted     bool   `json:"deleted"`
	CreatedAt   string `json:"created_at"`
}
