// Package chat 实现实时会话、在线状态与消息扇出子系统
// events.go
// 核心职责：定义 WebSocket 事件协议
// 事件名是前后端的线上契约，不允许改动
package chat

import "encoding/json"

// 入站事件（前端 -> 服务端）
const (
	EventMessageSend      = "message:send"
	EventMessageRead      = "message:read"
	EventTypingStart      = "typing:start"
	EventTypingStop       = "typing:stop"
	EventChatJoin         = "chat:join"
	EventChatLeave        = "chat:leave"
	EventCallStart        = "call:start"
	EventCallAnswer       = "call:answer"
	EventCallIceCandidate = "call:ice-candidate"
	EventCallEnd          = "call:end"
	EventCallReject       = "call:reject"
)

// 出站事件（服务端 -> 前端）
const (
	EventMessageNew      = "message:new"
	EventTypingUpdate    = "typing:update"
	EventUserOnline      = "user:online"
	EventUserOffline     = "user:offline"
	EventUserStatus      = "user:status"
	EventCallIncoming    = "call:incoming"
	EventCallAccepted    = "call:accepted"
	EventCallEnded       = "call:ended"
	EventCallRejected    = "call:rejected"
	EventNotificationNew = "notification:new"
	EventError           = "error"
)

// Frame WebSocket 帧结构，所有事件共用
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ==================== 入站负载 ====================

// MessageSendData message:send 负载
type MessageSendData struct {
	ChatUuid    string `json:"chat_uuid"`
	Type        int8   `json:"type"` // 文本/文件
	Content     string `json:"content"`
	Url         string `json:"url"`
	FileName    string `json:"file_name"`
	FileType    string `json:"file_type"`
	FileSize    string `json:"file_size"`
	ReplyToUuid int64  `json:"reply_to_uuid,string,omitempty"`
}

// MessageReadData message:read 负载（双向共用）
type MessageReadData struct {
	ChatUuid    string `json:"chat_uuid"`
	MessageUuid int64  `json:"message_uuid,string"`
	UserUuid    string `json:"user_uuid,omitempty"` // 出站时填已读者
	ReadAt      string `json:"read_at,omitempty"`
}

// TypingData typing:start / typing:stop 负载
type TypingData struct {
	ChatUuid string `json:"chat_uuid"`
}

// ChatRoomData chat:join / chat:leave 负载
type ChatRoomData struct {
	ChatUuid string `json:"chat_uuid"`
}

// CallSignalData 通话信令负载
// 除目标用户外的内容原样透传，服务端不做解析
type CallSignalData struct {
	TargetUuid string          `json:"target_uuid"`
	FromUuid   string          `json:"from_uuid,omitempty"` // 出站时由服务端填充
	Signal     json.RawMessage `json:"signal,omitempty"`
}

// ==================== 出站负载 ====================

// MessageNewData message:new 负载
type MessageNewData struct {
	Uuid        int64  `json:"uuid,string"`
	ChatUuid    string `json:"chat_uuid"`
	SendId      string `json:"send_id"`
	SendName    string `json:"send_name"`
	SendAvatar  string `json:"send_avatar"`
	Type        int8   `json:"type"`
	Content     string `json:"content"`
	Url         string `json:"url"`
	FileName    string `json:"file_name"`
	FileType    string `json:"file_type"`
	FileSize    string `json:"file_size"`
	ReplyToUuid int64  `json:"reply_to_uuid,string,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// TypingUpdateData typing:update 负载
type TypingUpdateData struct {
	ChatUuid string `json:"chat_uuid"`
	UserUuid string `json:"user_uuid"`
	Typing   bool   `json:"typing"`
}

// UserStatusData user:online / user:offline / user:status 负载
type UserStatusData struct {
	UserUuid string `json:"user_uuid"`
	Status   string `json:"status"`
	At       string `json:"at"`
}

// NotificationNewData notification:new 负载
type NotificationNewData struct {
	Uuid      int64  `json:"uuid,string"`
	SenderId  string `json:"sender_id,omitempty"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Payload   string `json:"payload,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ErrorData error 负载
type ErrorData struct {
	Message string `json:"message"`
}

// MarshalFrame 组装事件帧
// data 序列化失败属于编程错误，返回 error 交由调用方记录
func MarshalFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Frame{Event: event, Data: raw})
}
