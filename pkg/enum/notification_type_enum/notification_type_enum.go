package notification_type_enum

// 通知类型
// 由路由层调用 Notify 时传入，核心不感知具体业务语义
const (
	Message        = "message"         // 新消息提醒
	ContactRequest = "contact_request" // 联系人申请
	ChatInvite     = "chat_invite"     // 拉群邀请
	System         = "system"          // 系统通知
)
