package presence_status_enum

// 用户在线状态
// 在线与否由连接注册表推导，字符串直接进入 user:status 广播载荷
const (
	ONLINE  = "online"
	OFFLINE = "offline"
	AWAY    = "away"
)

// Valid 校验客户端上报的状态值
func Valid(status string) bool {
	return status == ONLINE || status == OFFLINE || status == AWAY
}
