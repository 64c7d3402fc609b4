package enum

// SessionEventType 表示會話事件的類型
type SessionEventType string

const (
	SessionEventTypeRevoked   SessionEventType = "session.revoked"   // 憑證已失效，立即登出
	SessionEventTypeRefreshed SessionEventType = "session.refreshed" // 憑證已更新，重新同步購物車
)
