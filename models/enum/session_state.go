package enum

// SessionState 表示會話的狀態
type SessionState string

const (
	SessionStateAnonymous     SessionState = "anonymous"
	SessionStateAuthenticated SessionState = "authenticated"
)
