package models

// UserProfile is the cached profile returned alongside a bearer token.
type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Credential 代表一個已登入的會話：opaque bearer token 加上快取的用戶資料。
// Presence or absence of a credential is the only signal the cart engine uses
// to decide whether to call the remote service.
type Credential struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user,omitempty"`
}

func NewCredential(token string, user *UserProfile) *Credential {
	return &Credential{Token: token, User: user}
}
