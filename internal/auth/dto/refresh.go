package dto

type RefreshInput struct {
	RefreshSecret string `json:"-"`
	IPAddress     string `json:"-"`
	UserAgent     string `json:"-"`
}

// TokenPair is what the session manager hands back on register/login/refresh.
// The refresh secret is surfaced to the transport layer only so it can be set
// as an HttpOnly cookie; it is excluded from JSON serialization.
type TokenPair struct {
	AccessToken     string `json:"access_token"`
	AccessExpiresAt int64  `json:"access_expires_at"`
	RefreshSecret   string `json:"-"`
}
