package dto

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	// Filled from the transport, never from the body.
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type VerifyEmailInput struct {
	Token string `json:"token"`
}
