package dto

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// Filled from the transport, never from the body.
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}
