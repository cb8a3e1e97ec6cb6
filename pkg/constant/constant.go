package constant

const (
	DefaultUserRole = "user"
	AdminRole       = "admin"

	// Cookie names for the two credentials. The refresh cookie is path-scoped
	// so browsers only send the long-lived secret to the routes that need it.
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	RefreshCookiePath  = "/api/v1"

	// Raw refresh secrets are 32 random bytes, base64url encoded. Only the
	// sha256 of the raw secret is ever persisted.
	RefreshSecretBytes = 32

	MinPasswordLength = 8
)
