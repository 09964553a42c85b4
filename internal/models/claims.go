package models

// JWTClaims holds the token claims the API cares about
type JWTClaims struct {
	Sub   string
	Email string
	Name  string
	Iss   string
	Aud   string
	Exp   int64
	Iat   int64
}
