package config

import "time"

type AuthConfig struct {
	JWT      JWTConfig
	Cookie   CookieConfig
	Password PasswordConfig
	// Bootstrap seeds the first MASTER user when the email does not exist yet
	Bootstrap BootstrapConfig
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        []string
}

type CookieConfig struct {
	AccessTokenName  string
	RefreshTokenName string
	Domain           string
	Path             string
	Secure           bool
	HTTPOnly         bool
	SameSite         string
}

type PasswordConfig struct {
	BcryptCost int
}

type BootstrapConfig struct {
	MasterEmail    string
	MasterName     string
	MasterPassword string
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET_KEY", ""),
			AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TOKEN_TTL", 7*24*time.Hour),
			Issuer:          getEnv("JWT_ISSUER", "hireflow"),
			Audience:        getEnvStringSlice("JWT_AUDIENCE", []string{"hireflow-api"}),
		},
		Cookie: CookieConfig{
			AccessTokenName:  getEnv("COOKIE_ACCESS_TOKEN_NAME", "access_token"),
			RefreshTokenName: getEnv("COOKIE_REFRESH_TOKEN_NAME", "refresh_token"),
			Domain:           getEnv("COOKIE_DOMAIN", ""),
			Path:             getEnv("COOKIE_PATH", "/"),
			Secure:           getEnvBool("COOKIE_SECURE", false),
			HTTPOnly:         getEnvBool("COOKIE_HTTP_ONLY", true),
			SameSite:         getEnv("COOKIE_SAME_SITE", "Lax"),
		},
		Password: PasswordConfig{
			BcryptCost: getEnvInt("BCRYPT_COST", 10),
		},
		Bootstrap: BootstrapConfig{
			MasterEmail:    getEnv("BOOTSTRAP_MASTER_EMAIL", ""),
			MasterName:     getEnv("BOOTSTRAP_MASTER_NAME", "Master"),
			MasterPassword: getEnv("BOOTSTRAP_MASTER_PASSWORD", ""),
		},
	}
}
