package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Auth. Tokens are minted by the external identity provider; we
	// only verify them against its JWKS endpoint and consume the
	// sub/email/role claims.
	AuthIssuerURL string `envconfig:"AUTH_ISSUER_URL"`

	// Object storage for program and material images.
	StorageBucketName      string `envconfig:"STORAGE_BUCKET_NAME" default:"program-media"`
	UploadURLExpirySeconds uint   `envconfig:"UPLOAD_URL_EXPIRY_SEC" default:"900"`

	// Certificate mailer.
	EmailServerHost     string `envconfig:"EMAIL_SERVER_HOST"`
	EmailServerPort     int    `envconfig:"EMAIL_SERVER_PORT" default:"587"`
	EmailServerUser     string `envconfig:"EMAIL_SERVER_USER"`
	EmailServerPassword string `envconfig:"EMAIL_SERVER_PASSWORD"`
	EmailFrom           string `envconfig:"EMAIL_FROM"`
}
