package storage

import "os"

// Mode selects where role assignments are persisted
type Mode string

const (
	ModeDynamoLocal Mode = "local"
	ModeDynamoAWS   Mode = "aws"
	ModeSQLite      Mode = "sqlite"
	ModeNone        Mode = "none"
)

// Config holds storage configuration
type Config struct {
	Mode       Mode
	Endpoint   string // for local DynamoDB
	Region     string
	RolesTable string
	SQLitePath string
}

// LoadConfig loads storage config from environment. DYNAMO_MODE is honored
// when STORE_MODE is unset.
func LoadConfig() Config {
	mode := Mode(getEnv("STORE_MODE", getEnv("DYNAMO_MODE", "none")))
	switch mode {
	case ModeDynamoLocal, ModeDynamoAWS, ModeSQLite:
	default:
		mode = ModeNone
	}

	return Config{
		Mode:       mode,
		Endpoint:   getEnv("DYNAMO_ENDPOINT", "http://localhost:8000"),
		Region:     getEnv("DYNAMO_REGION", "eu-central-1"),
		RolesTable: getEnv("DYNAMO_ROLES_TABLE", "dropboard-role-assignments"),
		SQLitePath: getEnv("SQLITE_PATH", "data/dropboard.db"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
