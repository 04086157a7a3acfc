package config

const (
	EnvPrefix = "FURNHAUS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "FURNHAUS_DB_DSN"
	EnvDBHost = "FURNHAUS_DB_HOST"
	EnvDBUser = "FURNHAUS_DB_USER"
	EnvDBName = "FURNHAUS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
