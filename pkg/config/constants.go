package config

// EnvPrefix scopes every environment variable consumed by the platform.
const EnvPrefix = "AURELIA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "AURELIA_DB_DSN"
	EnvDBHost = "AURELIA_DB_HOST"
	EnvDBUser = "AURELIA_DB_USER"
	EnvDBName = "AURELIA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
