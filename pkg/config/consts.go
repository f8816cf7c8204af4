package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "LEASEPOINT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "LEASEPOINT_DB_DSN"
	EnvDBHost = "LEASEPOINT_DB_HOST"
	EnvDBUser = "LEASEPOINT_DB_USER"
	EnvDBName = "LEASEPOINT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
