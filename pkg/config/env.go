package config

// EnvPrefix is passed to envconfig; individual fields carry fully-qualified
// envconfig tags so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "BISCENIC_DB_DSN"
	EnvDBHost = "BISCENIC_DB_HOST"
	EnvDBUser = "BISCENIC_DB_USER"
	EnvDBName = "BISCENIC_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
