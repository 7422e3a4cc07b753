// server/config/config.go
package config

import (
	"github.com/spf13/viper"
)

// Environment selects the behavior of environment-gated components (mock
// storage, simulated verification). It is threaded into constructors
// explicitly instead of being read from ambient global state.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

func (e Environment) IsProduction() bool {
	return e == EnvProduction
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

// Configured reports whether a real storage target is present. Absence is a
// legitimate state (local development runs without S3 credentials).
func (c S3Config) Configured() bool {
	return c.Bucket != "" && c.Region != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

type ProviderConfig struct {
	BaseURL        string `mapstructure:"baseURL"`
	APIKey         string `mapstructure:"apiKey"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
}

type KYCConfig struct {
	UploadTimeoutSeconds int `mapstructure:"uploadTimeoutSeconds"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type Config struct {
	Environment Environment    `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Mongo       MongoConfig    `mapstructure:"mongo"`
	JWT         JWTConfig      `mapstructure:"jwt"`
	S3          S3Config       `mapstructure:"s3"`
	Provider    ProviderConfig `mapstructure:"provider"`
	KYC         KYCConfig      `mapstructure:"kyc"`
	NATS        NATSConfig     `mapstructure:"nats"`
}

// LoadConfig reads configuration from config.yaml and overrides it with
// environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	viper.SetDefault("environment", string(EnvDevelopment))
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("kyc.uploadTimeoutSeconds", 8)
	viper.SetDefault("provider.timeoutSeconds", 10)

	viper.BindEnv("environment", "APP_ENV")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("mongo.uri", "MONGO_URI")
	viper.BindEnv("mongo.dbName", "MONGO_DBNAME")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	viper.BindEnv("s3.bucket", "S3_BUCKET")
	viper.BindEnv("s3.region", "S3_REGION")
	viper.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	viper.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	viper.BindEnv("s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	viper.BindEnv("provider.baseURL", "KYC_PROVIDER_URL")
	viper.BindEnv("provider.apiKey", "KYC_PROVIDER_API_KEY")
	viper.BindEnv("provider.timeoutSeconds", "KYC_PROVIDER_TIMEOUT_SECONDS")
	viper.BindEnv("kyc.uploadTimeoutSeconds", "KYC_UPLOAD_TIMEOUT_SECONDS")
	viper.BindEnv("nats.url", "NATS_URL")

	// If the file does not exist, viper falls back to env vars only.
	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
