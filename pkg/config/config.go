package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		S3        S3        `envPrefix:"S3_"`
		Archive   Archive   `envPrefix:"ARCHIVE_"`
		Serve     Serve     `envPrefix:"SERVE_"`
		TileCache TileCache `envPrefix:"TILE_CACHE_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
	}

	HTTP struct {
		Server Server `envPrefix:"SERVER_"`
	}

	Server struct {
		Port         string        `env:"PORT" envDefault:"8080"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL" envDefault:"info"`
	}

	S3 struct {
		Bucket string `env:"BUCKET,required" validate:"required"`
		Region string `env:"REGION"`
		// Endpoint overrides the AWS endpoint, e.g. for MinIO. Implies
		// path-style addressing.
		Endpoint string `env:"ENDPOINT" validate:"omitempty,url"`
		// Aggressive timeouts: archive access fans out into many small
		// range reads and a single slow one must not stall the response.
		ConnectTimeout        time.Duration `env:"CONNECT_TIMEOUT" envDefault:"500ms"`
		ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"5s"`
	}

	Archive struct {
		// KeyTemplate maps an archive name to an object key. The literal
		// {name} placeholder is substituted with the archive name.
		KeyTemplate string `env:"KEY_TEMPLATE" envDefault:"{name}.pmtiles" validate:"contains={name}"`
	}

	Serve struct {
		// PublicHostname overrides the host used in TileJSON tile URLs.
		// When empty the X-Forwarded-Host header is used instead.
		PublicHostname string `env:"PUBLIC_HOSTNAME"`
		CORSOrigin     string `env:"CORS_ORIGIN"`
		CacheControl   string `env:"CACHE_CONTROL" envDefault:"public, max-age=86400"`
	}

	TileCache struct {
		Kind      string        `env:"KIND" envDefault:"none" validate:"oneof=none memory redis"`
		TTL       time.Duration `env:"TTL" envDefault:"60s"`
		RedisAddr string        `env:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"pmtiles-server"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"dev"`
		Environment    string `env:"ENVIRONMENT" envDefault:"development"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
