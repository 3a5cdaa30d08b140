package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"go-id-validator/face"
	"go-id-validator/logging"
	"go-id-validator/ocr"
	"go-id-validator/redis"
	"go-id-validator/validation"
)

type Config struct {
	ServerConfig ServerConfig `json:"server_config"`

	LogLevel string `json:"log_level,omitempty"`

	OcrServerUrl string `json:"ocr_server_url"`
	OcrLanguage  string `json:"ocr_language,omitempty"`

	FaceServerUrl      string  `json:"face_server_url"`
	FaceMatchThreshold float64 `json:"face_match_threshold,omitempty"`

	AttestationPrivateKeyPath string `json:"attestation_private_key_path,omitempty"`
	AttestationIssuerId       string `json:"attestation_issuer_id,omitempty"`

	StorageType         string                    `json:"storage_type"`
	RedisConfig         redis.RedisConfig         `json:"redis_config,omitempty"`
	RedisSentinelConfig redis.RedisSentinelConfig `json:"redis_sentinel_config,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "Path for the config.json to use")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "please provide a config path using the --config flag")
		os.Exit(1)
	}

	config, err := readConfigFile(*configPath)
	if err != nil {
		slog.Error("failed to read config file", "path", *configPath, "error", err)
		os.Exit(1)
	}

	logging.InitLogger(config.LogLevel)
	slog.Info("using config", "path", *configPath)
	slog.Info("hosting on", "host", config.ServerConfig.Host, "port", config.ServerConfig.Port)

	ocrEngine := NewTesseractClient(config.OcrServerUrl, config.OcrLanguage)
	faceEngine := NewInsightFaceClient(config.FaceServerUrl)

	// Unreachable engines are worth a warning at startup, not a refusal:
	// they may simply still be loading their models
	if err := ocrEngine.HealthCheck(); err != nil {
		slog.Warn("OCR engine not reachable at startup", "url", config.OcrServerUrl, "error", err)
	}
	if err := faceEngine.HealthCheck(); err != nil {
		slog.Warn("Face engine not reachable at startup", "url", config.FaceServerUrl, "error", err)
	}

	sessionStore, err := createSessionStore(&config)
	if err != nil {
		slog.Error("failed to instantiate session storage", "error", err)
		os.Exit(1)
	}

	var attestor AttestationCreator
	if config.AttestationPrivateKeyPath != "" {
		attestor, err = NewRsaAttestationCreator(config.AttestationPrivateKeyPath, config.AttestationIssuerId)
		if err != nil {
			slog.Error("failed to instantiate attestation creator", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("No attestation private key configured, verdicts will not be signed")
	}

	validator := validation.New(
		ocr.NewNormalizer(ocrEngine),
		face.NewComparator(faceEngine, config.FaceMatchThreshold),
	)

	serverState := ServerState{
		sessionStore: sessionStore,
		validator:    validator,
		attestor:     attestor,
		ocrEngine:    ocrEngine,
		faceEngine:   faceEngine,
	}

	server, err := NewServer(&serverState, config.ServerConfig)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	err = server.ListenAndServe()
	if err != nil {
		slog.Error("failed to listen and serve", "error", err)
		os.Exit(1)
	}
}

func readConfigFile(path string) (Config, error) {
	configBytes, err := os.ReadFile(path)

	if err != nil {
		return Config{}, err
	}

	var config Config
	err = json.Unmarshal(configBytes, &config)

	if err != nil {
		return Config{}, err
	}

	return config, nil
}

func createSessionStore(config *Config) (SessionStore, error) {
	if config.StorageType == "redis" {
		slog.Info("Using redis session storage")
		client, err := redis.NewRedisClient(&config.RedisConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisSessionStore(client, config.RedisConfig.Namespace), nil
	}
	if config.StorageType == "redis_sentinel" {
		slog.Info("Using redis sentinel storage")
		client, err := redis.NewRedisSentinelClient(&config.RedisSentinelConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisSessionStore(client, config.RedisSentinelConfig.Namespace), nil
	}
	if config.StorageType == "memory" {
		slog.Info("Using in memory storage")
		return NewInMemorySessionStore(), nil
	}
	return nil, fmt.Errorf("%v is not a valid storage type", config.StorageType)
}
