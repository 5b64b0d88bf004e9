package di

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/wire"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"stuffmd/application/engine"
	"stuffmd/application/ports"
	"stuffmd/infrastructure/categorizer"
	"stuffmd/infrastructure/config"
	dynamostore "stuffmd/infrastructure/persistence/dynamodb"
	memorystore "stuffmd/infrastructure/persistence/memory"
	"stuffmd/interfaces/http/rest"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	NoteStore   ports.NoteStore
	Categorizer ports.Categorizer
	Engine      *engine.Engine
	Handler     http.Handler
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideNoteStore,
	ProvideCategorizer,
	ProvideEngine,
	ProvideHTTPHandler,
	wire.Struct(new(Container), "*"),
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	if cfg.StoreDriver != config.StoreDriverDynamoDB {
		// Nothing consumes it; skip the credential chain lookup
		return aws.Config{}, nil
	}
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideNoteStore selects the store backend from configuration
func ProvideNoteStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.NoteStore {
	if cfg.StoreDriver == config.StoreDriverDynamoDB {
		return dynamostore.NewNoteStore(client, cfg.DynamoDBTable, cfg.TenantID, logger)
	}
	logger.Info("Using in-memory note store")
	return memorystore.NewNoteStore()
}

// ProvideCategorizer creates the Gemini-backed categorizer
func ProvideCategorizer(cfg *config.Config, logger *zap.Logger) ports.Categorizer {
	return categorizer.NewGeminiCategorizer(categorizer.GeminiConfig{
		Endpoint: cfg.GeminiEndpoint,
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.GeminiModel,
		Timeout:  cfg.GeminiTimeout,
	}, logger)
}

// ProvideEngine creates the note lifecycle engine
func ProvideEngine(store ports.NoteStore, cat ports.Categorizer, logger *zap.Logger) *engine.Engine {
	return engine.New(store, cat, logger)
}

// ProvideHTTPHandler creates the configured HTTP handler
func ProvideHTTPHandler(eng *engine.Engine, cfg *config.Config, logger *zap.Logger) http.Handler {
	return rest.NewRouter(eng, cfg, logger).Setup()
}
