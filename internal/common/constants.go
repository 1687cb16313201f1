package common

// Environment variable keys
const (
	EnvConfigFile          = "CONFIG_FILE"
	EnvDataPath            = "DATA_PATH"
	EnvStorePath           = "STORE_PATH"
	EnvDataset             = "DATASET"
	EnvModelPath           = "MODEL_PATH"
	EnvMetricsSnapshotPath = "METRICS_SNAPSHOT_PATH"
	EnvModelsDir           = "MODELS_DIR"
	EnvEpochs              = "EPOCHS"
	EnvLearningRate        = "LEARNING_RATE"
	EnvSplitRatio          = "SPLIT_RATIO"
	EnvLogLevel            = "LOG_LEVEL"
	EnvLogFormat           = "LOG_FORMAT"
	EnvMetricsPort         = "METRICS_PORT"
	EnvServerPort          = "ML_SERVER_PORT"
	EnvRetrainInterval     = "RETRAIN_INTERVAL"
	EnvFallbackVolPenalty  = "FALLBACK_VOL_PENALTY"
	EnvPublishURL          = "PUBLISH_URL"
	EnvPublishTimeout      = "PUBLISH_TIMEOUT"
)

// Model description
const (
	ModelType      = "linear_regression"
	TargetName     = "realizedDrawdownPct"
	AlgorithmName  = "batch gradient descent"
	FeatureScaling = "z-score"
	GeneratedBy    = "cmd/trainer"
)

// CSV column names of the training source
const (
	ColumnVolatility          = "volatility"
	ColumnMaxLossPct          = "maxLossPct"
	ColumnRealizedDrawdownPct = "realizedDrawdownPct"
)

// Validation constants
const (
	MinEpochs       = 1
	MaxEpochs       = 10_000_000
	MinMetricsPort  = 1024
	MaxMetricsPort  = 65535
	MaxLearningRate = 1.0
)
