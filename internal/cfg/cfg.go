package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"risk-model/internal/common"
	"risk-model/internal/ml"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type Settings struct {
	DataPath            string        `default:"ml/data/training_data.csv" validate:"required"`
	StorePath           string        // optional BoltDB directory; empty reads DataPath directly
	Dataset             string        `default:"training" validate:"required"`
	ModelPath           string        `default:"model/risk-model.json" validate:"required"`
	MetricsSnapshotPath string        `default:"ml/metrics_snapshot.json"`
	ModelsDir           string        `default:"model/versions"`
	Epochs              int           `default:"12000"`
	LearningRate        float64       `default:"0.015"`
	SplitRatio          float64       `default:"0.8" validate:"gt=0,lte=1"`
	LogLevel            string        `default:"info" validate:"oneof=trace debug info warn error fatal panic disabled"`
	LogFormat           string        `default:"console" validate:"oneof=console json"`
	MetricsPort         int           `default:"9102"`
	ServerPort          int           `default:"8090"`
	RetrainInterval     time.Duration `validate:"gte=0"` // zero disables periodic retraining
	FallbackVolPenalty  float64       `default:"0.5" validate:"gte=0"`
	PublishURL          string        `validate:"omitempty,url"`
	PublishTimeout      time.Duration `default:"5s"`
}

type ConfigFile struct {
	Data struct {
		Path      string `yaml:"path"`
		StorePath string `yaml:"storePath"`
		Dataset   string `yaml:"dataset"`
	} `yaml:"data"`

	Training struct {
		Epochs       int     `yaml:"epochs"`
		LearningRate float64 `yaml:"learningRate"`
		SplitRatio   float64 `yaml:"splitRatio"`
	} `yaml:"training"`

	Output struct {
		ModelPath           string `yaml:"modelPath"`
		MetricsSnapshotPath string `yaml:"metricsSnapshotPath"`
		ModelsDir           string `yaml:"modelsDir"`
	} `yaml:"output"`

	Server struct {
		Port               int     `yaml:"port"`
		RetrainInterval    string  `yaml:"retrainInterval"`
		FallbackVolPenalty float64 `yaml:"fallbackVolPenalty"`
	} `yaml:"server"`

	Publish struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"publish"`

	System struct {
		LogLevel    string `yaml:"logLevel"`
		LogFormat   string `yaml:"logFormat"`
		MetricsPort int    `yaml:"metricsPort"`
	} `yaml:"system"`
}

// Defaults returns Settings populated from the struct default tags only.
func Defaults() Settings {
	var settings Settings
	if err := defaults.Set(&settings); err != nil {
		panic(fmt.Sprintf("cfg: invalid default tags: %v", err))
	}
	return settings
}

// Load starts from Defaults, applies the YAML file named by CONFIG_FILE (if
// any), then environment variables. Only keys that are present override, so
// an explicit zero in the file or environment is kept.
func Load() (Settings, error) {
	settings := Defaults()

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		if err := loadFromYAML(configPath, &settings); err != nil {
			return Settings{}, err
		}
	}

	if err := loadFromEnv(&settings); err != nil {
		return Settings{}, err
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// toConfigFile mirrors settings into the file layout so that unmarshalling
// over it leaves absent keys untouched.
func toConfigFile(settings Settings) ConfigFile {
	var config ConfigFile
	config.Data.Path = settings.DataPath
	config.Data.StorePath = settings.StorePath
	config.Data.Dataset = settings.Dataset
	config.Training.Epochs = settings.Epochs
	config.Training.LearningRate = settings.LearningRate
	config.Training.SplitRatio = settings.SplitRatio
	config.Output.ModelPath = settings.ModelPath
	config.Output.MetricsSnapshotPath = settings.MetricsSnapshotPath
	config.Output.ModelsDir = settings.ModelsDir
	config.Server.Port = settings.ServerPort
	config.Server.RetrainInterval = settings.RetrainInterval.String()
	config.Server.FallbackVolPenalty = settings.FallbackVolPenalty
	config.Publish.URL = settings.PublishURL
	config.Publish.Timeout = settings.PublishTimeout.String()
	config.System.LogLevel = settings.LogLevel
	config.System.LogFormat = settings.LogFormat
	config.System.MetricsPort = settings.MetricsPort
	return config
}

func loadFromYAML(path string, settings *Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := toConfigFile(*settings)
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	retrain, err := parseDuration("server.retrainInterval", config.Server.RetrainInterval)
	if err != nil {
		return err
	}
	publishTimeout, err := parseDuration("publish.timeout", config.Publish.Timeout)
	if err != nil {
		return err
	}

	*settings = Settings{
		DataPath:            config.Data.Path,
		StorePath:           config.Data.StorePath,
		Dataset:             config.Data.Dataset,
		ModelPath:           config.Output.ModelPath,
		MetricsSnapshotPath: config.Output.MetricsSnapshotPath,
		ModelsDir:           config.Output.ModelsDir,
		Epochs:              config.Training.Epochs,
		LearningRate:        config.Training.LearningRate,
		SplitRatio:          config.Training.SplitRatio,
		LogLevel:            config.System.LogLevel,
		LogFormat:           config.System.LogFormat,
		MetricsPort:         config.System.MetricsPort,
		ServerPort:          config.Server.Port,
		RetrainInterval:     retrain,
		FallbackVolPenalty:  config.Server.FallbackVolPenalty,
		PublishURL:          config.Publish.URL,
		PublishTimeout:      publishTimeout,
	}
	return nil
}

// loadFromEnv overrides settings with any environment variables that are set.
func loadFromEnv(settings *Settings) error {
	settings.DataPath = getEnvOrDefault(common.EnvDataPath, settings.DataPath)
	settings.StorePath = getEnvOrDefault(common.EnvStorePath, settings.StorePath)
	settings.Dataset = getEnvOrDefault(common.EnvDataset, settings.Dataset)
	settings.ModelPath = getEnvOrDefault(common.EnvModelPath, settings.ModelPath)
	settings.MetricsSnapshotPath = getEnvOrDefault(common.EnvMetricsSnapshotPath, settings.MetricsSnapshotPath)
	settings.ModelsDir = getEnvOrDefault(common.EnvModelsDir, settings.ModelsDir)
	settings.LogLevel = strings.ToLower(getEnvOrDefault(common.EnvLogLevel, settings.LogLevel))
	settings.LogFormat = strings.ToLower(getEnvOrDefault(common.EnvLogFormat, settings.LogFormat))
	settings.PublishURL = getEnvOrDefault(common.EnvPublishURL, settings.PublishURL)

	var err error
	if settings.Epochs, err = getIntOrDefault(common.EnvEpochs, settings.Epochs); err != nil {
		return err
	}
	if settings.LearningRate, err = getFloatOrDefault(common.EnvLearningRate, settings.LearningRate); err != nil {
		return err
	}
	if settings.SplitRatio, err = getFloatOrDefault(common.EnvSplitRatio, settings.SplitRatio); err != nil {
		return err
	}
	if settings.MetricsPort, err = getIntOrDefault(common.EnvMetricsPort, settings.MetricsPort); err != nil {
		return err
	}
	if settings.ServerPort, err = getIntOrDefault(common.EnvServerPort, settings.ServerPort); err != nil {
		return err
	}
	if settings.RetrainInterval, err = getDurationOrDefault(common.EnvRetrainInterval, settings.RetrainInterval); err != nil {
		return err
	}
	if settings.FallbackVolPenalty, err = getFloatOrDefault(common.EnvFallbackVolPenalty, settings.FallbackVolPenalty); err != nil {
		return err
	}
	if settings.PublishTimeout, err = getDurationOrDefault(common.EnvPublishTimeout, settings.PublishTimeout); err != nil {
		return err
	}
	return nil
}

// Validate re-checks settings after command line overrides.
func (s *Settings) Validate() error {
	return validateSettings(s)
}

// Trainer returns the training hyper-parameters.
func (s *Settings) Trainer() ml.TrainerConfig {
	return ml.TrainerConfig{Epochs: s.Epochs, LearningRate: s.LearningRate}
}

// UsesStore reports whether training data is read from BoltDB.
func (s *Settings) UsesStore() bool {
	return s.StorePath != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return i, nil
}

func getFloatOrDefault(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return parseDuration(key, v)
}

func parseDuration(name, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return d, nil
}

// validateSettings checks field ranges with struct tags, then the rules that
// span several fields.
func validateSettings(settings *Settings) error {
	if err := validate.Struct(settings); err != nil {
		return err
	}

	if settings.Epochs < common.MinEpochs || settings.Epochs > common.MaxEpochs {
		return fmt.Errorf("epochs must be between %d and %d, got %d", common.MinEpochs, common.MaxEpochs, settings.Epochs)
	}
	if settings.LearningRate <= 0 || settings.LearningRate > common.MaxLearningRate {
		return fmt.Errorf("learning rate must be in (0, %g], got %g", common.MaxLearningRate, settings.LearningRate)
	}
	if settings.MetricsPort < common.MinMetricsPort || settings.MetricsPort > common.MaxMetricsPort {
		return fmt.Errorf("metrics port must be between %d and %d, got %d", common.MinMetricsPort, common.MaxMetricsPort, settings.MetricsPort)
	}
	if settings.ServerPort < common.MinMetricsPort || settings.ServerPort > common.MaxMetricsPort {
		return fmt.Errorf("server port must be between %d and %d, got %d", common.MinMetricsPort, common.MaxMetricsPort, settings.ServerPort)
	}
	if settings.MetricsPort == settings.ServerPort {
		return fmt.Errorf("metrics port and server port must differ, both are %d", settings.MetricsPort)
	}
	if settings.PublishURL != "" && settings.PublishTimeout <= 0 {
		return fmt.Errorf("publish timeout must be positive when a publish URL is set, got %v", settings.PublishTimeout)
	}
	if settings.RetrainInterval > 0 && settings.RetrainInterval < time.Second {
		return fmt.Errorf("retrain interval must be at least 1s, got %v", settings.RetrainInterval)
	}

	return nil
}
