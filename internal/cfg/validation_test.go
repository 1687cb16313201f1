package cfg

import (
	"strings"
	"testing"
	"time"
)

// createValidSettings creates a valid Settings struct for testing
func createValidSettings() *Settings {
	return &Settings{
		DataPath:            "ml/data/training_data.csv",
		Dataset:             "training",
		ModelPath:           "model/risk-model.json",
		MetricsSnapshotPath: "ml/metrics_snapshot.json",
		ModelsDir:           "model/versions",
		Epochs:              12000,
		LearningRate:        0.015,
		SplitRatio:          0.8,
		LogLevel:            "info",
		LogFormat:           "console",
		MetricsPort:         9102,
		ServerPort:          8090,
		FallbackVolPenalty:  0.5,
		PublishTimeout:      5 * time.Second,
	}
}

func TestValidateSettings_ValidConfig(t *testing.T) {
	settings := createValidSettings()

	if err := validateSettings(settings); err != nil {
		t.Errorf("Expected valid config to pass, got error: %v", err)
	}
}

func TestValidateSettings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		message string
	}{
		{"missing data path", func(s *Settings) { s.DataPath = "" }, "DataPath"},
		{"missing model path", func(s *Settings) { s.ModelPath = "" }, "ModelPath"},
		{"zero epochs", func(s *Settings) { s.Epochs = 0 }, "epochs"},
		{"too many epochs", func(s *Settings) { s.Epochs = 20_000_000 }, "epochs"},
		{"zero learning rate", func(s *Settings) { s.LearningRate = 0 }, "learning rate"},
		{"learning rate above one", func(s *Settings) { s.LearningRate = 1.5 }, "learning rate"},
		{"zero split ratio", func(s *Settings) { s.SplitRatio = 0 }, "SplitRatio"},
		{"split ratio above one", func(s *Settings) { s.SplitRatio = 1.01 }, "SplitRatio"},
		{"bad log format", func(s *Settings) { s.LogFormat = "xml" }, "LogFormat"},
		{"privileged metrics port", func(s *Settings) { s.MetricsPort = 80 }, "metrics port"},
		{"server port out of range", func(s *Settings) { s.ServerPort = 70000 }, "server port"},
		{"same ports", func(s *Settings) { s.ServerPort = s.MetricsPort }, "must differ"},
		{"negative fallback penalty", func(s *Settings) { s.FallbackVolPenalty = -1 }, "FallbackVolPenalty"},
		{"negative retrain interval", func(s *Settings) { s.RetrainInterval = -time.Minute }, "RetrainInterval"},
		{"publish without timeout", func(s *Settings) {
			s.PublishURL = "http://localhost:8080"
			s.PublishTimeout = 0
		}, "publish timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := createValidSettings()
			tt.mutate(settings)

			err := validateSettings(settings)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("Expected error mentioning %q, got: %v", tt.message, err)
			}
		})
	}
}

func TestValidateSettings_SplitRatioOfOne(t *testing.T) {
	settings := createValidSettings()
	settings.SplitRatio = 1.0

	// The split still keeps at least one row for evaluation.
	if err := validateSettings(settings); err != nil {
		t.Errorf("Expected split ratio 1.0 to be accepted, got: %v", err)
	}
}
