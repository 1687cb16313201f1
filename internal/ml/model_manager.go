package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// ModelVersion represents one persisted training run
type ModelVersion struct {
	Version   string    `json:"version"`
	RunID     string    `json:"run_id"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	Metrics   Metrics   `json:"metrics"`
	IsActive  bool      `json:"is_active"`
}

// ModelManager persists artifacts and keeps a version history with
// activation and rollback. Each saved run is also copied into modelsDir so a
// previous model can be restored to the live model path.
type ModelManager struct {
	modelsDir    string
	versionsFile string
	versions     []ModelVersion
	currentModel *ModelVersion
}

// NewModelManager creates a new model manager
func NewModelManager(modelsDir string) (*ModelManager, error) {
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create models dir: %w", err)
	}

	mm := &ModelManager{
		modelsDir:    modelsDir,
		versionsFile: filepath.Join(modelsDir, "model_versions.json"),
		versions:     make([]ModelVersion, 0),
	}

	// Load existing versions if available
	if err := mm.loadVersions(); err != nil {
		log.Warn().Err(err).Msg("Failed to load model versions, starting fresh")
	}

	return mm, nil
}

// WriteJSON writes v as indented JSON followed by a newline, creating parent
// directories as needed.
func WriteJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Publish writes the artifact to modelPath and the snapshot to
// snapshotPath, records a new version and activates it.
func (mm *ModelManager) Publish(a ModelArtifact, modelPath, snapshotPath string) (*ModelVersion, error) {
	if err := WriteJSON(modelPath, a); err != nil {
		return nil, err
	}
	if snapshotPath != "" {
		if err := WriteJSON(snapshotPath, BuildSnapshot(a)); err != nil {
			return nil, err
		}
	}

	v, err := mm.AddVersion(a)
	if err != nil {
		return nil, err
	}
	if err := mm.ActivateVersion(v.Version); err != nil {
		return nil, err
	}

	log.Info().
		Str("model_path", modelPath).
		Str("snapshot_path", snapshotPath).
		Str("version", v.Version).
		Msg("Model artifact written")
	return mm.currentModel, nil
}

// AddVersion copies the artifact into the models directory and records it
func (mm *ModelManager) AddVersion(a ModelArtifact) (ModelVersion, error) {
	version := a.GeneratedAt.UTC().Format("20060102-150405.000000000")
	path := filepath.Join(mm.modelsDir, "risk-model-"+version+".json")
	if err := WriteJSON(path, a); err != nil {
		return ModelVersion{}, err
	}

	v := ModelVersion{
		Version:   version,
		RunID:     a.RunID,
		Path:      path,
		CreatedAt: a.GeneratedAt,
		Metrics:   a.Metrics,
		IsActive:  false,
	}

	// Add to versions list, newest first
	mm.versions = append(mm.versions, v)
	sort.SliceStable(mm.versions, func(i, j int) bool {
		return mm.versions[i].CreatedAt.After(mm.versions[j].CreatedAt)
	})
	mm.resolveCurrent()

	return v, mm.saveVersions()
}

// ActivateVersion activates a specific model version
func (mm *ModelManager) ActivateVersion(version string) error {
	found := false
	for i := range mm.versions {
		if mm.versions[i].Version == version {
			mm.versions[i].IsActive = true
			found = true
		} else {
			mm.versions[i].IsActive = false
		}
	}

	if !found {
		return fmt.Errorf("version %s not found", version)
	}
	mm.resolveCurrent()

	return mm.saveVersions()
}

// Rollback activates the version trained before the active one and copies
// its artifact back to modelPath.
func (mm *ModelManager) Rollback(modelPath string) (*ModelVersion, error) {
	if len(mm.versions) < 2 {
		return nil, fmt.Errorf("no previous version available for rollback")
	}

	currentIdx := -1
	for i, v := range mm.versions {
		if v.IsActive {
			currentIdx = i
			break
		}
	}

	if currentIdx == -1 {
		return nil, fmt.Errorf("no active version found")
	}
	if currentIdx+1 >= len(mm.versions) {
		return nil, fmt.Errorf("no previous version available")
	}

	prev := mm.versions[currentIdx+1]
	data, err := os.ReadFile(prev.Path)
	if err != nil {
		return nil, fmt.Errorf("read version %s: %w", prev.Version, err)
	}
	if err := os.WriteFile(modelPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("restore version %s: %w", prev.Version, err)
	}

	if err := mm.ActivateVersion(prev.Version); err != nil {
		return nil, err
	}
	return mm.currentModel, nil
}

// GetCurrentVersion returns the currently active version
func (mm *ModelManager) GetCurrentVersion() *ModelVersion {
	return mm.currentModel
}

// ListVersions returns all model versions, newest first
func (mm *ModelManager) ListVersions() []ModelVersion {
	return mm.versions
}

func (mm *ModelManager) resolveCurrent() {
	mm.currentModel = nil
	for i := range mm.versions {
		if mm.versions[i].IsActive {
			mm.currentModel = &mm.versions[i]
			return
		}
	}
}

// loadVersions loads model versions from file
func (mm *ModelManager) loadVersions() error {
	data, err := os.ReadFile(mm.versionsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := json.Unmarshal(data, &mm.versions); err != nil {
		return err
	}
	mm.resolveCurrent()

	return nil
}

// saveVersions saves model versions to file
func (mm *ModelManager) saveVersions() error {
	data, err := json.MarshalIndent(mm.versions, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(mm.versionsFile, data, 0o600)
}
