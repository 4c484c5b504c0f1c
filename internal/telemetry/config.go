package telemetry

import (
	"os"
	"path/filepath"
)

// DefaultDir is where events and payloads go when FAQ_ARTIFACTS_DIR is unset.
const DefaultDir = ".faqtool"

var (
	calibrationModeEnabled bool
	observeEnabled         bool
	persistPayloadsEnabled bool
)

func init() {
	// Read once at process start. Mid-run environment changes have no effect.
	calibrationModeEnabled = os.Getenv("FAQ_CALIBRATION_MODE") == "1"

	// Observe: default to 1 when calibration=1 and FAQ_OBSERVE_JSON is unset; honour explicit 0/1.
	if v, ok := os.LookupEnv("FAQ_OBSERVE_JSON"); ok {
		observeEnabled = (v == "1")
	} else {
		observeEnabled = calibrationModeEnabled
	}

	// Persist payloads: default to 1 when calibration=1 and FAQ_PERSIST_API_PAYLOADS is unset; honour explicit 0/1.
	if v, ok := os.LookupEnv("FAQ_PERSIST_API_PAYLOADS"); ok {
		persistPayloadsEnabled = (v == "1")
	} else {
		persistPayloadsEnabled = calibrationModeEnabled
	}
}

// CalibrationModeEnabled reports whether calibration mode was enabled at startup.
// Calibration mode records query features and retrieval scores used to tune
// retrieval.min_confidence and llm.context_budget.
func CalibrationModeEnabled() bool {
	// Allow tests to flip calibration mid-run via env override.
	if v, ok := os.LookupEnv("FAQ_CALIBRATION_MODE"); ok {
		return v == "1"
	}
	return calibrationModeEnabled
}

// ObserveEnabled reports whether JSONL emission was enabled at startup, considering calibration defaults.
func ObserveEnabled() bool {
	// Preserve startup-evaluated default, but allow tests to enable mid-run via env override.
	if os.Getenv("FAQ_OBSERVE_JSON") == "1" {
		return true
	}
	if os.Getenv("FAQ_OBSERVE_JSON") == "0" {
		return false
	}
	return observeEnabled
}

// PersistPayloadsEnabled reports whether request and response payload persistence was enabled at startup.
func PersistPayloadsEnabled() bool {
	if os.Getenv("FAQ_PERSIST_API_PAYLOADS") == "1" {
		return true
	}
	return persistPayloadsEnabled
}

// ArtifactsDir returns the directory for events.jsonl and persisted payloads.
func ArtifactsDir() string {
	if d := os.Getenv("FAQ_ARTIFACTS_DIR"); d != "" {
		return d
	}
	return DefaultDir
}

func eventsPath() string {
	return filepath.Join(ArtifactsDir(), "events.jsonl")
}
