package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PersistPayload stores a provider request or response for offline inspection
// when FAQ_PERSIST_API_PAYLOADS=1. Files land in <artifacts>/payloads/ and are
// named <turn>-<label>.json. Unlike events, payloads contain raw text.
func PersistPayload(turnID, label string, v any) {
	if !PersistPayloadsEnabled() {
		return
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: marshal payload: %v\n", err)
		return
	}

	dir := filepath.Join(ArtifactsDir(), "payloads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: mkdir %s: %v\n", dir, err)
		return
	}
	name := sanitize(turnID) + "-" + sanitize(label) + ".json"
	if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: write payload: %v\n", err)
	}
}

func sanitize(s string) string {
	if s == "" {
		return "none"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
