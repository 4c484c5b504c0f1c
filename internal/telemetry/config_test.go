package telemetry_test

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/WOTOOOOOO/FAQ-tool/internal/telemetry"
)

// startupSettings re-runs the test binary with exactly env and returns the
// settings line printed by TestStartupSettingsChild. The switches are read
// once at init, so only a fresh process shows their defaults.
func startupSettings(t *testing.T, env ...string) string {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run=^TestStartupSettingsChild$")
	cmd.Env = append([]string{"FAQ_TELEMETRY_CHILD=1", "PATH=" + os.Getenv("PATH")}, env...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("child: %v\n%s", err, out)
	}
	for _, line := range strings.Split(string(out), "\n") {
		if rest, ok := strings.CutPrefix(line, "settings: "); ok {
			return rest
		}
	}
	t.Fatalf("no settings line in child output:\n%s", out)
	return ""
}

func TestStartupSettingsChild(t *testing.T) {
	if os.Getenv("FAQ_TELEMETRY_CHILD") != "1" {
		return
	}
	fmt.Printf("settings: calibration=%v events=%v payloads=%v dir=%s\n",
		telemetry.CalibrationModeEnabled(),
		telemetry.ObserveEnabled(),
		telemetry.PersistPayloadsEnabled(),
		telemetry.ArtifactsDir(),
	)
}

func TestStartupSettings(t *testing.T) {
	cases := []struct {
		name string
		env  []string
		want string
	}{
		{"all off by default", nil,
			"calibration=false events=false payloads=false dir=.faqtool"},
		{"calibration turns on events and payloads", []string{"FAQ_CALIBRATION_MODE=1"},
			"calibration=true events=true payloads=true dir=.faqtool"},
		{"calibration keeps an explicit events off", []string{"FAQ_CALIBRATION_MODE=1", "FAQ_OBSERVE_JSON=0"},
			"calibration=true events=false payloads=true dir=.faqtool"},
		{"events alone", []string{"FAQ_OBSERVE_JSON=1"},
			"calibration=false events=true payloads=false dir=.faqtool"},
		{"payloads alone", []string{"FAQ_PERSIST_API_PAYLOADS=1"},
			"calibration=false events=false payloads=true dir=.faqtool"},
		{"artifacts dir override", []string{"FAQ_OBSERVE_JSON=1", "FAQ_ARTIFACTS_DIR=/var/tmp/faq-runs"},
			"calibration=false events=true payloads=false dir=/var/tmp/faq-runs"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := startupSettings(t, tc.env...); got != tc.want {
				t.Fatalf("settings:\n got %s\nwant %s", got, tc.want)
			}
		})
	}
}

func TestObserveEnabled_FollowsEnvAfterStartup(t *testing.T) {
	t.Setenv("FAQ_OBSERVE_JSON", "1")
	if !telemetry.ObserveEnabled() {
		t.Fatal("FAQ_OBSERVE_JSON=1 should enable events")
	}
	t.Setenv("FAQ_OBSERVE_JSON", "0")
	if telemetry.ObserveEnabled() {
		t.Fatal("FAQ_OBSERVE_JSON=0 should disable events")
	}
}

func TestArtifactsDir_EmptyMeansDefault(t *testing.T) {
	t.Setenv("FAQ_ARTIFACTS_DIR", "")
	if got := telemetry.ArtifactsDir(); got != telemetry.DefaultDir {
		t.Fatalf("ArtifactsDir() = %q, want %q", got, telemetry.DefaultDir)
	}
}
