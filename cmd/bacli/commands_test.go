package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/bacli/bacli/internal/bitaxe"
	"github.com/bacli/bacli/internal/config"
	"github.com/bacli/bacli/internal/scanner"
	"github.com/bacli/bacli/internal/ui"
	"github.com/bacli/bacli/internal/upgrade"
)

// runCLI executes the root command with args against a fresh config file.
func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))

	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func tempConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.yaml")
}

func newDeviceServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func systemInfoHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/system/info" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"hostname":"bitaxe","boardVersion":"204","version":"v2.4.0","hashRate":512.4,"uptimeSeconds":3600}`)
}

func TestInfoCommand(t *testing.T) {
	address := newDeviceServer(t, systemInfoHandler)
	cfg := tempConfig(t)

	out, err := runCLI(t, cfg, "info", address)
	if err != nil {
		t.Fatalf("info error = %v", err)
	}
	for _, want := range []string{"Address:   " + address, "ESP Miner: v2.4.0", "Hash Rate: 512 GH/s", "Uptime:    1h0m0s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, cfg, "info", address, "--json")
	if err != nil {
		t.Fatalf("info --json error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("--json output is not JSON: %v\n%s", err, out)
	}
	if decoded["version"] != "v2.4.0" {
		t.Errorf("version = %v, want v2.4.0", decoded["version"])
	}
}

func TestInfoCommand_ResolvesAlias(t *testing.T) {
	address := newDeviceServer(t, systemInfoHandler)
	cfg := tempConfig(t)

	if _, err := runCLI(t, cfg, "alias", address, "garage"); err != nil {
		t.Fatalf("alias error = %v", err)
	}

	out, err := runCLI(t, cfg, "info", "garage")
	if err != nil {
		t.Fatalf("info garage error = %v", err)
	}
	if !strings.Contains(out, address) {
		t.Errorf("alias should resolve to %s:\n%s", address, out)
	}
}

func TestInfoCommand_RedirectIsInvalidRequest(t *testing.T) {
	address := newDeviceServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusFound)
	})

	_, err := runCLI(t, tempConfig(t), "info", address)
	if !bitaxe.IsInvalidRequest(err) {
		t.Fatalf("error = %v, want invalid request", err)
	}
	if bitaxe.StatusCode(err) != http.StatusFound {
		t.Errorf("StatusCode = %d, want 302", bitaxe.StatusCode(err))
	}
}

func TestAliasAndList(t *testing.T) {
	cfg := tempConfig(t)

	out, err := runCLI(t, cfg, "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(out, "No devices currently configured.") {
		t.Errorf("empty list output = %q", out)
	}

	out, err = runCLI(t, cfg, "alias", "10.0.0.5", "garage")
	if err != nil {
		t.Fatalf("alias error = %v", err)
	}
	for _, want := range []string{"Device saved", "garage", "Config:"} {
		if !strings.Contains(out, want) {
			t.Errorf("alias output missing %q:\n%s", want, out)
		}
	}
	if _, err := runCLI(t, cfg, "alias", "10.0.0.5", "shed"); err != nil {
		t.Fatalf("re-alias error = %v", err)
	}

	out, err = runCLI(t, cfg, "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(out, "10.0.0.5") || !strings.Contains(out, "shed") {
		t.Errorf("list output missing device:\n%s", out)
	}
	if strings.Contains(out, "garage") {
		t.Errorf("alias should have been replaced:\n%s", out)
	}

	if _, err := runCLI(t, cfg, "alias", "shed", "--remove"); err != nil {
		t.Fatalf("alias --remove error = %v", err)
	}
	if _, err := runCLI(t, cfg, "alias", "shed", "--remove"); err == nil {
		t.Error("removing an unknown device should fail")
	}
}

func TestAliasCommand_Args(t *testing.T) {
	if _, err := runCLI(t, tempConfig(t), "alias", "10.0.0.5"); err == nil {
		t.Error("alias without a name should fail")
	}
}

func TestUpdateSettingsCommand(t *testing.T) {
	var got map[string]any
	address := newDeviceServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/system" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
	})

	_, err := runCLI(t, tempConfig(t), "update-settings", address, "--frequency", "575", "--auto-fan-speed=false", "--hostname", "garage")
	if err != nil {
		t.Fatalf("update-settings error = %v", err)
	}

	want := map[string]any{"frequency": 575.0, "autofanspeed": 0.0, "hostname": "garage"}
	if len(got) != len(want) {
		t.Errorf("payload = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("payload[%s] = %v, want %v", k, got[k], v)
		}
	}
}

func TestSettingsFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		check   func(t *testing.T, s bitaxe.Settings)
	}{
		{
			name:    "nothing set",
			args:    nil,
			wantErr: true,
		},
		{
			name: "numbers",
			args: []string{"--fan-speed", "80", "--core-voltage", "1200", "--stratum-port", "3333"},
			check: func(t *testing.T, s bitaxe.Settings) {
				if s.FanSpeed == nil || *s.FanSpeed != 80 {
					t.Errorf("FanSpeed = %v", s.FanSpeed)
				}
				if s.CoreVoltage == nil || *s.CoreVoltage != bitaxe.Voltage1200 {
					t.Errorf("CoreVoltage = %v", s.CoreVoltage)
				}
				if s.StratumPort == nil || *s.StratumPort != 3333 {
					t.Errorf("StratumPort = %v", s.StratumPort)
				}
				if s.Hostname != nil || s.Frequency != nil {
					t.Error("unset flags should stay nil")
				}
			},
		},
		{
			name: "explicit false is sent",
			args: []string{"--overheat-mode=false"},
			check: func(t *testing.T, s bitaxe.Settings) {
				if s.OverheatMode == nil || *s.OverheatMode {
					t.Errorf("OverheatMode = %v, want false", s.OverheatMode)
				}
			},
		},
		{name: "fan speed out of range", args: []string{"--fan-speed", "300"}, wantErr: true},
		{name: "unsupported frequency", args: []string{"--frequency", "123"}, wantErr: true},
		{name: "unsupported voltage", args: []string{"--core-voltage", "900"}, wantErr: true},
		{name: "port out of range", args: []string{"--fallback-stratum-port", "70000"}, wantErr: true},
		{name: "bad hostname", args: []string{"--hostname", "my.host"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sf := &settingsFlags{}
			cmd := &cobra.Command{}
			sf.register(cmd)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags() error = %v", err)
			}

			s, err := sf.settings(cmd)
			if (err != nil) != tt.wantErr {
				t.Fatalf("settings() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestReportScan(t *testing.T) {
	store, err := config.Load(tempConfig(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	alias := "garage"
	store.Upsert("10.0.0.5", &alias)

	results := []scanner.Result{
		{Address: "10.0.0.5", Info: &bitaxe.SystemInfo{BoardVersion: "204", Version: "v2.4.0"}},
		{Address: "10.0.0.9", Info: &bitaxe.SystemInfo{BoardVersion: "401", Version: "v2.3.0"}},
	}

	rows := scanRows(store, results)
	if rows[0][1] != "garage" || rows[1][1] != ui.Placeholder {
		t.Errorf("aliases = %q, %q", rows[0][1], rows[1][1])
	}

	var buf bytes.Buffer
	if err := reportScan(&buf, store, results, true); err != nil {
		t.Fatalf("reportScan() error = %v", err)
	}
	if !strings.Contains(buf.String(), "New devices saved") || !strings.Contains(buf.String(), "Added:") {
		t.Errorf("output = %s", buf.String())
	}

	reloaded, err := config.Load(store.Path())
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	devices := reloaded.Devices()
	if len(devices) != 2 || devices[1].Base != "10.0.0.9" || devices[0].Alias != "garage" {
		t.Errorf("saved devices = %+v", devices)
	}

	// Nothing new, nothing saved
	buf.Reset()
	if err := reportScan(&buf, store, results, true); err != nil {
		t.Fatalf("reportScan() error = %v", err)
	}
	if strings.Contains(buf.String(), "New devices saved") {
		t.Errorf("second save should be a no-op: %s", buf.String())
	}
}

func TestReportScan_Empty(t *testing.T) {
	store, _ := config.Load(tempConfig(t))

	var buf bytes.Buffer
	if err := reportScan(&buf, store, nil, true); err != nil {
		t.Fatalf("reportScan() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No devices found") {
		t.Errorf("output = %s", buf.String())
	}
}

type stepCall struct {
	step    int
	status  ui.StepStatus
	message string
}

func TestUpgradeSteps(t *testing.T) {
	var calls []stepCall
	steps := &upgradeSteps{
		maxPolls: 60,
		onStep: func(step int, status ui.StepStatus, message string) {
			calls = append(calls, stepCall{step, status, message})
		},
	}

	base := upgrade.State{CurrentVersion: "v2.3.0", TargetVersion: "v2.4.0"}
	for _, phase := range []upgrade.Phase{
		upgrade.PhaseChecking,
		upgrade.PhaseOutOfDate,
		upgrade.PhaseExecuting,
		upgrade.PhaseUploadingFirmware,
		upgrade.PhaseAwaitingRestart,
	} {
		s := base
		s.Phase = phase
		steps.observe(s)
	}
	s := base
	s.Phase = upgrade.PhaseAwaitingRestart
	s.PollAttempt = 2
	steps.observe(s)
	s.Phase = upgrade.PhaseUploadingAssets
	steps.observe(s)
	s.Phase = upgrade.PhaseDone
	steps.observe(s)

	want := []stepCall{
		{stepCheck, ui.StepRunning, ""},
		{stepCheck, ui.StepComplete, "v2.3.0 → v2.4.0"},
		{stepFirmware, ui.StepRunning, upgrade.FirmwareAsset},
		{stepFirmware, ui.StepComplete, ""},
		{stepRestart, ui.StepRunning, ""},
		{stepRestart, ui.StepRunning, "poll 2/60"},
		{stepRestart, ui.StepComplete, "back after 2 polls"},
		{stepAssets, ui.StepRunning, upgrade.WWWAsset},
		{stepAssets, ui.StepComplete, ""},
	}

	if len(calls) != len(want) {
		t.Fatalf("got %d calls %+v, want %d", len(calls), calls, len(want))
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, calls[i], want[i])
		}
	}
}

func TestUpgradeSteps_FailureMarksRunningStep(t *testing.T) {
	var last stepCall
	steps := &upgradeSteps{onStep: func(step int, status ui.StepStatus, message string) {
		last = stepCall{step, status, message}
	}}

	steps.observe(upgrade.State{Phase: upgrade.PhaseUploadingFirmware})
	steps.observe(upgrade.State{Phase: upgrade.PhaseFailed})

	if last.step != stepFirmware || last.status != ui.StepFailed {
		t.Errorf("last call = %+v, want firmware step failed", last)
	}
}

func TestUpgradeSteps_UpToDateSkipsRest(t *testing.T) {
	statuses := map[int]ui.StepStatus{}
	steps := &upgradeSteps{onStep: func(step int, status ui.StepStatus, message string) {
		statuses[step] = status
	}}

	steps.observe(upgrade.State{Phase: upgrade.PhaseChecking})
	steps.observe(upgrade.State{Phase: upgrade.PhaseUpToDate, CurrentVersion: "v2.4.0"})

	if statuses[stepCheck] != ui.StepComplete {
		t.Errorf("check step = %v, want complete", statuses[stepCheck])
	}
	for step := stepFirmware; step <= stepAssets; step++ {
		if statuses[step] != ui.StepSkipped {
			t.Errorf("step %d = %v, want skipped", step, statuses[step])
		}
	}
}

func TestUpgradeTroubleshooting(t *testing.T) {
	err := &upgrade.PhaseError{Phase: upgrade.PhaseAwaitingRestart, Err: upgrade.ErrRestartTimeout}

	tips := upgradeTroubleshooting(err)
	joined := strings.Join(tips, "\n")
	if !strings.Contains(joined, "--max-polls") || !strings.Contains(joined, "reflash") {
		t.Errorf("tips = %q", tips)
	}

	if tips := upgradeTroubleshooting(&upgrade.PhaseError{Phase: upgrade.PhaseChecking, Err: io.EOF}); len(tips) != 0 {
		t.Errorf("check failure tips = %q, want none", tips)
	}
}

func TestUpgradePlan(t *testing.T) {
	plan := upgradePlan("v2.4.0")
	for _, want := range []string{"v2.4.0", "/api/system/OTA", "/api/system/OTAWWW", "Pass --execute to run the update."} {
		if !strings.Contains(plan, want) {
			t.Errorf("plan missing %q:\n%s", want, plan)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, tempConfig(t), "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "bacli ") {
		t.Errorf("version output = %q", out)
	}
}
