package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kwv/chamferview/cloud"
)

// newTestApp returns an App writing to a buffer, seeded for repeatable clouds
func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp()
	app.Out = &out
	app.Seed = 11
	return app, &out
}

func TestNewApp(t *testing.T) {
	app := NewApp()
	if app == nil {
		t.Fatal("NewApp returned nil")
		return
	}
	if app.Out == nil {
		t.Error("Out should default to stdout")
	}
}

func TestApplyOptions(t *testing.T) {
	app := NewApp()
	opts := AppOptions{
		ConfigFile:   "test-config.yaml",
		WriteConfig:  "out.yaml",
		DataMode:     "Uniform",
		EditMode:     "Rotate",
		Points:       64,
		Seed:         3,
		OutputFile:   "scene.svg",
		RenderFormat: "vector",
		OffsetX:      1,
		OffsetY:      -1,
		Angle:        0.5,
		HttpPort:     9999,
		MqttMode:     true,
		HttpMode:     true,
	}

	app.ApplyOptions(opts)

	if app.ConfigFile != "test-config.yaml" {
		t.Errorf("expected ConfigFile test-config.yaml, got %s", app.ConfigFile)
	}
	if app.DataMode != "Uniform" || app.EditMode != "Rotate" {
		t.Errorf("unexpected modes %s/%s", app.DataMode, app.EditMode)
	}
	if app.Points != 64 || app.Seed != 3 {
		t.Errorf("unexpected points/seed %d/%d", app.Points, app.Seed)
	}
	want := cloud.Pose{OffsetX: 1, OffsetY: -1, Angle: 0.5}
	if app.Pose != want {
		t.Errorf("expected pose %+v, got %+v", want, app.Pose)
	}
	if app.HttpPort != 9999 || !app.MqttMode || !app.HttpMode {
		t.Error("service options not applied")
	}
	if app.OutputFile != "scene.svg" || app.RenderFormat != "vector" {
		t.Error("render options not applied")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	app, _ := newTestApp(t)

	config, err := app.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if config.DataMode != cloud.Clusters {
		t.Errorf("expected default data mode Clusters, got %s", config.DataMode)
	}
	if config.Seed != 11 {
		t.Errorf("expected seed override 11, got %d", config.Seed)
	}
}

func TestLoadConfig_MissingDefaultFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	app, _ := newTestApp(t)
	app.ConfigFile = defaultConfigFile

	if _, err := app.loadConfig(); err != nil {
		t.Fatalf("expected defaults when %s is absent, got %v", defaultConfigFile, err)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	app, _ := newTestApp(t)
	app.ConfigFile = filepath.Join(t.TempDir(), "absent.yaml")

	_, err := app.loadConfig()
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("points: 40\ndataMode: Gaussian\nhttp:\n  port: 8100\n"), 0644); err != nil {
		t.Fatal(err)
	}

	app, _ := newTestApp(t)
	app.ConfigFile = path
	app.DataMode = "grid"
	app.EditMode = "rotate"
	app.Points = 80
	app.HttpPort = 8200

	config, err := app.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if config.DataMode != cloud.Grid {
		t.Errorf("expected Grid, got %s", config.DataMode)
	}
	if config.EditMode != cloud.Rotate {
		t.Errorf("expected Rotate, got %s", config.EditMode)
	}
	if config.Points != 80 {
		t.Errorf("expected 80 points, got %d", config.Points)
	}
	if config.HTTP.Port != 8200 {
		t.Errorf("expected port 8200, got %d", config.HTTP.Port)
	}
}

func TestLoadConfig_BadOverrides(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *App)
	}{
		{"data mode", func(a *App) { a.DataMode = "spiral" }},
		{"edit mode", func(a *App) { a.EditMode = "scale" }},
		{"too few points", func(a *App) { a.Points = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t)
			tt.mutate(app)
			_, err := app.loadConfig()
			if !errors.Is(err, cloud.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestWriteConfig(t *testing.T) {
	app, out := newTestApp(t)
	app.WriteConfig = filepath.Join(t.TempDir(), "written.yaml")
	app.DataMode = "Uniform"

	if err := app.writeConfig(); err != nil {
		t.Fatalf("writeConfig failed: %v", err)
	}

	loaded, err := cloud.LoadConfig(app.WriteConfig)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if loaded.DataMode != cloud.Uniform {
		t.Errorf("expected Uniform in written config, got %s", loaded.DataMode)
	}
	if !strings.Contains(out.String(), "Wrote configuration") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestMeasure(t *testing.T) {
	app, out := newTestApp(t)
	app.DataMode = "Grid"
	app.Pose = cloud.Pose{OffsetX: 0.25}

	if err := app.measure(); err != nil {
		t.Fatalf("measure failed: %v", err)
	}

	frame := app.Session.Snapshot()
	if frame.Pose != app.Pose {
		t.Errorf("expected pose %+v, got %+v", app.Pose, frame.Pose)
	}
	if frame.Distance <= 0 {
		t.Errorf("expected positive distance for a shifted grid, got %f", frame.Distance)
	}
	if !strings.Contains(out.String(), frame.Title) {
		t.Errorf("expected title %q in output, got: %s", frame.Title, out.String())
	}
	if !strings.Contains(out.String(), "Grid cloud, 100 points") {
		t.Errorf("expected summary line, got: %s", out.String())
	}
}

func TestMeasure_IdentityIsZero(t *testing.T) {
	app, out := newTestApp(t)

	if err := app.measure(); err != nil {
		t.Fatalf("measure failed: %v", err)
	}
	if !strings.Contains(out.String(), "Chamfer distance: 0.00") {
		t.Errorf("expected zero distance, got: %s", out.String())
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		format string
		prefix string
	}{
		{"raster png", "scene.png", "raster", "\x89PNG"},
		{"vector png", "scene.png", "vector", "\x89PNG"},
		{"svg", "scene.svg", "raster", "<"},
		{"html chart", "scene.html", "raster", "<"},
		{"geojson", "scene.geojson", "raster", "{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, out := newTestApp(t)
			app.OutputFile = filepath.Join(t.TempDir(), tt.file)
			app.RenderFormat = tt.format
			app.EditMode = "Rotate"
			app.Pose = cloud.Pose{Angle: 0.7}

			if err := app.render(); err != nil {
				t.Fatalf("render failed: %v", err)
			}

			data, err := os.ReadFile(app.OutputFile)
			if err != nil {
				t.Fatalf("reading output: %v", err)
			}
			if !strings.HasPrefix(strings.TrimSpace(string(data)), tt.prefix) {
				t.Errorf("unexpected %s content: %.40q", tt.file, data)
			}
			if !strings.Contains(out.String(), "Rendered Chamfer distance:") {
				t.Errorf("unexpected output: %s", out.String())
			}
		})
	}
}

func TestRender_UnsupportedExtension(t *testing.T) {
	app, _ := newTestApp(t)
	app.OutputFile = filepath.Join(t.TempDir(), "scene.gif")

	err := app.render()
	if err == nil || !strings.Contains(err.Error(), "unsupported output extension") {
		t.Errorf("expected unsupported extension error, got %v", err)
	}
}

func TestHandleCommand(t *testing.T) {
	app, _ := newTestApp(t)
	if err := app.setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	start := app.Session.Snapshot()

	// decode errors are dropped
	app.handleCommand(cloud.Command{Kind: cloud.CommandRandomize}, errors.New("bad payload"))
	if got := app.Session.Snapshot().Generation; got != start.Generation {
		t.Errorf("expected generation unchanged after decode error, got %d", got)
	}

	app.handleCommand(cloud.Command{Kind: cloud.CommandPointer, Pointer: cloud.NewPointerEvent(cloud.LayerInteraction, 2, 1)}, nil)
	if got := app.Session.Snapshot().Pose; got.OffsetX != 2 || got.OffsetY != 1 {
		t.Errorf("expected pointer to translate to (2, 1), got %+v", got)
	}

	app.handleCommand(cloud.Command{Kind: cloud.CommandEditMode, Mode: "Rotate"}, nil)
	if app.Session.EditMode() != cloud.Rotate {
		t.Error("expected Rotate edit mode")
	}

	app.handleCommand(cloud.Command{Kind: cloud.CommandEditMode, Mode: "scale"}, nil)
	if app.Session.EditMode() != cloud.Rotate {
		t.Error("unknown edit mode must be ignored")
	}

	app.handleCommand(cloud.Command{Kind: cloud.CommandDataMode, Mode: "Grid"}, nil)
	frame := app.Session.Snapshot()
	if frame.DataMode != cloud.Grid || frame.Generation != start.Generation+1 {
		t.Errorf("expected regenerated Grid cloud, got %s gen %d", frame.DataMode, frame.Generation)
	}
	if !frame.Pose.IsIdentity() {
		t.Error("expected pose reset after regeneration")
	}

	app.handleCommand(cloud.Command{Kind: cloud.CommandRandomize}, nil)
	frame = app.Session.Snapshot()
	if frame.DataMode != cloud.Grid || frame.Generation != start.Generation+2 {
		t.Errorf("expected randomized Grid cloud, got %s gen %d", frame.DataMode, frame.Generation)
	}
}
