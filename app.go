package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/kwv/chamferview/cloud"
)

// App encapsulates the application state and dependencies
type App struct {
	Config     *cloud.Config
	Session    *cloud.Session
	MQTTClient *cloud.MQTTClient
	Publisher  *cloud.Publisher
	Out        io.Writer

	// CLI Flags (effectively dependencies)
	ConfigFile   string
	WriteConfig  string
	DataMode     string
	EditMode     string
	Points       int
	Seed         uint64
	OutputFile   string
	RenderFormat string
	Pose         cloud.Pose
	HttpPort     int
	MqttMode     bool
	HttpMode     bool
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{Out: os.Stdout}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.WriteConfig = opts.WriteConfig
	a.DataMode = opts.DataMode
	a.EditMode = opts.EditMode
	a.Points = opts.Points
	a.Seed = opts.Seed
	a.OutputFile = opts.OutputFile
	a.RenderFormat = opts.RenderFormat
	a.Pose = cloud.Pose{OffsetX: opts.OffsetX, OffsetY: opts.OffsetY, Angle: opts.Angle}
	a.HttpPort = opts.HttpPort
	a.MqttMode = opts.MqttMode
	a.HttpMode = opts.HttpMode
}

// loadConfig reads the config file and applies CLI overrides. A missing
// file at the default path falls back to the built-in defaults.
func (a *App) loadConfig() (*cloud.Config, error) {
	var config *cloud.Config
	if a.ConfigFile == "" {
		config = cloud.DefaultConfig()
	} else {
		loaded, err := cloud.LoadConfig(a.ConfigFile)
		switch {
		case err == nil:
			config = loaded
			log.Printf("Loaded config from %s", a.ConfigFile)
		case errors.Is(err, os.ErrNotExist) && a.ConfigFile == defaultConfigFile:
			config = cloud.DefaultConfig()
			log.Printf("No %s found, using defaults", defaultConfigFile)
		default:
			return nil, err
		}
	}

	if a.DataMode != "" {
		mode, err := cloud.ParseDataMode(a.DataMode)
		if err != nil {
			return nil, err
		}
		config.DataMode = mode
	}
	if a.EditMode != "" {
		mode, err := cloud.ParseEditMode(a.EditMode)
		if err != nil {
			return nil, err
		}
		config.EditMode = mode
	}
	if a.Points > 0 {
		config.Points = a.Points
	}
	if a.Seed != 0 {
		config.Seed = a.Seed
	}
	if a.HttpPort > 0 {
		config.HTTP.Port = a.HttpPort
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// setup loads the configuration and starts the session
func (a *App) setup() error {
	config, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.Config = config

	session, err := cloud.NewSession(config)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	a.Session = session
	return nil
}

// RunWriteConfig writes the effective configuration as YAML
func (a *App) RunWriteConfig() {
	if err := a.writeConfig(); err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}
}

func (a *App) writeConfig() error {
	config, err := a.loadConfig()
	if err != nil {
		return err
	}
	if err := cloud.SaveConfig(a.WriteConfig, config); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.Out, "Wrote configuration to %s\n", a.WriteConfig)
	return nil
}

// RunMeasure applies the CLI pose to a fresh cloud and prints the distance
func (a *App) RunMeasure() {
	if err := a.measure(); err != nil {
		log.Fatalf("Measure failed: %v", err)
	}
}

func (a *App) measure() error {
	if err := a.setup(); err != nil {
		return err
	}
	frame, err := a.Session.SetPose(a.Pose)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.Out, "%s cloud, %d points, pose (%.2f, %.2f, %.3f rad)\n",
		frame.DataMode, len(frame.Reference), frame.Pose.OffsetX, frame.Pose.OffsetY, frame.Pose.Angle)
	_, _ = fmt.Fprintln(a.Out, frame.Title)
	return nil
}

// RunRender renders the scene for the CLI pose to OutputFile
func (a *App) RunRender() {
	if err := a.render(); err != nil {
		log.Fatalf("Render failed: %v", err)
	}
}

func (a *App) render() error {
	if err := a.setup(); err != nil {
		return err
	}
	frame, err := a.Session.SetPose(a.Pose)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(a.OutputFile))
	if ext == ".png" && a.RenderFormat != "vector" {
		renderer, err := cloud.NewSceneRenderer(a.Config)
		if err != nil {
			return err
		}
		if err := renderer.SavePNG(a.OutputFile, frame); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.Out, "Rendered %s to %s\n", frame.Title, a.OutputFile)
		return nil
	}

	f, err := os.Create(a.OutputFile)
	if err != nil {
		return fmt.Errorf("creating %s: %w", a.OutputFile, err)
	}
	defer func() { _ = f.Close() }()

	switch ext {
	case ".svg", ".png":
		vr, err := cloud.NewVectorRenderer(a.Config)
		if err != nil {
			return err
		}
		if ext == ".svg" {
			err = vr.RenderToSVG(f, frame)
		} else {
			err = vr.RenderToPNG(f, frame)
		}
		if err != nil {
			return fmt.Errorf("rendering %s: %w", a.OutputFile, err)
		}
	case ".geojson", ".json":
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cloud.FrameFeatures(frame)); err != nil {
			return fmt.Errorf("encoding %s: %w", a.OutputFile, err)
		}
	case ".html":
		chartOpts, err := cloud.NewChartOptions(a.Config)
		if err != nil {
			return err
		}
		if err := cloud.RenderChart(f, frame, chartOpts); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported output extension %q (want .png, .svg, .html or .geojson)", ext)
	}

	_, _ = fmt.Fprintf(a.Out, "Rendered %s to %s\n", frame.Title, a.OutputFile)
	return nil
}

// handleCommand routes an MQTT control message to the session
func (a *App) handleCommand(cmd cloud.Command, err error) {
	if err != nil {
		return
	}

	switch cmd.Kind {
	case cloud.CommandPointer:
		if _, changed := a.Session.HandlePointer(cmd.Pointer); !changed {
			log.Printf("[DEBUG] mqtt: pointer event ignored")
		}
	case cloud.CommandEditMode:
		mode, err := cloud.ParseEditMode(cmd.Mode)
		if err != nil {
			log.Printf("[MQTT] rejecting edit mode: %v", err)
			return
		}
		if err := a.Session.SetEditMode(mode); err != nil {
			log.Printf("[MQTT] setting edit mode: %v", err)
		}
	case cloud.CommandDataMode:
		mode, err := cloud.ParseDataMode(cmd.Mode)
		if err != nil {
			log.Printf("[MQTT] rejecting data mode: %v", err)
			return
		}
		if _, err := a.Session.Regenerate(mode); err != nil {
			log.Printf("[MQTT] regenerating: %v", err)
		}
	case cloud.CommandRandomize:
		if _, err := a.Session.Randomize(); err != nil {
			log.Printf("[MQTT] randomizing: %v", err)
		}
	}
}

// RunService runs the dashboard and/or the MQTT front end until interrupted
func (a *App) RunService() {
	if err := a.setup(); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	if a.MqttMode {
		mqttClient, err := cloud.InitMQTT(a.Config, a.Session.ID, a.handleCommand)
		if err != nil {
			log.Fatalf("Failed to initialize MQTT: %v", err)
		}
		if mqttClient == nil {
			log.Fatal("MQTT broker not configured (set MQTT_BROKER or mqtt.broker)")
		}
		a.MQTTClient = mqttClient
		a.Publisher = cloud.NewPublisher(mqttClient.GetClient(), mqttClient.Prefix())
		a.Session.OnUpdate(func(frame cloud.Frame) {
			if err := a.Publisher.PublishFrame(frame); err != nil {
				log.Printf("[MQTT] error publishing frame: %v", err)
			}
		})
		_, _ = fmt.Fprintln(a.Out, "MQTT distance publisher initialized")
	}

	var server *http.Server
	if a.HttpMode {
		handler, err := newHTTPServer(a.Session, a.Config)
		if err != nil {
			log.Fatalf("[HTTP] Failed to build handlers: %v", err)
		}
		server = &http.Server{
			Addr:              fmt.Sprintf("0.0.0.0:%d", a.Config.HTTP.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Printf("[HTTP] Starting server on %s", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("[HTTP] Server error: %v", err)
			}
		}()
	}

	a.printServiceInfo()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	_, _ = fmt.Fprintln(a.Out, "\nShutting down service...")
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("[HTTP] Shutdown error: %v", err)
		}
		cancel()
	}
	if a.MQTTClient != nil {
		a.MQTTClient.Disconnect()
	}
	_, _ = fmt.Fprintln(a.Out, "Service stopped")
}

func (a *App) printServiceInfo() {
	out := a.Out
	_, _ = fmt.Fprintln(out, "\nService Running")
	_, _ = fmt.Fprintln(out, "===============")
	_, _ = fmt.Fprintf(out, "Session %s: %s / %s\n", a.Session.ID, a.Session.DataMode(), a.Session.EditMode())

	if a.MqttMode && a.MQTTClient != nil {
		prefix := a.MQTTClient.Prefix()
		_, _ = fmt.Fprintln(out, "\nMQTT:")
		_, _ = fmt.Fprintln(out, "  Subscribed topics:")
		for _, kind := range []cloud.CommandKind{cloud.CommandPointer, cloud.CommandEditMode, cloud.CommandDataMode, cloud.CommandRandomize} {
			_, _ = fmt.Fprintf(out, "    - %s\n", cloud.CommandTopic(prefix, kind))
		}
		_, _ = fmt.Fprintf(out, "  Publishing to: %s\n", a.Publisher.DistanceTopic())
	}

	if a.HttpMode {
		_, _ = fmt.Fprintf(out, "\nHTTP endpoints (port %d):\n", a.Config.HTTP.Port)
		_, _ = fmt.Fprintln(out, "  GET  /               - Dashboard")
		_, _ = fmt.Fprintln(out, "  GET  /health         - Health check")
		_, _ = fmt.Fprintln(out, "  GET  /api/state      - Current frame")
		_, _ = fmt.Fprintln(out, "  POST /api/pointer    - Pointer event")
		_, _ = fmt.Fprintln(out, "  POST /api/edit-mode  - Switch edit mode")
		_, _ = fmt.Fprintln(out, "  POST /api/data-mode  - Switch data mode and regenerate")
		_, _ = fmt.Fprintln(out, "  POST /api/randomize  - Regenerate current data mode")
		_, _ = fmt.Fprintln(out, "  GET  /api/geojson    - Current frame as GeoJSON")
		_, _ = fmt.Fprintln(out, "  GET  /scene.png, /scene.svg, /chart")
	}

	_, _ = fmt.Fprintln(out, "\nPress Ctrl+C to stop")
}
