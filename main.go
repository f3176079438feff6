package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

const defaultConfigFile = "config.yaml"

// AppOptions carries the parsed command line into the App
type AppOptions struct {
	ConfigFile   string
	WriteConfig  string
	DataMode     string
	EditMode     string
	Points       int
	Seed         uint64
	Measure      bool
	RenderOnly   bool
	OutputFile   string
	RenderFormat string
	OffsetX      float64
	OffsetY      float64
	Angle        float64
	HttpPort     int
	MqttMode     bool
	HttpMode     bool
}

// Runner is the set of modes the command line can dispatch to
type Runner interface {
	ApplyOptions(opts AppOptions)
	RunWriteConfig()
	RunMeasure()
	RunRender()
	RunService()
}

func main() {
	if err := run(os.Args[1:], os.Stdout, NewApp()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
}

func run(args []string, out io.Writer, app Runner) error {
	fs := flag.NewFlagSet("chamferview", flag.ContinueOnError)
	fs.SetOutput(out)

	var opts AppOptions
	fs.StringVar(&opts.ConfigFile, "config", defaultConfigFile, "Path to configuration file (missing default file means built-in defaults)")
	fs.StringVar(&opts.WriteConfig, "write-config", "", "Write the effective configuration to this path and exit")
	fs.StringVar(&opts.DataMode, "data-mode", "", "Initial data mode: Gaussian, Uniform, Grid, Clusters")
	fs.StringVar(&opts.EditMode, "edit-mode", "", "Initial edit mode: Translate, Rotate")
	fs.IntVar(&opts.Points, "points", 0, "Number of points to generate (0 keeps the configured value)")
	fs.Uint64Var(&opts.Seed, "seed", 0, "Random seed (0 keeps the configured value)")
	fs.BoolVar(&opts.Measure, "measure", false, "Print the Chamfer distance for --offset-x/--offset-y/--angle and exit")
	fs.BoolVar(&opts.RenderOnly, "render", false, "Render the scene to --output and exit")
	fs.StringVar(&opts.OutputFile, "output", "scene.png", "Output file for --render (.png, .svg, .html or .geojson)")
	fs.StringVar(&opts.RenderFormat, "format", "raster", "PNG renderer for --render: raster or vector")
	fs.Float64Var(&opts.OffsetX, "offset-x", 0, "Translation along x applied to the movable cloud")
	fs.Float64Var(&opts.OffsetY, "offset-y", 0, "Translation along y applied to the movable cloud")
	fs.Float64Var(&opts.Angle, "angle", 0, "Rotation in radians applied to the movable cloud")
	fs.IntVar(&opts.HttpPort, "http-port", 0, "HTTP server port (0 keeps the configured value, default 8050)")
	fs.BoolVar(&opts.HttpMode, "http", false, "Run the HTTP dashboard")
	fs.BoolVar(&opts.MqttMode, "mqtt", false, "Accept commands and publish distances over MQTT")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintf(out, "chamferview version: %s\n", Version)

	switch {
	case opts.WriteConfig != "":
		app.ApplyOptions(opts)
		app.RunWriteConfig()
	case opts.Measure:
		app.ApplyOptions(opts)
		app.RunMeasure()
	case opts.RenderOnly:
		app.ApplyOptions(opts)
		app.RunRender()
	default:
		// The dashboard is the default front end
		if !opts.MqttMode {
			opts.HttpMode = true
		}
		fmt.Fprintln(out, "chamferview service starting...")
		app.ApplyOptions(opts)
		app.RunService()
	}

	return nil
}
