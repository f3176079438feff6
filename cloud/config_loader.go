package cloud

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the unified configuration of the visualizer
type Config struct {
	Points       int           `yaml:"points" json:"points"`
	DataMode     DataMode      `yaml:"dataMode" json:"dataMode"`
	EditMode     EditMode      `yaml:"editMode" json:"editMode"`
	Seed         uint64        `yaml:"seed,omitempty" json:"seed,omitempty"` // 0 seeds from the clock
	Range        RangeConfig   `yaml:"range" json:"range"`
	Delta        float64       `yaml:"delta" json:"delta"` // spacing of the interaction anchors
	UniformSide  float64       `yaml:"uniformSide" json:"uniformSide"`
	Grid         GridConfig    `yaml:"grid" json:"grid"`
	Clusters     ClusterConfig `yaml:"clusters" json:"clusters"`
	HandleRadius float64       `yaml:"handleRadius" json:"handleRadius"`
	HTTP         HTTPConfig    `yaml:"http" json:"http"`
	Render       RenderConfig  `yaml:"render" json:"render"`
	MQTT         MQTTConfig    `yaml:"mqtt" json:"mqtt"`
}

// RangeConfig is the square plot range shared by both axes
type RangeConfig struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// GridConfig shapes the Grid data mode
type GridConfig struct {
	Steps int     `yaml:"steps" json:"steps"`
	Span  float64 `yaml:"span" json:"span"`
}

// ClusterConfig shapes the Clusters data mode. Min is inclusive, Max exclusive.
type ClusterConfig struct {
	Min    int     `yaml:"min" json:"min"`
	Max    int     `yaml:"max" json:"max"`
	Spread float64 `yaml:"spread" json:"spread"`
	Sigma  float64 `yaml:"sigma" json:"sigma"`
}

// HTTPConfig holds the HTTP listener settings
type HTTPConfig struct {
	Port int `yaml:"port" json:"port"`
}

// RenderConfig holds image size and colors for every renderer
type RenderConfig struct {
	Width          int     `yaml:"width" json:"width"`
	Height         int     `yaml:"height" json:"height"`
	PointRadius    float64 `yaml:"pointRadius" json:"pointRadius"`
	ReferenceColor string  `yaml:"referenceColor" json:"referenceColor"`
	MovableColor   string  `yaml:"movableColor" json:"movableColor"`
	HandleColor    string  `yaml:"handleColor" json:"handleColor"`
}

// MQTTConfig holds MQTT connection settings
type MQTTConfig struct {
	Broker        string `yaml:"broker" json:"broker"`
	PublishPrefix string `yaml:"publishPrefix" json:"publishPrefix"`
	ClientID      string `yaml:"clientId" json:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// DefaultConfig returns the stock configuration
func DefaultConfig() *Config {
	gen := DefaultGeneratorOptions()
	return &Config{
		Points:       gen.Points,
		DataMode:     Clusters,
		EditMode:     Translate,
		Range:        RangeConfig{Min: -7, Max: 7},
		Delta:        0.5,
		UniformSide:  gen.UniformSide,
		Grid:         GridConfig{Steps: gen.GridSteps, Span: gen.GridSpan},
		Clusters:     ClusterConfig{Min: gen.ClusterMin, Max: gen.ClusterMax, Spread: gen.ClusterSpread, Sigma: gen.ClusterSigma},
		HandleRadius: 2,
		HTTP:         HTTPConfig{Port: 8050},
		Render: RenderConfig{
			Width:          600,
			Height:         600,
			PointRadius:    4,
			ReferenceColor: "#0000FF",
			MovableColor:   "#FF0000",
			HandleColor:    "#00AA00",
		},
		MQTT: MQTTConfig{
			PublishPrefix: "chamferview",
			ClientID:      "chamferview",
		},
	}
}

// LoadConfig loads the configuration from a YAML file. Keys missing from
// the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s: %w", path, err)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Validate checks every option and returns the first *ConfigurationError found
func (c *Config) Validate() error {
	invalid := func(option string, value any, reason string) error {
		return &ConfigurationError{Option: option, Value: fmt.Sprint(value), Reason: reason}
	}

	if !c.DataMode.Valid() {
		return invalid("dataMode", c.DataMode, "unknown data mode")
	}
	if !c.EditMode.Valid() {
		return invalid("editMode", c.EditMode, "unknown edit mode")
	}
	if c.Points < 1 {
		return invalid("points", c.Points, "must be at least 1")
	}
	if c.Clusters.Min < 1 {
		return invalid("clusters.min", c.Clusters.Min, "must be at least 1")
	}
	if c.Clusters.Max <= c.Clusters.Min {
		return invalid("clusters.max", c.Clusters.Max, "must be greater than clusters.min")
	}
	// every cluster must receive at least one point
	if c.Points < c.Clusters.Max-1 {
		return invalid("points", c.Points, "must be at least clusters.max-1 ("+strconv.Itoa(c.Clusters.Max-1)+")")
	}
	if c.Clusters.Spread <= 0 {
		return invalid("clusters.spread", c.Clusters.Spread, "must be positive")
	}
	if c.Clusters.Sigma <= 0 {
		return invalid("clusters.sigma", c.Clusters.Sigma, "must be positive")
	}
	if c.Range.Max <= c.Range.Min {
		return invalid("range", fmt.Sprintf("[%g, %g]", c.Range.Min, c.Range.Max), "max must be greater than min")
	}
	if c.Delta <= 0 {
		return invalid("delta", c.Delta, "must be positive")
	}
	if c.Delta > c.Range.Max-c.Range.Min {
		return invalid("delta", c.Delta, "must not exceed the range width")
	}
	if c.UniformSide <= 0 {
		return invalid("uniformSide", c.UniformSide, "must be positive")
	}
	if c.Grid.Steps < 1 {
		return invalid("grid.steps", c.Grid.Steps, "must be at least 1")
	}
	if c.Grid.Span <= 0 {
		return invalid("grid.span", c.Grid.Span, "must be positive")
	}
	if c.HandleRadius <= 0 {
		return invalid("handleRadius", c.HandleRadius, "must be positive")
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return invalid("http.port", c.HTTP.Port, "must be a TCP port")
	}
	if c.Render.Width < 1 || c.Render.Height < 1 {
		return invalid("render", fmt.Sprintf("%dx%d", c.Render.Width, c.Render.Height), "size must be positive")
	}
	if _, err := c.Render.Palette(); err != nil {
		return err
	}

	return nil
}

// GeneratorOptions extracts the generator shape parameters
func (c *Config) GeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		Points:        c.Points,
		UniformSide:   c.UniformSide,
		GridSteps:     c.Grid.Steps,
		GridSpan:      c.Grid.Span,
		ClusterMin:    c.Clusters.Min,
		ClusterMax:    c.Clusters.Max,
		ClusterSpread: c.Clusters.Spread,
		ClusterSigma:  c.Clusters.Sigma,
	}
}

// InteractionLayer returns the anchor lattice over the configured range
func (c *Config) InteractionLayer() InteractionLayer {
	return NewInteractionLayer(c.Range.Min, c.Range.Max, c.Delta)
}
