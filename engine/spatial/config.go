package spatial

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Strategy string

const (
	// StrategySAH sweeps split events and picks planes with the surface area heuristic.
	StrategySAH Strategy = "sah"
	// StrategyMedian splits the longest extent at the median triangle.
	StrategyMedian Strategy = "median"
)

// DefaultMaxDepth caps the tree depth; nodes at this depth become leaves.
const DefaultMaxDepth = 30

// Config holds the cost model and limits for k-d tree construction.
// The root has depth 0 and a node whose depth reaches MaxDepth is made a leaf,
// so MaxDepth 0 builds a single leaf and no leaf lies deeper than MaxDepth.
type Config struct {
	TraversalCost    float64  `yaml:"traversal_cost"`
	IntersectionCost float64  `yaml:"intersection_cost"`
	MaxDepth         int      `yaml:"max_depth"`
	Strategy         Strategy `yaml:"strategy"`
}

func DefaultConfig() Config {
	return Config{
		TraversalCost:    15,
		IntersectionCost: 20,
		MaxDepth:         DefaultMaxDepth,
		Strategy:         StrategySAH,
	}
}

func (c Config) Validate() error {
	if !(c.TraversalCost > 0) || math.IsInf(c.TraversalCost, 0) {
		return errors.Errorf("traversal cost must be positive and finite, got %v", c.TraversalCost)
	}
	if !(c.IntersectionCost > 0) || math.IsInf(c.IntersectionCost, 0) {
		return errors.Errorf("intersection cost must be positive and finite, got %v", c.IntersectionCost)
	}
	if c.MaxDepth < 0 {
		return errors.Errorf("max depth must not be negative, got %d", c.MaxDepth)
	}
	switch c.Strategy {
	case StrategySAH, StrategyMedian:
	default:
		return errors.Errorf("unknown build strategy %q", c.Strategy)
	}
	return nil
}

// LoadConfig reads a yaml file on top of DefaultConfig; keys that are absent keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading index config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing index config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid index config %s", path)
	}
	return cfg, nil
}

type Option func(*Config)

func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

func WithStrategy(strategy Strategy) Option {
	return func(c *Config) {
		c.Strategy = strategy
	}
}

func WithMaxDepth(depth int) Option {
	return func(c *Config) {
		c.MaxDepth = depth
	}
}

func WithCosts(traversal, intersection float64) Option {
	return func(c *Config) {
		c.TraversalCost = traversal
		c.IntersectionCost = intersection
	}
}
