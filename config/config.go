// Package config loads the handful of knobs a run of the analyzer
// exposes: the widening threshold, the join-mode switch, and the
// wall-clock cancellation budget (§4.6, §5). The teacher carries no
// configuration layer of its own (it is driven entirely by flags and
// `ssa.Program` construction options); this package follows the rest
// of the retrieval pack's YAML-via-yaml.v3 convention instead of
// inventing a bespoke flag set.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// JoinMode selects how aggressively fixpoint.Run widens a block's
// state container (§4.6).
type JoinMode string

const (
	// JoinModeOff never promotes a block past plain equality dedup;
	// every distinct heap shape is kept, so analysis of a function with
	// unbounded list lengths may never terminate.
	JoinModeOff JoinMode = "off"
	// JoinModeThreshold promotes a block once WideningThreshold heaps
	// have accumulated there (the default, §4.6).
	JoinModeThreshold JoinMode = "threshold"
)

// Config is the YAML document shape.
type Config struct {
	// WideningThreshold is the heap count at which a block's container
	// switches to join-based widening. Ignored when Mode is JoinModeOff.
	WideningThreshold int `yaml:"widening_threshold"`

	// Mode selects the widening policy (§4.6).
	Mode JoinMode `yaml:"mode"`

	// Budget bounds one analysis run's wall-clock time; exceeding it
	// surfaces as a category-3 resource-exhaustion error (§7). Zero
	// means unbounded.
	Budget time.Duration `yaml:"budget"`
}

// Default returns the configuration fixpoint.Run uses when none is
// supplied: threshold widening at 8 heaps per block, no wall-clock cap.
func Default() Config {
	return Config{
		WideningThreshold: 8,
		Mode:              JoinModeThreshold,
		Budget:            0,
	}
}

// Load reads and validates a YAML configuration file at path, filling
// in Default()'s values for anything the file leaves zero.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: read")
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "config: parse")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations fixpoint.Run could not act on.
func (c Config) Validate() error {
	switch c.Mode {
	case JoinModeOff, JoinModeThreshold:
	default:
		return errors.Errorf("config: unknown mode %q", c.Mode)
	}
	if c.Mode == JoinModeThreshold && c.WideningThreshold <= 0 {
		return errors.New("config: widening_threshold must be positive in threshold mode")
	}
	if c.Budget < 0 {
		return errors.New("config: budget must not be negative")
	}
	return nil
}

// EffectiveThreshold returns the threshold fixpoint.Options expects,
// translating JoinModeOff into "widening disabled" (<= 0, per
// fixpoint.Options.WideningThreshold's contract).
func (c Config) EffectiveThreshold() int {
	if c.Mode == JoinModeOff {
		return 0
	}
	return c.WideningThreshold
}
