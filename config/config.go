// Package config describes a simulated board: which peripheral instances
// exist, which interrupt lines they sit on and how their signals are sized.
//
// A board is read from a YAML file with viper. Scalar settings can be
// overridden from the environment with the SLOTPARTY_ prefix, for example
// SLOTPARTY_ERROR_FAN_OUT=8.
package config

import (
	"errors"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/golang/glog"
	"github.com/spf13/viper"

	"github.com/delaneyj/slotparty/hal"
	"github.com/delaneyj/slotparty/periph"
	"github.com/delaneyj/slotparty/sigslot"
)

const EnvPrefix = "SLOTPARTY"

var ErrInvalidConfig = errors.New("invalid config")

// Peripheral is one hardware instance.
type Peripheral struct {
	Handle   string `mapstructure:"handle"`
	IRQ      uint16 `mapstructure:"irq"`
	Period   uint32 `mapstructure:"period"`   // timers, in backend ticks
	Loopback bool   `mapstructure:"loopback"` // UARTs
}

type Board struct {
	Name        string       `mapstructure:"name"`
	ErrorFanOut int          `mapstructure:"error_fan_out"`
	Overflow    string       `mapstructure:"overflow"`
	Timers      []Peripheral `mapstructure:"timers"`
	ADCs        []Peripheral `mapstructure:"adcs"`
	UARTs       []Peripheral `mapstructure:"uarts"`
	Hashes      []Peripheral `mapstructure:"hashes"`
}

// Default is the board used when no file is given: three timers, one of each
// other peripheral.
func Default() Board {
	return Board{
		Name:        "sim",
		ErrorFanOut: periph.DefaultErrorFanOut,
		Overflow:    sigslot.OverflowDrop.String(),
		Timers: []Peripheral{
			{Handle: "TIM2", IRQ: 28, Period: 1000},
			{Handle: "TIM3", IRQ: 29, Period: 500},
			{Handle: "TIM4", IRQ: 30, Period: 250},
		},
		ADCs:   []Peripheral{{Handle: "ADC1", IRQ: 18}},
		UARTs:  []Peripheral{{Handle: "USART2", IRQ: 38, Loopback: true}},
		Hashes: []Peripheral{{Handle: "HASH", IRQ: 80}},
	}
}

// Load reads the board at path. With an empty path the peripherals of
// Default are used. Environment overrides apply either way.
func Load(path string) (Board, error) {
	def := Default()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("name", def.Name)
	v.SetDefault("error_fan_out", def.ErrorFanOut)
	v.SetDefault("overflow", def.Overflow)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Board{}, fmt.Errorf("reading %s: %w", path, err)
		}
		glog.V(2).Infof("config: loaded %s", v.ConfigFileUsed())
	}

	var b Board
	if err := v.Unmarshal(&b); err != nil {
		return Board{}, fmt.Errorf("decoding board: %w", err)
	}
	if path == "" {
		b.Timers = def.Timers
		b.ADCs = def.ADCs
		b.UARTs = def.UARTs
		b.Hashes = def.Hashes
	}
	if err := b.Validate(); err != nil {
		return Board{}, err
	}
	return b, nil
}

// Validate checks that handles are unique per peripheral type, interrupt
// lines are unique across the board and every value is in range.
func (b Board) Validate() error {
	if b.ErrorFanOut < 1 {
		return fmt.Errorf("%w: error_fan_out must be at least 1, got %d", ErrInvalidConfig, b.ErrorFanOut)
	}
	if _, err := sigslot.ParseOverflowPolicy(b.Overflow); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	irqs := mapset.NewThreadUnsafeSet[uint16]()
	for _, g := range b.groups() {
		handles := mapset.NewThreadUnsafeSet[string]()
		for _, p := range g.list {
			switch {
			case p.Handle == "":
				return fmt.Errorf("%w: %s without handle", ErrInvalidConfig, g.class)
			case !handles.Add(p.Handle):
				return fmt.Errorf("%w: duplicate %s handle %s", ErrInvalidConfig, g.class, p.Handle)
			case !irqs.Add(p.IRQ):
				return fmt.Errorf("%w: irq %d of %s %s already in use", ErrInvalidConfig, p.IRQ, g.class, p.Handle)
			case g.class == hal.ClassTimer && p.Period == 0:
				return fmt.Errorf("%w: timer %s has no period", ErrInvalidConfig, p.Handle)
			}
		}
	}
	return nil
}

// DriverOptions turns the signal sizing settings into driver options.
func (b Board) DriverOptions() ([]periph.Option, error) {
	policy, err := sigslot.ParseOverflowPolicy(b.Overflow)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return []periph.Option{
		periph.WithErrorFanOut(b.ErrorFanOut),
		periph.WithOverflow(policy),
	}, nil
}

// Count returns the number of peripherals on the board.
func (b Board) Count() int {
	return len(b.Timers) + len(b.ADCs) + len(b.UARTs) + len(b.Hashes)
}

type group struct {
	class hal.ClassID
	list  []Peripheral
}

func (b Board) groups() []group {
	return []group{
		{hal.ClassTimer, b.Timers},
		{hal.ClassADC, b.ADCs},
		{hal.ClassUART, b.UARTs},
		{hal.ClassHash, b.Hashes},
	}
}
