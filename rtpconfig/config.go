// Package rtpconfig holds the validated configuration surface consumed by
// an endpoint: protocol mode, window size, base timeout, loss rate, and
// whether congestion control is enabled. It plays the role the teacher's
// handshake.ConnectionParametersManager plays for QUIC transport
// parameters: a single struct with a validating setter, here adapted to
// the fields spec.md names instead of QUIC's flow-control windows.
package rtpconfig

import (
	"os"
	"time"

	"github.com/oslowtech/reliabletransfer/protocol"
	"github.com/oslowtech/reliabletransfer/rtperr"
	"gopkg.in/yaml.v2"
)

// Config is the validated, immutable-after-construction configuration for
// one endpoint.
type Config struct {
	ProtocolMode      protocol.Mode `yaml:"-"`
	ProtocolModeName  string        `yaml:"protocol_mode"`
	WindowSize        int           `yaml:"window_size"`
	Timeout           time.Duration `yaml:"-"`
	TimeoutSeconds    float64       `yaml:"timeout"`
	PacketLossRate    float64       `yaml:"packet_loss_rate"`
	CongestionEnabled bool          `yaml:"congestion_enabled"`
	RetransmitCap     int           `yaml:"retransmit_cap"`
}

// Default returns a Config with the design's defaults: Go-Back-N, window
// 10, 1s timeout, congestion control enabled, zero loss, retransmit cap
// 10.
func Default() Config {
	return Config{
		ProtocolMode:      protocol.GoBackN,
		ProtocolModeName:  protocol.GoBackN.String(),
		WindowSize:        10,
		Timeout:           time.Second,
		TimeoutSeconds:    1.0,
		PacketLossRate:    0,
		CongestionEnabled: true,
		RetransmitCap:     protocol.DefaultRetransmitCap,
	}
}

// Validate checks every field against the bounds in spec.md §6 and
// resolves ProtocolMode from ProtocolModeName. It must be called (and
// must succeed) before a Config is handed to an endpoint.
func (c *Config) Validate() error {
	mode, ok := protocol.ParseMode(c.ProtocolModeName)
	if !ok {
		return rtperr.NewInvalidConfiguration("unknown protocol_mode " + c.ProtocolModeName)
	}
	c.ProtocolMode = mode

	if c.WindowSize < protocol.MinWindowSize || c.WindowSize > protocol.MaxWindowSize {
		return rtperr.NewInvalidConfiguration("window_size out of range [1,100]")
	}
	// Selective Repeat correctness requires window_size <= sequence
	// space / 2; with 32-bit sequence numbers this is always true, but
	// the constraint is still checked explicitly rather than assumed,
	// per the design's open question on SR sequence-space size.
	if mode == protocol.SelectiveRepeat && uint64(c.WindowSize) > (uint64(1)<<32)/2 {
		return rtperr.NewInvalidConfiguration("window_size exceeds half the sequence space for selective_repeat")
	}

	if c.TimeoutSeconds > 0 {
		c.Timeout = time.Duration(c.TimeoutSeconds * float64(time.Second))
	}
	if c.Timeout < protocol.MinTimeout || c.Timeout > protocol.MaxTimeout {
		return rtperr.NewInvalidConfiguration("timeout out of range [0.1s,10s]")
	}

	if c.PacketLossRate < 0 || c.PacketLossRate > 1 {
		return rtperr.NewInvalidConfiguration("packet_loss_rate out of range [0,1]")
	}

	if c.RetransmitCap <= 0 {
		c.RetransmitCap = protocol.DefaultRetransmitCap
	}

	return nil
}

// LoadFile reads a YAML configuration file and validates it.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, rtperr.NewInvalidConfiguration(err.Error())
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, rtperr.NewInvalidConfiguration(err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
