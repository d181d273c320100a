// Command rtpd listens on a UDP address and writes one reassembled
// transfer to a file (or stdout), driving endpoint.Receiver over a real
// socket.UDP — the out-of-core stand-in for the excluded admin HTTP
// surface, demonstrating the library end to end.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oslowtech/reliabletransfer/endpoint"
	"github.com/oslowtech/reliabletransfer/internal/xlog"
	"github.com/oslowtech/reliabletransfer/rtpconfig"
	"github.com/oslowtech/reliabletransfer/socket"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		listenAddr string
		outPath    string
		configPath string
		protoMode  string
		windowSize int
		timeout    float64
		lossRate   float64
		congestion bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "rtpd",
		Short: "Reliable transfer receiver daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				xlog.SetLevel(xlog.LevelDebug)
			}

			cfg, err := loadConfig(configPath, protoMode, windowSize, timeout, lossRate, congestion)
			if err != nil {
				return err
			}

			conn, err := socket.ListenUDP(listenAddr)
			if err != nil {
				return err
			}
			defer conn.Close()

			out := os.Stdout
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			recv := endpoint.NewReceiver(conn, cfg, out)
			return recv.Run(context.Background())
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", ":9000", "UDP address to listen on")
	cmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")
	cmd.Flags().StringVar(&configPath, "config", "", "optional YAML config file")
	cmd.Flags().StringVar(&protoMode, "protocol-mode", "go_back_n", "stop_wait|go_back_n|selective_repeat")
	cmd.Flags().IntVar(&windowSize, "window-size", 10, "advertised receive window")
	cmd.Flags().Float64Var(&timeout, "timeout", 1.0, "base retransmission timeout (seconds)")
	cmd.Flags().Float64Var(&lossRate, "packet-loss-rate", 0, "artificial loss rate [0,1]")
	cmd.Flags().BoolVar(&congestion, "congestion-enabled", true, "enable congestion control")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func loadConfig(path, mode string, window int, timeout, lossRate float64, congestionEnabled bool) (rtpconfig.Config, error) {
	if path != "" {
		return rtpconfig.LoadFile(path)
	}
	cfg := rtpconfig.Default()
	cfg.ProtocolModeName = mode
	cfg.WindowSize = window
	cfg.TimeoutSeconds = timeout
	cfg.PacketLossRate = lossRate
	cfg.CongestionEnabled = congestionEnabled
	if err := cfg.Validate(); err != nil {
		return rtpconfig.Config{}, err
	}
	return cfg, nil
}
