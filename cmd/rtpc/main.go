// Command rtpc reads a file (or stdin) and transfers it to a rtpd
// listener over UDP, driving endpoint.Sender.
package main

import (
	"context"
	"fmt"
	"io"
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
		remoteAddr string
		inPath     string
		configPath string
		protoMode  string
		windowSize int
		timeout    float64
		lossRate   float64
		congestion bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "rtpc",
		Short: "Reliable transfer sender client",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				xlog.SetLevel(xlog.LevelDebug)
			}

			cfg, err := loadConfig(configPath, protoMode, windowSize, timeout, lossRate, congestion)
			if err != nil {
				return err
			}

			in := os.Stdin
			if inPath != "" {
				f, err := os.Open(inPath)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			data, err := io.ReadAll(in)
			if err != nil {
				return err
			}

			conn, err := socket.DialUDP(remoteAddr)
			if err != nil {
				return err
			}
			defer conn.Close()

			// conn is dialed (connected) to remoteAddr, so WriteTo's nil-addr
			// fast path is used; the socket itself fixes the destination.
			sender := endpoint.NewSender(conn, nil, cfg)
			if err := sender.Send(context.Background(), data); err != nil {
				return err
			}

			snap := sender.Stats.Snapshot()
			fmt.Fprintf(os.Stderr, "transferred %d bytes in %s (%.2f Mbps, efficiency %.2f%%)\n",
				snap.BytesTransferred, snap.Duration(), snap.ThroughputMBps(), snap.Efficiency()*100)
			return nil
		},
	}

	cmd.Flags().StringVar(&remoteAddr, "remote", "127.0.0.1:9000", "UDP address of the receiver")
	cmd.Flags().StringVar(&inPath, "in", "", "input file (default stdin)")
	cmd.Flags().StringVar(&configPath, "config", "", "optional YAML config file")
	cmd.Flags().StringVar(&protoMode, "protocol-mode", "go_back_n", "stop_wait|go_back_n|selective_repeat")
	cmd.Flags().IntVar(&windowSize, "window-size", 10, "sender window size")
	cmd.Flags().Float64Var(&timeout, "timeout", 1.0, "handshake reply timeout (seconds); retransmissions use the congestion controller's RTO, not this value")
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
