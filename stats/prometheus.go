package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector adapts a *Counters into a prometheus.Collector, the
// way runZeroInc's TCPInfoCollector adapts kernel socket counters: a
// Describe/Collect pair reading a snapshot under the collector's own
// reference rather than exposing the live Counters to the registry.
type PrometheusCollector struct {
	source *Counters
	label  string

	descPacketsSent     *prometheus.Desc
	descAcksReceived    *prometheus.Desc
	descRetransmissions *prometheus.Desc
	descTimeouts        *prometheus.Desc
	descChecksumErrors  *prometheus.Desc
	descOutOfOrder      *prometheus.Desc
	descDuplicate       *prometheus.Desc
	descBytes           *prometheus.Desc
}

// NewPrometheusCollector builds a collector over source, labeling every
// metric with the given session label (e.g. a transfer/session ID).
func NewPrometheusCollector(source *Counters, label string) *PrometheusCollector {
	labels := []string{"session"}
	mk := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("rtp_"+name, help, labels, nil)
	}
	return &PrometheusCollector{
		source:              source,
		label:               label,
		descPacketsSent:     mk("packets_sent_total", "Total packets sent."),
		descAcksReceived:    mk("acks_received_total", "Total ACKs received."),
		descRetransmissions: mk("retransmissions_total", "Total retransmissions."),
		descTimeouts:        mk("timeouts_total", "Total retransmission timeouts."),
		descChecksumErrors:  mk("checksum_errors_total", "Total checksum failures."),
		descOutOfOrder:      mk("out_of_order_total", "Total out-of-order deliveries."),
		descDuplicate:       mk("duplicate_arrivals_total", "Total duplicate datagram arrivals."),
		descBytes:           mk("bytes_transferred_total", "Total bytes transferred."),
	}
}

// Describe implements prometheus.Collector.
func (p *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.descPacketsSent
	ch <- p.descAcksReceived
	ch <- p.descRetransmissions
	ch <- p.descTimeouts
	ch <- p.descChecksumErrors
	ch <- p.descOutOfOrder
	ch <- p.descDuplicate
	ch <- p.descBytes
}

// Collect implements prometheus.Collector.
func (p *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	snap := p.source.Snapshot()
	emit := func(desc *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v), p.label)
	}
	emit(p.descPacketsSent, snap.PacketsSent)
	emit(p.descAcksReceived, snap.AcksReceived)
	emit(p.descRetransmissions, snap.Retransmissions)
	emit(p.descTimeouts, snap.Timeouts)
	emit(p.descChecksumErrors, snap.ChecksumErrors)
	emit(p.descOutOfOrder, snap.OutOfOrder)
	emit(p.descDuplicate, snap.DuplicateArrivals)
	emit(p.descBytes, snap.BytesTransferred)
}

var _ prometheus.Collector = (*PrometheusCollector)(nil)
