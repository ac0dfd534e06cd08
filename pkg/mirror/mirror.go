// Package mirror republishes the panel's accepted telemetry and
// identity over MQTT so other tools can watch the device without a
// second serial hookup.
package mirror

import (
	"encoding/json"

	"github.com/golang/glog"

	"github.com/scarabworks/scarab.go/pkg/identity"
	"github.com/scarabworks/scarab.go/pkg/stats"
)

// Topics relative to the broker URL's prefix.
const (
	TopicStats    = "panel/stats"
	TopicIdentity = "panel/identity"
)

// StatsMsg is the published snapshot wire form.
type StatsMsg struct {
	CPULoad   int     `json:"cpu_load"`
	CPUTemp   float64 `json:"cpu_temp"`
	GPULoad   int     `json:"gpu_load"`
	GPUTemp   float64 `json:"gpu_temp"`
	VRAMUsed  float64 `json:"vram_used_gb"`
	VRAMTotal float64 `json:"vram_total_gb"`
	RAMUsed   float64 `json:"ram_used_gb"`
	RAMTotal  float64 `json:"ram_total_gb"`
	NetType   string  `json:"net_type,omitempty"`
	NetSpeed  string  `json:"net_speed,omitempty"`
	DownMbps  float64 `json:"down_mbps"`
	UpMbps    float64 `json:"up_mbps"`
}

// IdentityMsg is the published identity wire form.
type IdentityMsg struct {
	CPUName string `json:"cpu_name"`
	GPUName string `json:"gpu_name"`
	Hash    string `json:"hash"`
}

// Mirror publishes panel state changes.
type Mirror struct {
	queue *Queue
}

// New creates a Mirror against a broker URL and connects.
func New(brokerURL string) (*Mirror, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if err := q.Connect(); err != nil {
		return nil, err
	}
	return &Mirror{queue: q}, nil
}

// Close implements io.Closer.
func (m *Mirror) Close() error {
	return m.queue.Close()
}

// PublishSnapshot mirrors one applied snapshot. Safe to call from
// the ingestion task; publishing is asynchronous.
func (m *Mirror) PublishSnapshot(snap stats.Snapshot) {
	m.publish(TopicStats, StatsMsg{
		CPULoad:   snap.CPULoad,
		CPUTemp:   snap.CPUTemp,
		GPULoad:   snap.GPULoad,
		GPUTemp:   snap.GPUTemp,
		VRAMUsed:  snap.VRAMUsed,
		VRAMTotal: snap.VRAMTotal,
		RAMUsed:   snap.RAMUsed,
		RAMTotal:  snap.RAMTotal,
		NetType:   snap.NetType,
		NetSpeed:  snap.NetSpeed,
		DownMbps:  snap.DownMbps,
		UpMbps:    snap.UpMbps,
	})
}

// PublishIdentity mirrors the identity record.
func (m *Mirror) PublishIdentity(rec identity.Record) {
	m.publish(TopicIdentity, IdentityMsg{
		CPUName: rec.CPUName,
		GPUName: rec.GPUName,
		Hash:    rec.Hash,
	})
}

func (m *Mirror) publish(topic string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		glog.Errorf("mirror: encode %s: %v", topic, err)
		return
	}
	m.queue.Pub(topic, payload)
}
