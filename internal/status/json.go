package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event          string       `json:"event,omitempty"`
	Reason         string       `json:"reason,omitempty"`
	Port           string       `json:"port"`
	Relay          string       `json:"relay"`
	SetupMode      string       `json:"setup_mode"`
	Reading        int32        `json:"reading"`
	InvalidSamples uint64       `json:"invalid_samples"`
	Settings       SettingsJSON `json:"settings"`
	UptimeSeconds  int64        `json:"uptime_seconds"`
	StartTime      string       `json:"start_time"`
	Timestamp      string       `json:"timestamp"`
	MQTT           MQTTStatus   `json:"mqtt"`
	Counts         CountsJSON   `json:"event_counts"`
	Config         ConfigJSON   `json:"config"`
}

// SettingsJSON is the JSON representation of the runtime configuration.
type SettingsJSON struct {
	UpperThreshold int32 `json:"upper_threshold"`
	LowerThreshold int32 `json:"lower_threshold"`
	LatchTimeMs    int64 `json:"latch_time_ms"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	PortSwitches  int `json:"port_switches"`
	RelayHigh     int `json:"relay_high"`
	RelayLow      int `json:"relay_low"`
	SetupSessions int `json:"setup_sessions"`
	SettingsSaved int `json:"settings_saved"`
	PersistErrors int `json:"persist_errors"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	StateDir    string `json:"state_dir"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Port:           snap.Port.String(),
		Relay:          snap.Relay.String(),
		SetupMode:      snap.SetupMode.String(),
		Reading:        snap.Reading,
		InvalidSamples: snap.InvalidSamples,
		Settings: SettingsJSON{
			UpperThreshold: snap.Settings.UpperThreshold,
			LowerThreshold: snap.Settings.LowerThreshold,
			LatchTimeMs:    snap.Settings.LatchTime.Milliseconds(),
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			PortSwitches:  snap.Counts.PortSwitches,
			RelayHigh:     snap.Counts.RelayHigh,
			RelayLow:      snap.Counts.RelayLow,
			SetupSessions: snap.Counts.SetupSessions,
			SettingsSaved: snap.Counts.SettingsSaved,
			PersistErrors: snap.Counts.PersistErrors,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			StateDir:    snap.Config.StateDir,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
