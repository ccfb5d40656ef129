package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/usb-selector/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>USB Selector</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.high { color: green; font-weight: bold; }
.low { color: #888; }
.editing { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>USB Selector</h1>

<h2>State</h2>
<table>
<tr><th>Active Port</th><td>{{.Port}}</td></tr>
<tr><th>Relay</th><td class="{{if eq (printf "%s" .Relay) "HIGH"}}high{{else}}low{{end}}">{{.Relay}}</td></tr>
<tr><th>Setup</th><td class="{{if ne (printf "%s" .SetupMode) "idle"}}editing{{end}}">{{.SetupMode}}</td></tr>
<tr><th>Analog Reading</th><td>{{.Reading}}</td></tr>
<tr><th>Invalid Samples</th><td>{{.InvalidSamples}}</td></tr>
</table>

<h2>Settings</h2>
<table>
<tr><th>Upper Threshold</th><td>{{.Settings.UpperThreshold}}</td></tr>
<tr><th>Lower Threshold</th><td>{{.Settings.LowerThreshold}}</td></tr>
<tr><th>Latch Time</th><td>{{.Settings.LatchTime}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Port Switches</th><td>{{.Counts.PortSwitches}}</td></tr>
<tr><th>Relay HIGH</th><td>{{.Counts.RelayHigh}}</td></tr>
<tr><th>Relay LOW</th><td>{{.Counts.RelayLow}}</td></tr>
<tr><th>Setup Sessions</th><td>{{.Counts.SetupSessions}}</td></tr>
<tr><th>Settings Saved</th><td>{{.Counts.SettingsSaved}}</td></tr>
<tr><th>Persist Errors</th><td>{{.Counts.PersistErrors}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
<tr><th>State Dir</th><td>{{.Config.StateDir}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
