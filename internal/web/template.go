package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/grow-controller/internal/status"
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
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
	"stateClass": func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Grow Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.fault { color: red; font-weight: bold; }
</style>
</head>
<body>
<h1>Grow Controller</h1>

{{if not .ClockHealthy}}<p class="fault">CLOCK FAULT — schedulers not armed</p>{{end}}

<h2>Outputs</h2>
<table>
<tr><th>Grow Light</th><td class="{{stateClass .Channels.GrowLight}}">{{onOff .Channels.GrowLight}}</td></tr>
<tr><th>Bloom Light</th><td class="{{stateClass .Channels.BloomLight}}">{{onOff .Channels.BloomLight}}</td></tr>
<tr><th>Far-Red Light</th><td class="{{stateClass .Channels.FarRed}}">{{onOff .Channels.FarRed}}</td></tr>
<tr><th>Pump</th><td class="{{stateClass .Channels.Pump}}">{{onOff .Channels.Pump}}</td></tr>
<tr><th>Fan Throttle</th><td class="{{stateClass .Channels.FanThrottle}}">{{onOff .Channels.FanThrottle}}</td></tr>
</table>

<h2>Schedule</h2>
<table>
<tr><th>Growth Phase</th><td>{{.GrowthPhase}}</td></tr>
<tr><th>Bloom</th><td>{{.Bloom.Status}}</td></tr>
<tr><th>Bloom Cycles</th><td>{{.Bloom.CompletedCycles}}</td></tr>
<tr><th>Bloom Days</th><td>{{.Bloom.CalendarDays}}</td></tr>
{{if .TempValid}}<tr><th>Room Temperature</th><td>{{printf "%.1f" .TemperatureC}} °C</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Serial</th><td>{{.Config.SerialDev}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">Metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
