package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/hall-sensor/internal/input"
	"github.com/sweeney/hall-sensor/internal/status"
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
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.UTC().Format(time.RFC3339)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Hall Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.near { color: green; font-weight: bold; }
.far { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Hall Sensor</h1>

<h2>Switch</h2>
<table>
<tr><th>Lid</th><td class="{{if eq (stateOrUnknown .Switch) "NEAR"}}near{{else if eq (stateOrUnknown .Switch) "FAR"}}far{{else}}unknown{{end}}">{{stateOrUnknown .Switch}}</td></tr>
<tr><th>Last event</th><td>{{stamp .LastEvent}}</td></tr>
<tr><th>Lifecycle</th><td>{{.Lifecycle}}</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Device</h2>
<table>
<tr><th>Name</th><td>{{.Device}}</td></tr>
<tr><th>Phys</th><td>{{.Phys}}</td></tr>
<tr><th>GPIO</th><td>{{.Config.GPIO}}{{if .Config.ActiveLow}} (active low){{end}}</td></tr>
<tr><th>Wakeup</th><td>{{if .Config.Wakeup}}enabled{{else}}disabled{{end}}</td></tr>
<tr><th>vddio</th><td>{{.Config.MinUV}} - {{.Config.MaxUV}} uV</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Switch Counts</h2>
<table>
<tr><th>NEAR</th><td>{{.Counts.Near}}</td></tr>
<tr><th>FAR</th><td>{{.Counts.Far}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{stamp .StartTime}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/events.json">Events</a> | <a href="/android_hall/info">Info</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() and Ready() methods but the template reads fields.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Ready  bool
		Device string
		Phys   string
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Ready:    snap.Ready(),
		Device:   input.DeviceName,
		Phys:     input.PhysPath,
	}
	indexTmpl.Execute(w, data)
}
