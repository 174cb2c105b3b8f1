package handlers

import (
	"html/template"

	"valve_control/internal/models"
)

var pageFuncs = template.FuncMap{
	"statuses": func() []models.AutomationStatus { return models.AutomationStatuses },
	"week":     func() []models.Weekday { return models.Week },
}

// Pages carry the classes and data-* attributes the dispatcher binds to;
// /static/dispatcher.wasm is the compiled cmd/dispatcher.
const pageTemplates = `
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.}} · Valves</title>
<style>
 body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:56rem;padding:0 1rem;color:#222}
 table{border-collapse:collapse;width:100%}
 td,th{padding:.4rem .6rem;border-bottom:1px solid #ddd;text-align:left}
 .Open{color:#0a7d32;font-weight:600}.Close{color:#888}
 form.inline{display:flex;gap:.5rem;align-items:end;margin-top:1rem}
</style>
</head>
<body>{{end}}

{{define "scripts"}}
<script src="/static/wasm_exec.js"></script>
<script>
 const go = new Go();
 WebAssembly.instantiateStreaming(fetch("/static/dispatcher.wasm"), go.importObject)
  .then((r) => go.run(r.instance))
  .catch((e) => console.log(e));
</script>
</body>
</html>{{end}}

{{define "index"}}{{template "head" "Overview"}}
<h1>Valves</h1>
<table>
 <thead><tr><th>#</th><th>Name</th><th>Valve</th><th>Automation</th><th></th></tr></thead>
 <tbody>
 {{range .Valves}}{{$v := .}}
 <tr>
  <td>{{.Number}}</td>
  <td><a href="/valves/{{.Number}}">{{.Name}}</a></td>
  <td class="{{.ValveStatus}}">{{.ValveStatus}}</td>
  <td>
  {{range statuses}}
   <label><input type="radio" class="automation_status_radio" name="status-{{$v.Number}}" data-valve_number="{{$v.Number}}" value="{{.}}"{{if eq . $v.AutomationStatus}} checked{{end}}> {{.}}</label>
  {{end}}
  </td>
  <td><button class="valve_delete_button" data-valve_number="{{.Number}}">Delete</button></td>
 </tr>
 {{else}}
 <tr><td colspan="5">No valves yet.</td></tr>
 {{end}}
 </tbody>
</table>
<form class="inline" method="post" action="/">
 <label>Number <input type="number" name="valve_number" min="0" max="255" required></label>
 <label>Name <input type="text" name="name" required></label>
 <button type="submit">Add valve</button>
</form>
{{template "scripts"}}{{end}}

{{define "valve"}}{{template "head" .Valve.Name}}
<p><a href="/">&larr; all valves</a></p>
<h1>{{.Valve.Name}} <small>#{{.Valve.Number}}</small></h1>
<p>Valve is <span class="{{.Valve.ValveStatus}}">{{.Valve.ValveStatus}}</span>.</p>
<form class="automation_status_form" data-valve_number="{{.Valve.Number}}">
{{range statuses}}
 <label><input type="radio" name="status" value="{{.}}"{{if eq . $.Valve.AutomationStatus}} checked{{end}}> {{.}}</label>
{{end}}
</form>
<h2>Timetable</h2>
<table>
 <thead><tr><th>Day</th><th>Begin</th><th>End</th><th></th></tr></thead>
 <tbody>
 {{range .Valve.Schedule}}
 <tr>
  <td>{{.Day}}</td><td>{{.Begin}}</td><td>{{.End}}</td>
  <td><button class="schedule_delete_button" data-day="{{.Day}}" data-begin="{{.Begin}}" data-end="{{.End}}">Remove</button></td>
 </tr>
 {{else}}
 <tr><td colspan="4">No entries.</td></tr>
 {{end}}
 </tbody>
</table>
<form class="inline" method="post" action="/valves/{{.Valve.Number}}/timetable">
 <label>Day <select name="day">{{range week}}<option value="{{.}}">{{.}}</option>{{end}}</select></label>
 <label>Begin <input type="time" name="begin" required></label>
 <label>End <input type="time" name="end" required></label>
 <button type="submit">Add entry</button>
</form>
{{template "scripts"}}{{end}}
`
