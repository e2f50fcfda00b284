package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"html/template"
	"strconv"
	"time"
)

var csvHeader = []string{"masa", "pengguna", "tindakan", "entiti", "id_entiti", "meta"}

// WriteCSV renders rows as CSV with a header line.
func WriteCSV(rows []TimelineRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		actor := row.Actor
		if actor == "" {
			actor = strconv.FormatInt(row.ActorID, 10)
		}
		meta := ""
		if len(row.Meta) > 0 {
			raw, err := json.Marshal(row.Meta)
			if err != nil {
				return nil, err
			}
			meta = string(raw)
		}
		record := []string{row.At.UTC().Format(time.RFC3339), actor, row.Action, row.Entity, row.EntityID, meta}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var pdfTemplate = template.Must(template.New("audit").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.Format("02/01/2006") },
	"time": func(t time.Time) string { return t.Format("02/01/2006 15:04") },
}).Parse(`<!DOCTYPE html>
<html lang="ms"><head><meta charset="utf-8"><title>Jejak Audit</title>
<style>
body{font-family:sans-serif;font-size:10pt}
table{width:100%;border-collapse:collapse}
th,td{border:1px solid #999;padding:4px;text-align:left}
th{background:#eee}
</style></head><body>
<h1>Jejak Audit</h1>
<p>Tempoh: {{date .Filters.From}} hingga {{date .Filters.To}}</p>
<table>
<thead><tr><th>Masa</th><th>Pengguna</th><th>Tindakan</th><th>Entiti</th><th>ID</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{time .At}}</td><td>{{if .Actor}}{{.Actor}}{{else}}{{.ActorID}}{{end}}</td><td>{{.Action}}</td><td>{{.Entity}}</td><td>{{.EntityID}}</td></tr>
{{else}}<tr><td colspan="5">Tiada rekod.</td></tr>
{{end}}</tbody>
</table>
</body></html>`))

// RenderHTML renders rows as a printable HTML document.
func RenderHTML(filters TimelineFilters, rows []TimelineRow) ([]byte, error) {
	var buf bytes.Buffer
	err := pdfTemplate.Execute(&buf, struct {
		Filters TimelineFilters
		Rows    []TimelineRow
	}{filters, rows})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
