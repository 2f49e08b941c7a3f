package outwriter

import (
	"html/template"
	"io"

	"github.com/huangsam/pulsecheck/schema"
)

const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>pulsecheck health summary</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2rem auto; max-width: 1100px; color: #222; }
h1 { margin-bottom: 0.2rem; }
.sub { color: #666; margin-top: 0; }
table { border-collapse: collapse; margin: 0.5rem 0 0.3rem; width: 100%; }
th, td { border: 1px solid #ddd; padding: 0.35rem 0.6rem; text-align: right; }
th { background: #f4f6f8; }
td:first-child, th:first-child { text-align: left; }
.note { color: #666; font-size: 0.9rem; margin-bottom: 1.5rem; }
.improving, .best, .good { color: #1a7f37; font-weight: bold; }
.declining, .worst, .HIGH, .concern { color: #cf222e; font-weight: bold; }
.MEDIUM { color: #9a6700; }
.na { color: #999; }
</style>
</head>
<body>
<h1>pulsecheck health summary</h1>
<p class="sub">{{.Headline}}</p>
{{range .Tables}}
<h2>{{.Title}}</h2>
{{if .Rows}}<table>
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td class="{{cellClass .}}">{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>{{end}}
{{with .Note}}<p class="note">{{.}}</p>{{end}}
{{end}}
{{if .Dropped}}<p class="note">Skipped {{.Dropped}} unusable records.</p>{{end}}
</body>
</html>
`

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"cellClass": cellClass,
}).Parse(htmlPage))

// cellClass styles enum cells so that labels keep their meaning without color in text.
func cellClass(cell string) string {
	switch cell {
	case string(schema.Improving), string(schema.Declining),
		string(schema.BestImpact), string(schema.WorstImpact),
		string(schema.HighPriority), string(schema.MediumPriority),
		string(schema.GoodAssessment), string(schema.ConcernAssessment):
		return cell
	case string(schema.NoImpact):
		return "na"
	}
	return ""
}

// writeHTML renders a standalone HTML page.
func writeHTML(w io.Writer, view schema.AnalysisSummary, tables []table) error {
	return htmlTemplate.Execute(w, struct {
		Headline string
		Tables   []table
		Dropped  int
	}{
		Headline: headline(view),
		Tables:   tables,
		Dropped:  view.Metadata.DroppedRecords,
	})
}
