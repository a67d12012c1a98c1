package render

import (
	"bytes"
	"html/template"
	"strings"

	"resumescore/internal/types"
)

var htmlTemplate = template.Must(template.New("resume").Funcs(template.FuncMap{
	"upper": strings.ToUpper,
	"join":  strings.Join,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Name}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; max-width: 800px; margin: 2em auto; color: #222; }
h1 { text-align: center; margin-bottom: 0.2em; }
.contact { text-align: center; font-size: 0.9em; color: #555; }
h2 { font-size: 1.05em; border-bottom: 1px solid #333; margin-top: 1.4em; }
.row { display: flex; justify-content: space-between; font-weight: bold; }
.meta { font-weight: normal; font-size: 0.9em; }
.subtitle, .note { font-style: italic; }
.note { font-size: 0.9em; }
ul { margin: 0.3em 0 0.6em 1.2em; padding: 0; }
</style>
</head>
<body>
<h1>{{.Name}}</h1>
{{with .Contact}}<p class="contact">{{join . " | "}}</p>{{end}}
{{range .Sections}}
<section>
<h2>{{upper .Title}}</h2>
{{range .Entries}}<div class="entry">
{{if or .Title .Meta}}<div class="row"><span>{{.Title}}</span><span class="meta">{{if .Meta}}{{.Meta}}{{else if .Link}}<a href="{{.Link}}">{{.Link}}</a>{{end}}</span></div>{{end}}
{{with .Subtitle}}<div class="subtitle">{{.}}</div>{{end}}
{{if .Label}}<p><strong>{{.Label}}</strong> {{if .Link}}<a href="{{.Link}}">{{.Text}}</a>{{else}}{{.Text}}{{end}}</p>{{else if .Text}}<p>{{.Text}}</p>{{end}}
{{with .Bullets}}<ul>{{range .}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{with .Note}}<div class="note">{{.}}</div>{{end}}
</div>
{{end}}</section>
{{end}}
</body>
</html>
`))

// HTMLRenderer produces a standalone HTML page
type HTMLRenderer struct{}

func (h *HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }

func (h *HTMLRenderer) Extension() string { return ".html" }

// Render implements Renderer
func (h *HTMLRenderer) Render(resume types.Resume) ([]byte, error) {
	data := struct {
		Name     string
		Contact  []string
		Sections []section
	}{
		Name:     resume.Name,
		Contact:  resume.ContactParts(),
		Sections: layout(resume),
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
