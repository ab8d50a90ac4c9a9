// ABOUTME: SVG image rendering of the current track for embedding
// ABOUTME: Escapes untrusted text and shortens lines that would overflow
package render

import (
	"html/template"
	"io"

	"github.com/harper/nowplaying-broadcaster/internal/domain/track"
)

const maxSVGLine = 60

var svgTmpl = template.Must(template.New("svg").Parse(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="600" height="120" viewBox="0 0 600 120">
<rect width="600" height="120" rx="12" fill="#111"/>
{{- if .Cover}}
<image x="10" y="10" width="100" height="100" href="{{.Cover}}" xlink:href="{{.Cover}}" preserveAspectRatio="xMidYMid slice"/>
{{- end}}
<text x="{{.TextX}}" y="52" font-family="sans-serif" font-size="14" fill="#aaa">now playing</text>
<text x="{{.TextX}}" y="78" font-family="sans-serif" font-size="20" fill="#fff">{{.Line}}</text>
</svg>
`))

type svgData struct {
	Line  string
	Cover string
	TextX int
}

// SVG writes an image for t. Cover URLs are not fetched or validated here.
func SVG(w io.Writer, t track.Track) error {
	data := svgData{
		Line:  shorten(t.DisplayLine(), maxSVGLine),
		Cover: t.Cover,
		TextX: 20,
	}
	if t.Cover != "" {
		data.TextX = 125
	}
	return svgTmpl.Execute(w, data)
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
