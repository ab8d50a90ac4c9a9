// ABOUTME: HTML page shell showing the current track with live updates
// ABOUTME: The embedded script follows /events and only writes textContent
package render

import (
	"html/template"
	"io"

	"github.com/harper/nowplaying-broadcaster/internal/domain/track"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>now playing</title>
<style>
  body { font-family: sans-serif; text-align: center; background: #111; color: #fff; font-size: 1.5em; margin-top: 20vh; }
  img { max-width: 240px; max-height: 240px; border-radius: 8px; }
  img[src=""] { display: none; }
  a { color: inherit; }
</style>
</head>
<body>
<img id="cover" src="{{.Cover}}" alt="">
<div>🎵 now playing: <a id="link" href="{{.URL}}"><span id="line">{{.Line}}</span></a></div>
<script>
(function () {
  var placeholder = {{.Placeholder}};
  var cover = document.getElementById("cover");
  var link = document.getElementById("link");
  var line = document.getElementById("line");
  var src = new EventSource("/events");
  src.onmessage = function (ev) {
    var t;
    try { t = JSON.parse(ev.data); } catch (e) { return; }
    line.textContent = (t.title && t.artist) ? t.title + " - " + t.artist : placeholder;
    cover.setAttribute("src", t.cover || "");
    if (t.url) { link.setAttribute("href", t.url); } else { link.removeAttribute("href"); }
  };
})();
</script>
</body>
</html>
`))

type pageData struct {
	Line        string
	Cover       string
	URL         string
	Placeholder string
}

// Page writes the HTML shell for t. All track text is escaped by the template.
func Page(w io.Writer, t track.Track) error {
	return pageTmpl.Execute(w, pageData{
		Line:        t.DisplayLine(),
		Cover:       t.Cover,
		URL:         t.URL,
		Placeholder: track.Placeholder,
	})
}
