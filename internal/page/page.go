package page

import (
	"bytes"
	"text/template"
)

// Params describes the entry page to generate.
type Params struct {
	// Title is the page title, usually the project or artifact name.
	Title string

	// ArtifactName is the URL of the primary WASM artifact.
	ArtifactName string

	// GlueName is the optional JS glue script URL. When set, the page
	// loads the module through the glue script instead of
	// instantiating the artifact directly.
	GlueName string

	// Watch injects the reload polling client.
	Watch bool

	// PollIntervalMs is the reload poll interval (default 1000).
	PollIntervalMs int
}

// Generate renders the entry HTML for the given parameters.
func Generate(p Params) ([]byte, error) {
	if p.Title == "" {
		p.Title = p.ArtifactName
	}
	if p.PollIntervalMs <= 0 {
		p.PollIntervalMs = 1000
	}

	var buf bytes.Buffer
	if err := entryTemplate.Execute(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var entryTemplate = template.Must(template.New("entry").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 40px; background: #1a1a1a; color: #eee; }
  #status { color: #888; }
  #console { white-space: pre-wrap; font-family: monospace; background: #111; padding: 16px; border-radius: 8px; margin-top: 16px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p id="status">Loading {{.ArtifactName}}&hellip;</p>
<div id="console"></div>
{{if .GlueName}}<script type="module">
import init from './{{.GlueName}}';

const status = document.getElementById('status');
init('./{{.ArtifactName}}').then(() => {
    status.textContent = 'Module running.';
}).catch((err) => {
    status.textContent = 'Failed to start module: ' + err;
    console.error(err);
});
</script>
{{else}}<script>
(function() {
    var status = document.getElementById('status');
    var out = document.getElementById('console');

    var importObject = {
        env: {
            print: function(v) { out.textContent += v + '\n'; }
        }
    };

    WebAssembly.instantiateStreaming(fetch('./{{.ArtifactName}}'), importObject)
        .then(function(result) {
            status.textContent = 'Module running.';
            if (typeof result.instance.exports.main === 'function') {
                result.instance.exports.main();
            } else if (typeof result.instance.exports._start === 'function') {
                result.instance.exports._start();
            }
        })
        .catch(function(err) {
            status.textContent = 'Failed to start module: ' + err;
            console.error(err);
        });
})();
</script>
{{end}}{{if .Watch}}<script>
(function() {
    'use strict';

    function poll() {
        fetch('/reload-check', { cache: 'no-store' })
            .then(function(resp) { return resp.text(); })
            .then(function(body) {
                if (body === 'reload') {
                    location.reload();
                }
            })
            .catch(function() { /* server restarting; keep polling */ });
    }

    setInterval(poll, {{.PollIntervalMs}});
})();
</script>
{{end}}</body>
</html>
`))
