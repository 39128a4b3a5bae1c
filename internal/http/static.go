package http

import (
	"html"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterStatic wires a tiny inline HTML page at GET "/".
func RegisterStatic(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
	})
}

// notFoundPage answers 404 for unknown, malformed and expired codes alike.
func notFoundPage(c *gin.Context, code string) {
	msg := "That short link does not exist or has expired."
	if code != "" {
		msg = "<code>/" + html.EscapeString(code) + "</code> does not exist or has expired."
	}
	c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(notFoundHead+msg+notFoundTail))
	c.Abort()
}

const pageStyle = `<style>
:root{--bg:#f6f7f9;--fg:#1c1e21;--muted:#6b7078;--line:#d9dce1;--accent:#2f6fed}
*{box-sizing:border-box}
body{font:16px/1.5 system-ui,sans-serif;margin:0;padding:3rem 1rem;background:var(--bg);color:var(--fg)}
main{max-width:600px;margin:0 auto;background:#fff;border:1px solid var(--line);border-radius:10px;padding:1.5rem}
h1{font-size:1.2rem;margin:0 0 1rem}
input{width:100%;padding:.6rem .75rem;border:1px solid var(--line);border-radius:6px;font:inherit}
form{display:grid;gap:.6rem}
button{justify-self:start;padding:.6rem 1.2rem;border:0;border-radius:6px;background:var(--accent);color:#fff;font:inherit;cursor:pointer}
pre{white-space:pre-wrap;word-break:break-all;background:var(--bg);border-radius:6px;padding:.75rem}
footer,.hint{color:var(--muted);font-size:.875rem}
a{color:var(--accent)}
</style>`

const indexPage = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width,initial-scale=1"/>
<title>urlshortner</title>
` + pageStyle + `
</head>
<body>
<main>
  <h1>Shorten a link</h1>
  <form id="f">
    <input id="url" type="url" required placeholder="https://example.com/very/long/link"/>
    <input id="code" type="text" placeholder="custom code, 3-32 of A-Z a-z 0-9 _ - (optional)"/>
    <button type="submit">Shorten</button>
  </form>
  <div id="out"></div>
  <footer>Links expire after 24 hours. API: <code>POST /shorten</code>, <code>GET /:code</code>, <code>GET /api/links/:code</code></footer>
</main>
<script>
document.getElementById('f').addEventListener('submit', async ev => {
  ev.preventDefault();
  const body = { url: document.getElementById('url').value.trim() };
  const code = document.getElementById('code').value.trim();
  if (code) body.code = code;
  const res = await fetch('/shorten', {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    body: JSON.stringify(body),
  });
  const data = await res.json().catch(() => ({}));
  const out = document.getElementById('out');
  out.replaceChildren();
  if (res.ok) {
    const link = document.createElement('a');
    link.href = link.textContent = data.short_url;
    const p = document.createElement('p');
    p.append(data.message || 'Created:', ' ', link);
    out.append(p);
  }
  const pre = document.createElement('pre');
  pre.textContent = JSON.stringify(data, null, 2);
  out.append(pre);
});
</script>
</body>
</html>`

const notFoundHead = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<title>Link not found</title>
` + pageStyle + `
</head>
<body>
<main>
  <h1>Link not found</h1>
  <p>`

const notFoundTail = `</p>
  <p class="hint"><a href="/">Create a new short link</a></p>
</main>
</body>
</html>`
