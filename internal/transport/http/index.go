package httpserver

const indexHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>co2info</title>
</head>
<body>
<h1>co2info</h1>
<ul>
<li><a href="/api/averages">/api/averages</a>: average ppm per meter</li>
<li><a href="/api/unhealthy">/api/unhealthy</a>: readings above the health threshold (<code>?meter=</code> to filter)</li>
<li><a href="/api/broken">/api/broken</a>: unparsable or implausible readings (<code>?meter=</code> to filter)</li>
<li><a href="/api/meters?q=">/api/meters?q=</a>: find meters by name</li>
<li><code>/api/meters/{name}</code>: all readings of one meter</li>
<li><a href="/metrics">/metrics</a></li>
</ul>
</body>
</html>
`
