// Package report renders a digest as a standalone HTML page.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Section is one topic of the page.
type Section struct {
	Title   string
	Bullets []Bullet
}

// Bullet pairs a question with its answer. Answer is HTML produced by the
// model and is inserted without escaping.
type Bullet struct {
	Question string
	Answer   string
}

var page = template.Must(template.New("page").Funcs(template.FuncMap{
	"trusted": func(s string) template.HTML { return template.HTML(s) }, //nolint:gosec // model output is formatted with <b>, <i>, <ol>
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>Youtube Made Simple</title>
  <link rel="stylesheet" href="https://unpkg.com/tailwindcss@2.2.19/dist/tailwind.min.css" />
  <link rel="preconnect" href="https://fonts.gstatic.com" />
  <link href="https://fonts.googleapis.com/css2?family=Inter:wght@400;600;700&display=swap" rel="stylesheet" />
  <style>
    body { background-color: #f7fafc; font-family: 'Inter', sans-serif; }
    h1, h2 { font-weight: 700; margin-bottom: 0.5rem; }
    ul { list-style-type: disc; margin-left: 1.5rem; margin-bottom: 1.5rem; }
    li { margin-bottom: 1rem; }
    ol { list-style-type: decimal; margin-left: 2rem; margin-top: 0.5rem; }
    ol li { margin-bottom: 0.2rem; }
    .bullet-content ol { margin-top: 0.3rem; margin-bottom: 0.3rem; }
  </style>
</head>
<body class="min-h-screen flex items-center justify-center p-4">
  <div class="max-w-2xl w-full bg-white rounded-2xl shadow-lg p-6">
    <h1 class="text-4xl text-gray-800 mb-6">{{.Title}}</h1>
{{- range .Sections}}
    <h2 class="text-2xl text-gray-800 mb-4">{{.Title}}</h2>
    <ul class="text-gray-600">
{{- range .Bullets}}
      <li>
        <strong>{{.Question}}</strong><br />
        <div class="bullet-content">{{trusted .Answer}}</div>
      </li>
{{- end}}
    </ul>
{{- end}}
  </div>
</body>
</html>
`))

// Render produces the page. A non-empty provider is appended to the
// heading in upper case.
func Render(title string, sections []Section, provider string) (string, error) {
	if provider != "" {
		title = fmt.Sprintf("%s (%s)", title, strings.ToUpper(provider))
	}

	var buf bytes.Buffer
	err := page.Execute(&buf, struct {
		Title    string
		Sections []Section
	}{title, sections})
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

var (
	unsafeChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	spaces      = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes name safe to use as a file name.
func SanitizeFilename(name string) string {
	s := unsafeChars.ReplaceAllString(name, "")
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))
	if r := []rune(s); len(r) > 200 {
		s = strings.TrimSpace(string(r[:200]))
	}
	if s == "" {
		s = "youtube_video"
	}
	return s
}

// Write stores html as <dir>/<title>_<provider>.html, creating dir when
// needed, and returns the file path.
func Write(dir, title, provider, html string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.html", SanitizeFilename(title), strings.ToLower(provider)))
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil { //nolint:gosec // report is meant to be world readable
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
