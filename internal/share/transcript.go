package share

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/openclue/soupmaster/internal/game"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

const pageTemplate = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} - 海龟汤对局回放</title>
<style>
body { max-width: 720px; margin: 0 auto; padding: 2rem 1rem; font-family: system-ui, sans-serif; line-height: 1.6; color: #222; }
h1 { font-size: 1.5rem; }
.surface { background: #f6f8fa; border-radius: 8px; padding: 1rem; margin: 1rem 0; }
.msg { margin: 0.75rem 0; padding: 0.5rem 0.75rem; border-radius: 8px; }
.msg.player { background: #e7f0fe; }
.msg.host { background: #f6f8fa; }
.msg.system { color: #666; font-size: 0.9rem; }
.msg .who { font-weight: 600; font-size: 0.85rem; margin-bottom: 0.25rem; }
.solution { background: #fff8e1; border-radius: 8px; padding: 1rem; margin: 1rem 0; }
.meta { color: #666; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">进度 {{.Progress}}% · 状态 {{.Status}}</p>
<div class="surface">{{.Surface}}</div>
{{range .Messages}}<div class="msg {{.Class}}"><div class="who">{{.Who}}</div><div>{{.Body}}</div></div>
{{end}}{{if .Solution}}<div class="solution"><strong>汤底</strong>{{.Solution}}</div>{{end}}
</body>
</html>
`

var transcriptTmpl = template.Must(template.New("transcript").Parse(pageTemplate))

type transcriptMessage struct {
	Class string
	Who   string
	Body  template.HTML
}

type transcriptData struct {
	Title    string
	Status   game.Status
	Progress int
	Surface  template.HTML
	Messages []transcriptMessage
	Solution template.HTML
}

// RenderTranscript renders a shared session replay as a standalone
// HTML page. Puzzle text and host replies are treated as markdown;
// player questions are plain text.
func RenderTranscript(v *View) ([]byte, error) {
	data := transcriptData{
		Title:    v.PuzzleTitle,
		Status:   v.Status,
		Progress: v.Progress,
	}

	surface, err := renderMarkdown(v.Description)
	if err != nil {
		return nil, err
	}
	data.Surface = surface

	for _, m := range v.Messages {
		tm := transcriptMessage{}
		switch m.Role {
		case game.RoleUser:
			tm.Class = "player"
			tm.Who = "玩家"
			tm.Body = template.HTML(template.HTMLEscapeString(m.Content))
		case game.RoleAssistant:
			tm.Class = "host"
			tm.Who = "主持人"
			body, err := renderMarkdown(m.Content)
			if err != nil {
				return nil, err
			}
			tm.Body = body
		default:
			tm.Class = "system"
			tm.Who = "系统"
			tm.Body = template.HTML(template.HTMLEscapeString(m.Content))
		}
		data.Messages = append(data.Messages, tm)
	}

	if v.Solution != "" {
		sol, err := renderMarkdown(v.Solution)
		if err != nil {
			return nil, err
		}
		data.Solution = sol
	}

	var buf bytes.Buffer
	if err := transcriptTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering transcript: %w", err)
	}
	return buf.Bytes(), nil
}

func renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(strings.TrimSpace(src)), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}
