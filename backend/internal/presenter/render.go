package presenter

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/souvik03-136/craftwatch/backend/internal/config"
	"github.com/souvik03-136/craftwatch/backend/internal/models"
)

// Title is shown in the browser tab and as the page heading.
const Title = "Minecraft Server Dashboard"

//go:embed templates/dashboard.html
var templatesFS embed.FS

// Renderer turns ServerStatus records into HTML.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded dashboard templates.
func NewRenderer() (*Renderer, error) {
	t, err := template.New("dashboard").Option("missingkey=zero").ParseFS(templatesFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded dashboard template: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

type statusView struct {
	Online        bool
	MOTD          string
	PlayersOnline int
	PlayersMax    int
	Latency       string
	Error         string
	Target        string
	CheckedAt     string
}

func newStatusView(s models.ServerStatus) statusView {
	v := statusView{
		Online:    s.Online,
		Error:     s.Error,
		Target:    s.Target,
		CheckedAt: s.CheckedAt.Format(time.TimeOnly),
	}
	if s.MOTD != nil {
		v.MOTD = *s.MOTD
	}
	if s.PlayersOnline != nil {
		v.PlayersOnline = *s.PlayersOnline
	}
	if s.PlayersMax != nil {
		v.PlayersMax = *s.PlayersMax
	}
	if s.LatencyMs != nil {
		v.Latency = FormatLatency(*s.LatencyMs)
	}
	return v
}

type pageView struct {
	Title          string
	Status         statusView
	Remaining      int
	RefreshSeconds int
}

func refreshSeconds() int {
	return int(config.RefreshInterval / time.Second)
}

// Page writes the full dashboard for s with the countdown at its start.
func (r *Renderer) Page(w io.Writer, s models.ServerStatus) error {
	return r.tmpl.ExecuteTemplate(w, "page", pageView{
		Title:          Title,
		Status:         newStatusView(s),
		Remaining:      refreshSeconds(),
		RefreshSeconds: refreshSeconds(),
	})
}

// Login writes the password prompt.
func (r *Renderer) Login(w io.Writer) error {
	return r.tmpl.ExecuteTemplate(w, "login", pageView{Title: Title})
}

// StatusFragment renders only the status block, for live updates.
func (r *Renderer) StatusFragment(s models.ServerStatus) (string, error) {
	return r.fragment("status", newStatusView(s))
}

// CountdownFragment renders the countdown line.
func (r *Renderer) CountdownFragment(remaining int) (string, error) {
	return r.fragment("countdown", remaining)
}

func (r *Renderer) fragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// FormatLatency prints milliseconds with at most two decimals and no
// trailing zeros.
func FormatLatency(ms float64) string {
	return strconv.FormatFloat(math.Round(ms*100)/100, 'f', -1, 64)
}
