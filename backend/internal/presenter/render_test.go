package presenter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souvik03-136/craftwatch/backend/internal/models"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	return r
}

func TestStatusFragmentOnline(t *testing.T) {
	r := newRenderer(t)

	html, err := r.StatusFragment(models.OnlineStatus("mc.example.org:25565", "Welcome", 3, 20, 42.5))
	require.NoError(t, err)

	assert.Contains(t, html, "Server is ONLINE!")
	assert.Contains(t, html, "MOTD: Welcome")
	assert.Contains(t, html, "Players: 3 / 20")
	assert.Contains(t, html, "Latency: 42.5 ms")
	assert.NotContains(t, html, "OFFLINE")
	assert.NotContains(t, html, "Error:")
}

func TestStatusFragmentOffline(t *testing.T) {
	r := newRenderer(t)

	html, err := r.StatusFragment(models.OfflineStatus("mc.example.org:25565", "connection refused"))
	require.NoError(t, err)

	assert.Contains(t, html, "Server is OFFLINE or unreachable.")
	assert.Contains(t, html, "Error: connection refused")
	assert.NotContains(t, html, "ONLINE!")
	assert.NotContains(t, html, "Players:")
}

func TestStatusFragmentEscapesMOTD(t *testing.T) {
	r := newRenderer(t)

	html, err := r.StatusFragment(models.OnlineStatus("h:1", "<script>x</script>", 0, 1, 1))
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>x</script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestCountdownFragment(t *testing.T) {
	r := newRenderer(t)

	html, err := r.CountdownFragment(17)
	require.NoError(t, err)
	assert.Contains(t, html, "Refreshing in 17 seconds...")
}

func TestPage(t *testing.T) {
	r := newRenderer(t)
	var b strings.Builder

	require.NoError(t, r.Page(&b, models.OnlineStatus("h:1", "Welcome", 3, 20, 42.5)))
	out := b.String()

	assert.Contains(t, out, "<title>Minecraft Server Dashboard</title>")
	assert.Contains(t, out, "Refresh Now")
	assert.Contains(t, out, "Players: 3 / 20")
	assert.Contains(t, out, "Refreshing in 30 seconds...")
	assert.Contains(t, out, `content="30"`)
	assert.NotContains(t, out, `type="password"`)
}

func TestLogin(t *testing.T) {
	r := newRenderer(t)
	var b strings.Builder

	require.NoError(t, r.Login(&b))
	out := b.String()

	assert.Contains(t, out, `type="password"`)
	assert.Contains(t, out, `name="password"`)
	assert.NotContains(t, out, "Refresh Now")
	assert.NotContains(t, out, "Server is")
}

func TestFormatLatency(t *testing.T) {
	cases := map[float64]string{
		42.5:    "42.5",
		10:      "10",
		0:       "0",
		12.3456: "12.35",
		99.999:  "100",
		7.10:    "7.1",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatLatency(in), "latency %v", in)
	}
}
