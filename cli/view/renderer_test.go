package view

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/cli/api"
	"vigil/cli/push"
)

func newTestRenderer() *Renderer {
	return NewRenderer(NewDashboardDocument(), NewSparkline())
}

func someServices() []api.Service {
	return []api.Service{
		{ID: 1, Name: "api", URL: "https://api.example.com", LastStatus: "healthy", Uptime: 99.5, LastCheck: time.Date(2024, 3, 7, 12, 0, 0, 0, time.Local)},
		{ID: 2, Name: "billing", URL: "https://billing.example.com", LastStatus: "unhealthy", Uptime: 41.2},
	}
}

func TestServicesRenderIsIdempotent(t *testing.T) {
	r := newTestRenderer()
	services := someServices()

	r.Services(services, -1)
	first := r.Document().Content(RegionServices)
	r.Services(services, -1)
	second := r.Document().Content(RegionServices)

	assert.Equal(t, first, second)
}

func TestServicesFullReplace(t *testing.T) {
	r := newTestRenderer()
	r.Services(someServices(), -1)
	require.Contains(t, r.Document().Content(RegionServices), "billing")

	// Collection B omits the billing service; nothing of it may remain.
	r.Services([]api.Service{{ID: 1, Name: "api", URL: "https://api.example.com", LastStatus: "healthy"}}, -1)
	content := r.Document().Content(RegionServices)
	assert.NotContains(t, content, "billing")
	assert.Contains(t, content, "api")
}

func TestEmptyServicesShowEmptyState(t *testing.T) {
	r := newTestRenderer()
	r.Services(someServices(), -1)
	r.Services(nil, -1)

	content := r.Document().Content(RegionServices)
	assert.Contains(t, content, "Сервисы не добавлены")
	assert.NotContains(t, content, "api")
}

func TestAbsentStatusRendersUnknown(t *testing.T) {
	r := newTestRenderer()
	r.Services([]api.Service{{ID: 5, Name: "new-service", URL: "https://x.example.com"}}, -1)

	content := r.Document().Content(RegionServices)
	assert.Contains(t, content, "Неизвестно")
	assert.Contains(t, content, "❓")
}

func TestUntrustedTextIsSanitized(t *testing.T) {
	r := newTestRenderer()
	r.Services([]api.Service{{ID: 1, Name: "bad\x1b[2Jname", URL: "https://ok.example.com"}}, -1)

	// The ESC byte is stripped, so the remaining "[2J" is inert text.
	content := r.Document().Content(RegionServices)
	assert.NotContains(t, content, "\x1b[2J")
	assert.Contains(t, content, "bad[2Jname")
}

func TestAlertsEmptyState(t *testing.T) {
	r := newTestRenderer()
	r.Alerts(nil, -1)
	assert.Contains(t, r.Document().Content(RegionAlerts), "Алертов нет")
}

func TestAlertRendering(t *testing.T) {
	r := newTestRenderer()
	svc := &api.Service{ID: 1, Name: "api"}
	r.Alerts([]api.Alert{
		{ID: 1, Message: "api is down", Service: svc, CreatedAt: time.Now()},
		{ID: 2, Message: "old outage", IsResolved: true, CreatedAt: time.Now()},
	}, -1)

	content := r.Document().Content(RegionAlerts)
	assert.Contains(t, content, "🚨")
	assert.Contains(t, content, "✅")
	assert.Contains(t, content, "api is down")
}

func TestAlertWithoutServiceFallsBack(t *testing.T) {
	r := newTestRenderer()
	r.Alerts([]api.Alert{{ID: 1, Message: "orphan", CreatedAt: time.Now()}}, -1)
	assert.Contains(t, r.Document().Content(RegionAlerts), "Неизвестный сервис")
}

func TestStatsRegion(t *testing.T) {
	r := newTestRenderer()
	r.Stats(&api.Stats{TotalServices: 3, HealthyServices: 2, UnhealthyServices: 1, AverageUptime: 88.4, ActiveAlerts: 1})

	content := r.Document().Content(RegionStats)
	assert.Contains(t, content, "88.4%")
	assert.Contains(t, content, "3")
}

func TestConnectionIndicator(t *testing.T) {
	r := newTestRenderer()
	r.Connection(push.StatusConnected)
	assert.Contains(t, r.Document().Content(RegionConnection), "Подключено")
	r.Connection(push.StatusDisconnected)
	assert.Contains(t, r.Document().Content(RegionConnection), "Отключено")
}

func TestServiceDetailsEmptyHistory(t *testing.T) {
	svc := &api.Service{ID: 1, Name: "api", URL: "https://api.example.com", CheckInterval: 30, Timeout: 10, CreatedAt: time.Now()}
	out := ServiceDetails(svc, nil)
	assert.Contains(t, out, "История проверок пуста")
}

func TestServiceDetailsChecksTable(t *testing.T) {
	svc := &api.Service{ID: 1, Name: "api", URL: "https://api.example.com", LastStatus: "healthy"}
	checks := []api.Check{
		{ID: 1, Status: "healthy", ResponseTime: 120, CheckedAt: time.Now()},
		{ID: 2, Status: "unhealthy", ResponseTime: 0, ErrorMessage: "connection refused", CheckedAt: time.Now()},
	}
	out := ServiceDetails(svc, checks)
	assert.Contains(t, out, "120ms")
	assert.Contains(t, out, "connection refused")
	assert.Contains(t, out, "Не работает")
}

func TestDocumentRenderOrder(t *testing.T) {
	d := NewDocument("a", "b")
	d.Replace("b", "second")
	d.Replace("a", "first")
	d.Replace("nonexistent", "ignored")

	out := d.Render()
	assert.Equal(t, "first\nsecond", out)
	assert.Empty(t, d.Content("nonexistent"))
}

func TestSparklineScaling(t *testing.T) {
	s := NewSparkline()
	s.SetSeries([]string{"a", "b", "c"}, []float64{0, 50, 100})
	out := s.View()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "▁")
	assert.Contains(t, out, "█")

	s.SetSeries(nil, nil)
	assert.Empty(t, s.View())
}

func TestSelectedCursorMarker(t *testing.T) {
	r := newTestRenderer()
	services := someServices()
	r.Services(services, 0)
	withCursor := r.Document().Content(RegionServices)
	r.Services(services, -1)
	withoutCursor := r.Document().Content(RegionServices)

	assert.NotEqual(t, withCursor, withoutCursor)
	assert.True(t, strings.Contains(withCursor, "▸"))
}
