package view

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"vigil/cli/api"
	"vigil/cli/format"
	"vigil/cli/push"
	"vigil/cli/style"
)

// Region names, in document order.
const (
	RegionConnection = "connection"
	RegionStats      = "stats"
	RegionChart      = "chart"
	RegionServices   = "services"
	RegionAlerts     = "alerts"
)

// NewDashboardDocument builds the document with the standard region
// layout of the live dashboard.
func NewDashboardDocument() *Document {
	return NewDocument(RegionConnection, RegionStats, RegionChart, RegionServices, RegionAlerts)
}

// Renderer maps whole collections to document regions. It owns no state
// between calls except the document and chart handles, so rendering the
// same collection twice yields identical region content.
type Renderer struct {
	doc   *Document
	chart Chart
}

func NewRenderer(doc *Document, chart Chart) *Renderer {
	return &Renderer{doc: doc, chart: chart}
}

func (r *Renderer) Document() *Document {
	return r.doc
}

// Services replaces the services region with one card per service and
// feeds the uptime series to the chart. selected highlights one card;
// pass -1 for none.
func (r *Renderer) Services(services []api.Service, selected int) {
	if len(services) == 0 {
		r.doc.Replace(RegionServices, style.DimText.Render("Сервисы не добавлены"))
		r.chart.SetSeries(nil, nil)
		r.doc.Replace(RegionChart, r.chart.View())
		return
	}

	cards := make([]string, 0, len(services))
	for i, svc := range services {
		cards = append(cards, serviceCard(svc, i == selected))
	}
	r.doc.Replace(RegionServices, strings.Join(cards, "\n"))

	labels := lo.Map(services, func(s api.Service, _ int) string { return s.Name })
	values := lo.Map(services, func(s api.Service, _ int) float64 { return s.Uptime })
	r.chart.SetSeries(labels, values)
	r.doc.Replace(RegionChart, r.chart.View())
}

func serviceCard(svc api.Service, selected bool) string {
	status := format.NormalizeStatus(svc.LastStatus)

	cursor := "  "
	if selected {
		cursor = style.Selected.Render("▸ ")
	}

	name := style.Bold.Render(format.Sanitize(svc.Name))
	url := style.DimText.Render(format.Sanitize(svc.URL))
	badge := style.StatusStyle(status).Render(
		format.StatusIcon(status) + " " + format.StatusLabel(status))

	details := fmt.Sprintf("%s %s   %s %s",
		style.DimText.Render("Uptime (24ч):"), format.Uptime(svc.Uptime),
		style.DimText.Render("Последняя проверка:"), format.LastCheck(svc.LastCheck))

	return fmt.Sprintf("%s%s  %s  %s\n    %s", cursor, style.StatusDot(status), name, badge, url) +
		"\n    " + details
}

// Alerts replaces the alerts region, entries in server order. selected
// highlights one entry; pass -1 for none.
func (r *Renderer) Alerts(alerts []api.Alert, selected int) {
	if len(alerts) == 0 {
		r.doc.Replace(RegionAlerts, style.DimText.Render("Алертов нет"))
		return
	}

	items := make([]string, 0, len(alerts))
	for i, a := range alerts {
		items = append(items, alertItem(a, i == selected))
	}
	r.doc.Replace(RegionAlerts, strings.Join(items, "\n"))
}

func alertItem(a api.Alert, selected bool) string {
	icon := "🚨"
	if a.IsResolved {
		icon = "✅"
	}

	cursor := "  "
	if selected {
		cursor = style.Selected.Render("▸ ")
	}

	serviceName := "Неизвестный сервис"
	if a.Service != nil {
		serviceName = format.Sanitize(a.Service.Name)
	}

	msg := format.Sanitize(a.Message)
	if a.IsResolved {
		msg = style.DimText.Render(msg)
	}

	return fmt.Sprintf("%s%s %s  %s  %s",
		cursor, icon, msg,
		style.DimText.Render(serviceName),
		style.DimText.Render(format.Timestamp(a.CreatedAt)))
}

// Stats replaces the stats region with the aggregate snapshot.
func (r *Renderer) Stats(st *api.Stats) {
	line := strings.Join([]string{
		style.DimText.Render("Всего: ") + style.Bold.Render(fmt.Sprintf("%d", st.TotalServices)),
		style.DimText.Render("Работают: ") + style.Healthy.Render(fmt.Sprintf("%d", st.HealthyServices)),
		style.DimText.Render("Не работают: ") + style.Unhealthy.Render(fmt.Sprintf("%d", st.UnhealthyServices)),
		style.DimText.Render("Средний uptime: ") + style.Bold.Render(fmt.Sprintf("%.1f%%", st.AverageUptime)),
		style.DimText.Render("Активные алерты: ") + style.Unknown.Render(fmt.Sprintf("%d", st.ActiveAlerts)),
	}, "   ")
	r.doc.Replace(RegionStats, line)
}

// Connection replaces the connection-status indicator.
func (r *Renderer) Connection(st push.Status) {
	var line string
	switch st {
	case push.StatusConnected:
		line = style.Healthy.Render("● Подключено")
	case push.StatusDisconnected:
		line = style.Unhealthy.Render("● Отключено")
	default:
		line = style.DimText.Render("● Подключение...")
	}
	r.doc.Replace(RegionConnection, line)
}

// ServiceDetails renders the detail card for one service with its
// recent check history. Standalone: used by the details overlay and
// the inspect command, never written to a dashboard region.
func ServiceDetails(svc *api.Service, checks []api.Check) string {
	var b strings.Builder

	b.WriteString(style.Bold.Render(format.Sanitize(svc.Name)))
	b.WriteString("\n\n")

	kvLine := func(k, v string) {
		b.WriteString(style.Key.Render(k))
		b.WriteString(style.Val.Render(v))
		b.WriteString("\n")
	}
	kvLine("URL", format.Sanitize(svc.URL))
	kvLine("Интервал проверки", fmt.Sprintf("%d сек", svc.CheckInterval))
	kvLine("Таймаут", fmt.Sprintf("%d сек", svc.Timeout))
	kvLine("Создан", format.Timestamp(svc.CreatedAt))

	b.WriteString("\n")
	b.WriteString(style.TableHeader.Render("История проверок"))
	b.WriteString("\n")

	if len(checks) == 0 {
		b.WriteString(style.DimText.Render("История проверок пуста"))
		return cardFor(svc, b.String())
	}

	for _, check := range checks {
		status := format.NormalizeStatus(check.Status)
		errMsg := "-"
		if check.ErrorMessage != "" {
			errMsg = format.Sanitize(check.ErrorMessage)
		}
		b.WriteString(fmt.Sprintf("%s  %s  %-8s  %s\n",
			style.DimText.Render(format.Timestamp(check.CheckedAt)),
			style.StatusStyle(status).Render(format.StatusIcon(status)+" "+format.StatusLabel(status)),
			format.ResponseTime(check.ResponseTime),
			style.DimText.Render(errMsg)))
	}

	return cardFor(svc, b.String())
}

func cardFor(svc *api.Service, content string) string {
	switch format.NormalizeStatus(svc.LastStatus) {
	case format.StatusHealthy:
		return style.CardHealthy.Render(content)
	case format.StatusUnhealthy:
		return style.CardUnhealthy.Render(content)
	}
	return style.CardStyle.Render(content)
}
