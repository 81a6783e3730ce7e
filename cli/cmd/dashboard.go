package cmd

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"vigil/cli/api"
	"vigil/cli/format"
	"vigil/cli/push"
	"vigil/cli/style"
	"vigil/cli/syncer"
	"vigil/cli/view"
)

// Defaults applied to missing numeric inputs; everything else is
// validated server-side.
const (
	defaultCheckInterval = 30
	defaultTimeout       = 10
	checkHistoryLimit    = 50
	notifTTL             = 3 * time.Second
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Short:   "Live dashboard with push updates",
	Aliases: []string{"watch", "top"},
	RunE:    runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	p := tea.NewProgram(newDashboardModel(client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// --- Messages ---

// Messages delivered through the sink bridge (these re-arm the channel
// reader).
type servicesMsg struct{ services []api.Service }
type alertsMsg struct{ alerts []api.Alert }
type statsMsg struct{ stats *api.Stats }
type connMsg struct{ status push.Status }
type notifMsg struct{ text string }

// Messages produced by command goroutines.
type mutationDoneMsg struct {
	text       string
	collection syncer.Collection
}
type mutationFailedMsg struct{ text string }
type detailsMsg struct {
	service *api.Service
	checks  []api.Check
}
type notifExpiredMsg struct{ seq int }

// uiBridge forwards sync results and failure notifications into the
// bubbletea loop, so all rendering happens on its single thread. Sends
// never block: after teardown nothing drains the channel and late fetch
// results are simply dropped.
type uiBridge struct {
	ch chan tea.Msg
}

func (b *uiBridge) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
		log.Printf("dashboard: dropping %T, bridge buffer full", msg)
	}
}

func (b *uiBridge) ApplyServices(services []api.Service) { b.send(servicesMsg{services}) }
func (b *uiBridge) ApplyAlerts(alerts []api.Alert)       { b.send(alertsMsg{alerts}) }
func (b *uiBridge) ApplyStats(stats *api.Stats)          { b.send(statsMsg{stats}) }
func (b *uiBridge) Notify(message string)                { b.send(notifMsg{message}) }

// --- Model ---

type overlay int

const (
	overlayNone overlay = iota
	overlayAdd
	overlayDetails
	overlayConfirmDelete
)

const (
	paneServices = iota
	paneAlerts
)

type dashboardModel struct {
	client  *api.Client
	channel *push.Channel
	ctrl    *syncer.Controller
	events  chan tea.Msg

	doc      *view.Document
	renderer *view.Renderer

	services []api.Service
	alerts   []api.Alert

	pane        int
	svcCursor   int
	alertCursor int

	overlay        overlay
	inputs         []textinput.Model
	focused        int
	details        string
	detailsLoading bool
	deleteTarget   *api.Service

	spin      spinner.Model
	notifText string
	notifErr  bool
	notifSeq  int

	quitting bool
}

func newDashboardModel(client *api.Client) dashboardModel {
	events := make(chan tea.Msg, 64)
	bridge := &uiBridge{ch: events}

	doc := view.NewDashboardDocument()
	renderer := view.NewRenderer(doc, view.NewSparkline())
	renderer.Connection(push.StatusConnecting)

	ctrl := syncer.New(client, bridge, bridge)

	channel := push.New(client.WebSocketURL())
	channel.OnMessage(ctrl.HandleEvent)
	channel.OnStatus(func(s push.Status) { bridge.send(connMsg{s}) })

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(style.Primary)

	labels := []string{"Название", "URL", "Интервал проверки (сек)", "Таймаут (сек)"}
	inputs := make([]textinput.Model, len(labels))
	for i, label := range labels {
		in := textinput.New()
		in.Placeholder = label
		in.CharLimit = 200
		in.Width = 40
		inputs[i] = in
	}
	inputs[0].Focus()

	return dashboardModel{
		client:   client,
		channel:  channel,
		ctrl:     ctrl,
		events:   events,
		doc:      doc,
		renderer: renderer,
		inputs:   inputs,
		spin:     s,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	m.channel.Connect()
	m.ctrl.Start()
	return tea.Batch(m.spin.Tick, waitForSync(m.events))
}

// waitForSync reads the next bridge message.
func waitForSync(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case servicesMsg:
		m.services = msg.services
		if m.svcCursor >= len(m.services) {
			m.svcCursor = len(m.services) - 1
		}
		if m.svcCursor < 0 {
			m.svcCursor = 0
		}
		m.renderServices()
		return m, waitForSync(m.events)

	case alertsMsg:
		m.alerts = msg.alerts
		if m.alertCursor >= len(m.alerts) {
			m.alertCursor = len(m.alerts) - 1
		}
		if m.alertCursor < 0 {
			m.alertCursor = 0
		}
		m.renderAlerts()
		return m, waitForSync(m.events)

	case statsMsg:
		m.renderer.Stats(msg.stats)
		return m, waitForSync(m.events)

	case connMsg:
		m.renderer.Connection(msg.status)
		return m, waitForSync(m.events)

	case notifMsg:
		cmd := m.showNotif(msg.text, true)
		return m, tea.Batch(cmd, waitForSync(m.events))

	case mutationDoneMsg:
		if m.overlay == overlayAdd || m.overlay == overlayConfirmDelete {
			m.closeOverlays()
		}
		m.ctrl.Refresh(syncer.ReasonMutation, msg.collection)
		return m, m.showNotif(msg.text, false)

	case mutationFailedMsg:
		return m, m.showNotif(msg.text, true)

	case detailsMsg:
		m.detailsLoading = false
		m.details = view.ServiceDetails(msg.service, msg.checks)
		return m, nil

	case notifExpiredMsg:
		if msg.seq == m.notifSeq {
			m.notifText = ""
		}
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.teardown()
	}

	switch m.overlay {
	case overlayAdd:
		return m.handleAddFormKey(msg)
	case overlayDetails:
		if msg.String() == "esc" || msg.String() == "q" {
			m.closeOverlays()
		}
		return m, nil
	case overlayConfirmDelete:
		switch msg.String() {
		case "y", "enter":
			target := m.deleteTarget
			m.closeOverlays()
			if target != nil {
				return m, deleteService(m.client, target.ID)
			}
			return m, nil
		default:
			m.closeOverlays()
			return m, nil
		}
	}

	switch msg.String() {
	case "q":
		return m.teardown()
	case "esc":
		m.closeOverlays()
		return m, nil
	case "a":
		return m.openAddForm()
	case "tab":
		if m.pane == paneServices {
			m.pane = paneAlerts
		} else {
			m.pane = paneServices
		}
		m.renderServices()
		m.renderAlerts()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		return m, nil
	case "enter":
		if m.pane == paneServices {
			return m.openDetails()
		}
		return m.resolveSelected()
	case "x":
		if m.pane == paneServices && m.svcCursor < len(m.services) {
			svc := m.services[m.svcCursor]
			m.deleteTarget = &svc
			m.overlay = overlayConfirmDelete
		}
		return m, nil
	}

	return m, nil
}

func (m *dashboardModel) moveCursor(delta int) {
	if m.pane == paneServices {
		m.svcCursor = clamp(m.svcCursor+delta, 0, len(m.services)-1)
		m.renderServices()
		return
	}
	m.alertCursor = clamp(m.alertCursor+delta, 0, len(m.alerts)-1)
	m.renderAlerts()
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (m *dashboardModel) renderServices() {
	selected := -1
	if m.pane == paneServices {
		selected = m.svcCursor
	}
	m.renderer.Services(m.services, selected)
}

func (m *dashboardModel) renderAlerts() {
	selected := -1
	if m.pane == paneAlerts {
		selected = m.alertCursor
	}
	m.renderer.Alerts(m.alerts, selected)
}

func (m *dashboardModel) closeOverlays() {
	m.overlay = overlayNone
	m.details = ""
	m.detailsLoading = false
	m.deleteTarget = nil
}

func (m dashboardModel) openAddForm() (tea.Model, tea.Cmd) {
	m.overlay = overlayAdd
	m.focused = 0
	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Blur()
	}
	m.inputs[0].Focus()
	return m, textinput.Blink
}

func (m dashboardModel) handleAddFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeOverlays()
		return m, nil
	case "tab", "down":
		return m.focusInput(m.focused + 1)
	case "shift+tab", "up":
		return m.focusInput(m.focused - 1)
	case "enter":
		if m.focused < len(m.inputs)-1 {
			return m.focusInput(m.focused + 1)
		}
		return m, m.submitAddForm()
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m dashboardModel) focusInput(idx int) (tea.Model, tea.Cmd) {
	m.focused = clamp(idx, 0, len(m.inputs)-1)
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	return m, m.inputs[m.focused].Focus()
}

func (m dashboardModel) submitAddForm() tea.Cmd {
	req := api.CreateServiceRequest{
		Name:          m.inputs[0].Value(),
		URL:           m.inputs[1].Value(),
		CheckInterval: atoiOr(m.inputs[2].Value(), defaultCheckInterval),
		Timeout:       atoiOr(m.inputs[3].Value(), defaultTimeout),
	}
	c := m.client
	return func() tea.Msg {
		if err := c.CreateService(req); err != nil {
			return mutationFailedMsg{text: err.Error()}
		}
		return mutationDoneMsg{text: "Сервис успешно добавлен", collection: syncer.Services}
	}
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// openDetails fetches the service record and its recent checks
// concurrently, independent of the global refresh cycle.
func (m dashboardModel) openDetails() (tea.Model, tea.Cmd) {
	if m.svcCursor >= len(m.services) {
		return m, nil
	}
	id := m.services[m.svcCursor].ID
	m.overlay = overlayDetails
	m.detailsLoading = true
	m.details = ""

	c := m.client
	return m, func() tea.Msg {
		var (
			svc    *api.Service
			checks []api.Check
			svcErr error
			chkErr error
			wg     sync.WaitGroup
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			svc, svcErr = c.GetService(id)
		}()
		go func() {
			defer wg.Done()
			checks, chkErr = c.ListChecks(id, checkHistoryLimit)
		}()
		wg.Wait()

		if svcErr != nil || chkErr != nil {
			return mutationFailedMsg{text: "Ошибка загрузки деталей сервиса"}
		}
		return detailsMsg{service: svc, checks: checks}
	}
}

func (m dashboardModel) resolveSelected() (tea.Model, tea.Cmd) {
	if m.alertCursor >= len(m.alerts) {
		return m, nil
	}
	a := m.alerts[m.alertCursor]
	if a.IsResolved {
		return m, nil
	}
	return m, resolveAlert(m.client, a.ID)
}

func deleteService(c *api.Client, id int) tea.Cmd {
	return func() tea.Msg {
		if err := c.DeleteService(id); err != nil {
			return mutationFailedMsg{text: err.Error()}
		}
		return mutationDoneMsg{text: "Сервис успешно удален", collection: syncer.Services}
	}
}

func resolveAlert(c *api.Client, id int) tea.Cmd {
	return func() tea.Msg {
		if err := c.ResolveAlert(id); err != nil {
			return mutationFailedMsg{text: err.Error()}
		}
		return mutationDoneMsg{text: "Алерт разрешен", collection: syncer.Alerts}
	}
}

func (m *dashboardModel) showNotif(text string, isErr bool) tea.Cmd {
	m.notifText = format.Sanitize(text)
	m.notifErr = isErr
	m.notifSeq++
	seq := m.notifSeq
	return tea.Tick(notifTTL, func(time.Time) tea.Msg {
		return notifExpiredMsg{seq: seq}
	})
}

func (m dashboardModel) teardown() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.channel.Close()
	m.ctrl.Stop()
	return m, tea.Quit
}

// --- View ---

func (m dashboardModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(style.Banner.Render("⚡ VIGIL"))
	b.WriteString("\n")

	switch m.overlay {
	case overlayAdd:
		b.WriteString(m.viewAddForm())
	case overlayDetails:
		if m.detailsLoading {
			b.WriteString(m.spin.View() + style.DimText.Render(" Загрузка деталей сервиса..."))
		} else {
			b.WriteString(m.details)
			b.WriteString("\n")
			b.WriteString(style.DimText.Render("esc — закрыть"))
		}
	case overlayConfirmDelete:
		name := ""
		if m.deleteTarget != nil {
			name = format.Sanitize(m.deleteTarget.Name)
		}
		b.WriteString(style.ErrorBox.Render(fmt.Sprintf("Удалить сервис «%s»? y/n", name)))
	default:
		b.WriteString(m.doc.Render())
		b.WriteString("\n")
		b.WriteString(style.DimText.Render("↑/↓ выбор · tab панель · enter детали/разрешить · a добавить · x удалить · q выход"))
	}

	if m.notifText != "" {
		box := style.SuccessBox
		if m.notifErr {
			box = style.ErrorBox
		}
		b.WriteString("\n")
		b.WriteString(box.Render(m.notifText))
	}

	b.WriteString("\n")
	return b.String()
}

func (m dashboardModel) viewAddForm() string {
	var b strings.Builder
	b.WriteString(style.Bold.Render("Добавить сервис"))
	b.WriteString("\n\n")
	for i := range m.inputs {
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(style.DimText.Render("enter — далее/сохранить · esc — отмена"))
	return style.CardStyle.Render(b.String())
}
