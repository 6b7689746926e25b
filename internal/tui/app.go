// Package tui renders the two screens the app has: the login form and the
// driver dashboard with its order cards and map modal.
package tui

import (
	"context"
	"errors"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tmoreno/drivermate/internal/api"
	"github.com/tmoreno/drivermate/internal/config"
	"github.com/tmoreno/drivermate/internal/database/repository"
	"github.com/tmoreno/drivermate/internal/location"
	"github.com/tmoreno/drivermate/internal/orders"
	"github.com/tmoreno/drivermate/internal/routing"
	"github.com/tmoreno/drivermate/internal/session"
)

// App ties together views.
type App struct {
	ctx        context.Context
	cfg        config.Config
	sessions   *session.Store
	client     *api.Client
	cache      *repository.OrderRepo
	directions *routing.Directions
	sampler    location.Sampler
	tracker    *location.Tracker
	poller     *orders.Poller

	state appState

	// login form
	email      string
	password   string
	loginField loginField
	loggingIn  bool
	loginErr   string

	// dashboard
	orders    []orders.Order
	cursor    int
	query     string
	searching bool
	status    string
	position  *routing.Point

	// map modal
	mapOrder *orders.Order
	mapDest  *routing.Point
	route    *routing.Route
	routeErr string

	tz *time.Location
}

type appState string

const (
	viewLogin     appState = "login"
	viewDashboard appState = "dashboard"
)

type loginField int

const (
	fieldEmail loginField = iota
	fieldPassword
)

// Deps carries everything the app needs wired in. Sampler may be nil when
// no position source is configured.
type Deps struct {
	Sessions   *session.Store
	Client     *api.Client
	Cache      *repository.OrderRepo
	Directions *routing.Directions
	Sampler    location.Sampler
}

// New builds the app. Session restore must already have run: the initial
// view is chosen by whether a session is live.
func New(ctx context.Context, cfg config.Config, deps Deps, tz *time.Location) *App {
	if tz == nil {
		tz = time.Local
	}
	a := &App{
		ctx:        ctx,
		cfg:        cfg,
		sessions:   deps.Sessions,
		client:     deps.Client,
		cache:      deps.Cache,
		directions: deps.Directions,
		sampler:    deps.Sampler,
		state:      viewLogin,
		tz:         tz,
	}
	if _, ok := deps.Sessions.Current(); ok {
		a.state = viewDashboard
	}
	return a
}

// messages

type loginDoneMsg struct{ err error }

type snapshotMsg orders.Snapshot

type cachedOrdersMsg []orders.Order

type deliveredMsg struct {
	orderID string
	err     error
}

type routeMsg struct {
	route routing.Route
	err   error
}

type positionMsg routing.Point

type statusMsg string

func (a *App) Init() tea.Cmd {
	if a.state == viewDashboard {
		return a.enterDashboard()
	}
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if a.state == viewLogin {
			return a.handleLoginKey(m)
		}
		if a.mapOrder != nil {
			return a.handleMapKey(m)
		}
		if a.searching {
			return a.handleSearchKey(m)
		}
		return a.handleDashboardKey(m)

	case loginDoneMsg:
		a.loggingIn = false
		if m.err != nil {
			a.loginErr = loginErrorText(m.err)
			return a, nil
		}
		a.loginErr = ""
		a.password = ""
		a.state = viewDashboard
		return a, a.enterDashboard()

	case snapshotMsg:
		// a slow fetch can land after logout tore the poller down; orders
		// from the previous session must never reach the login screen
		if a.state != viewDashboard {
			return a, nil
		}
		if m.Err != nil {
			a.status = "refresh failed: " + m.Err.Error()
			return a, a.waitForSnapshot()
		}
		a.orders = m.Orders
		a.clampCursor()
		a.status = "updated " + m.At.In(a.tz).Format("15:04:05")
		return a, tea.Batch(a.waitForSnapshot(), a.persistSnapshot(m.Orders))

	case cachedOrdersMsg:
		if a.state != viewDashboard {
			return a, nil
		}
		// only fill from cache while nothing fresher has arrived
		if len(a.orders) == 0 {
			a.orders = []orders.Order(m)
			a.clampCursor()
		}
		return a, nil

	case deliveredMsg:
		if a.state != viewDashboard {
			return a, nil
		}
		if m.err != nil {
			a.status = "mark delivered failed: " + m.err.Error()
			return a, nil
		}
		a.orders = orders.MarkDelivered(a.orders, m.orderID, time.Now())
		a.status = "order " + m.orderID + " delivered"
		return a, a.persistSnapshot(a.orders)

	case routeMsg:
		if m.err != nil {
			a.routeErr = m.err.Error()
			return a, nil
		}
		r := m.route
		a.route = &r
		return a, nil

	case positionMsg:
		if a.state != viewDashboard {
			return a, nil
		}
		p := routing.Point(m)
		a.position = &p
		return a, a.waitForPosition()

	case statusMsg:
		a.status = string(m)
		return a, nil
	}
	return a, nil
}

func (a *App) handleLoginKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.loggingIn {
		// login form is inert while the exchange is in flight
		if m.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, nil
	}
	switch m.String() {
	case "ctrl+c", "esc":
		return a, tea.Quit
	case "tab", "down", "up", "shift+tab":
		if a.loginField == fieldEmail {
			a.loginField = fieldPassword
		} else {
			a.loginField = fieldEmail
		}
	case "enter":
		if a.email == "" || a.password == "" {
			a.loginErr = "email and password required"
			return a, nil
		}
		a.loggingIn = true
		a.loginErr = ""
		return a, a.loginCmd(a.email, a.password)
	case "backspace":
		if a.loginField == fieldEmail && a.email != "" {
			a.email = a.email[:len(a.email)-1]
		}
		if a.loginField == fieldPassword && a.password != "" {
			a.password = a.password[:len(a.password)-1]
		}
	default:
		if len(m.Runes) > 0 {
			if a.loginField == fieldEmail {
				a.email += string(m.Runes)
			} else {
				a.password += string(m.Runes)
			}
		}
	}
	return a, nil
}

func (a *App) handleDashboardKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		a.teardown()
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.visibleOrders())-1 {
			a.cursor++
		}
	case "/":
		a.searching = true
	case "m":
		list := a.visibleOrders()
		if a.cursor < len(list) && !list[a.cursor].Delivered() {
			id := list[a.cursor].ID
			a.status = "marking " + id + " delivered..."
			return a, a.markDeliveredCmd(id)
		}
	case "v":
		list := a.visibleOrders()
		if a.cursor < len(list) {
			return a, a.openMap(list[a.cursor])
		}
	case "l":
		a.teardown()
		if err := a.sessions.Logout(a.ctx); err != nil {
			a.status = "logout: " + err.Error()
			return a, nil
		}
		a.reset()
		return a, nil
	}
	return a, nil
}

func (a *App) handleSearchKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "esc":
		a.searching = false
		a.query = ""
		a.clampCursor()
	case "enter":
		a.searching = false
	case "backspace":
		if a.query != "" {
			a.query = a.query[:len(a.query)-1]
		}
	default:
		if len(m.Runes) > 0 {
			a.query += string(m.Runes)
			a.clampCursor()
		}
	}
	return a, nil
}

func (a *App) handleMapKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "esc", "q":
		a.mapOrder = nil
		a.mapDest = nil
		a.route = nil
		a.routeErr = ""
	}
	return a, nil
}

// commands

func (a *App) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg{err: a.sessions.Login(a.ctx, email, password)}
	}
}

// enterDashboard starts the refresh loop and position tracking. It must be
// paired with teardown.
func (a *App) enterDashboard() tea.Cmd {
	sess, ok := a.sessions.Current()
	if !ok {
		return nil
	}

	a.poller = orders.NewPoller(func(ctx context.Context) ([]orders.Order, error) {
		return a.client.OrdersByDriver(ctx, sess.UserID)
	}, a.cfg.Orders.PollInterval)
	a.poller.Start(a.ctx)

	cmds := []tea.Cmd{a.loadCachedOrders(sess.UserID), a.waitForSnapshot()}
	if a.sampler != nil {
		a.tracker = location.NewTracker(a.sampler, a.cfg.Location.Interval, a.cfg.Location.MinDistanceMeters)
		a.tracker.Start(a.ctx)
		cmds = append(cmds, a.waitForPosition())
	}
	return tea.Batch(cmds...)
}

// teardown stops the periodic work; it is required before leaving the
// dashboard so no poll or sample loop leaks.
func (a *App) teardown() {
	if a.poller != nil {
		a.poller.Stop()
		a.poller = nil
	}
	if a.tracker != nil {
		a.tracker.Stop()
		a.tracker = nil
	}
}

func (a *App) reset() {
	a.orders = nil
	a.cursor = 0
	a.query = ""
	a.searching = false
	a.status = ""
	a.position = nil
	a.mapOrder = nil
	a.route = nil
	a.email = ""
	a.password = ""
	a.loginField = fieldEmail
	a.state = viewLogin
}

func (a *App) waitForSnapshot() tea.Cmd {
	p := a.poller
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-p.Updates()
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (a *App) waitForPosition() tea.Cmd {
	t := a.tracker
	if t == nil {
		return nil
	}
	return func() tea.Msg {
		pt, ok := <-t.Points()
		if !ok {
			return nil
		}
		return positionMsg(pt)
	}
}

func (a *App) loadCachedOrders(driverID string) tea.Cmd {
	if a.cache == nil {
		return nil
	}
	return func() tea.Msg {
		list, err := a.cache.ListByDriver(a.ctx, driverID)
		if err != nil {
			return statusMsg("cache read failed: " + err.Error())
		}
		return cachedOrdersMsg(list)
	}
}

func (a *App) persistSnapshot(list []orders.Order) tea.Cmd {
	sess, ok := a.sessions.Current()
	if a.cache == nil || !ok {
		return nil
	}
	snapshot := make([]orders.Order, len(list))
	copy(snapshot, list)
	return func() tea.Msg {
		if err := a.cache.ReplaceAll(a.ctx, sess.UserID, snapshot); err != nil {
			return statusMsg("cache write failed: " + err.Error())
		}
		return nil
	}
}

func (a *App) markDeliveredCmd(orderID string) tea.Cmd {
	return func() tea.Msg {
		_, err := a.client.MarkDelivered(a.ctx, orderID)
		return deliveredMsg{orderID: orderID, err: err}
	}
}

// openMap validates the order's coordinates before anything else; a 0,0 or
// unparsable pair never reaches the directions service.
func (a *App) openMap(o orders.Order) tea.Cmd {
	dest, err := routing.ParseCoordinates(o.DeliveryLatitude, o.DeliveryLongitude)
	if err != nil {
		a.status = "invalid location coordinates"
		return nil
	}
	ord := o
	a.mapOrder = &ord
	a.mapDest = &dest
	a.route = nil
	a.routeErr = ""

	if a.directions == nil || a.position == nil {
		return nil
	}
	origin := *a.position
	return func() tea.Msg {
		r, err := a.directions.Route(a.ctx, origin, dest)
		return routeMsg{route: r, err: err}
	}
}

// helpers

func (a *App) visibleOrders() []orders.Order {
	return orders.Filter(a.orders, a.query)
}

func (a *App) clampCursor() {
	if n := len(a.visibleOrders()); a.cursor >= n {
		a.cursor = 0
	}
}

func loginErrorText(err error) string {
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusUnauthorized {
		return "invalid email or password"
	}
	return err.Error()
}
