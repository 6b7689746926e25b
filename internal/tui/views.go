package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tmoreno/drivermate/internal/orders"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)

	// status badge colors match the original palette: delivered green,
	// in progress yellow, anything else the default blue
	deliveredBadge  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Padding(0, 1)
	inProgressBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")).Padding(0, 1)
	defaultBadge    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("12")).Padding(0, 1)
)

func (a *App) View() string {
	if a.state == viewLogin {
		return a.renderLogin()
	}
	if a.mapOrder != nil {
		return a.renderMap()
	}
	return a.renderDashboard()
}

func (a *App) renderLogin() string {
	title := titleStyle.Render("Drivermate - Driver Login")

	emailMark, passMark := " ", " "
	if a.loginField == fieldEmail {
		emailMark = cursorStyle.Render("▶")
	} else {
		passMark = cursorStyle.Render("▶")
	}

	body := fmt.Sprintf("%s %s %s\n%s %s %s",
		emailMark, labelStyle.Render("Email:   "), a.email,
		passMark, labelStyle.Render("Password:"), strings.Repeat("*", len(a.password)))

	if a.loggingIn {
		body += "\n\nsigning in..."
	} else {
		body += "\n\n[tab] switch field  [enter] sign in  [esc] quit"
	}
	if a.loginErr != "" {
		body += "\n" + errorStyle.Render(a.loginErr)
	}
	return fmt.Sprintf("%s\n\n%s", title, body)
}

func (a *App) renderDashboard() string {
	title := titleStyle.Render("Your Assigned Orders")
	if sess, ok := a.sessions.Current(); ok {
		title += labelStyle.Render("  driver " + sess.UserID)
	}

	out := title + "\n"
	if a.searching || a.query != "" {
		out += fmt.Sprintf("search: %s█\n", a.query)
	}

	list := a.visibleOrders()
	if len(list) == 0 {
		out += "\nNo orders assigned to you currently.\n"
	}
	for i, o := range list {
		out += "\n" + a.renderOrderCard(o, i == a.cursor)
	}

	out += "\n[j/k] move  [v] view location  [m] mark delivered  [/] search  [l] logout  [q] quit"
	if a.status != "" {
		out += "\n" + a.status
	}
	return out
}

func (a *App) renderOrderCard(o orders.Order, selected bool) string {
	marker := " "
	if selected {
		marker = cursorStyle.Render("▶")
	}

	head := fmt.Sprintf("%s Order #%s  %s", marker, o.ID, statusBadge(o.Status))
	lines := []string{
		head,
		fmt.Sprintf("   %s x%d", o.Product.Name, o.Quantity),
		"   " + o.DisplayLocation(),
	}
	if o.User != nil {
		contact := o.User.Name
		if o.User.Phone != "" {
			contact += "  " + o.User.Phone
		}
		if contact != "" {
			lines = append(lines, "   "+labelStyle.Render(contact))
		}
	}
	if o.Delivered() && o.OrderDeliveredAt != "" {
		if ts, err := time.Parse(time.RFC3339, o.OrderDeliveredAt); err == nil {
			lines = append(lines, "   "+labelStyle.Render("delivered "+ts.In(a.tz).Format(a.cfg.UI.DateFormat)))
		}
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderMap() string {
	o := a.mapOrder
	title := titleStyle.Render("Delivery Location - Order #" + o.ID)

	var body strings.Builder
	fmt.Fprintf(&body, "\nDestination: %s\n", o.DisplayLocation())
	if a.mapDest != nil {
		fmt.Fprintf(&body, "Coordinates: %.5f, %.5f\n", a.mapDest.Latitude, a.mapDest.Longitude)
	}
	if a.position != nil {
		fmt.Fprintf(&body, "Your position: %.5f, %.5f\n", a.position.Latitude, a.position.Longitude)
	}

	switch {
	case a.route != nil:
		fmt.Fprintf(&body, "\nDistance: %s   ETA: %s\n", a.route.Distance, a.route.Duration)
		fmt.Fprintf(&body, "Route points: %d\n", len(a.route.Points))
	case a.routeErr != "":
		body.WriteString("\n" + errorStyle.Render("route lookup failed: "+a.routeErr) + "\n")
	case a.directions != nil && a.position != nil:
		body.WriteString("\nfetching route...\n")
	}

	body.WriteString("\n[esc] close map")
	return title + "\n" + body.String()
}

func statusBadge(status string) string {
	switch status {
	case orders.StatusDelivered:
		return deliveredBadge.Render(status)
	case orders.StatusInProgress:
		return inProgressBadge.Render(status)
	default:
		return defaultBadge.Render(status)
	}
}
