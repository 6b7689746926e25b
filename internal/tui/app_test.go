package tui

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/tmoreno/drivermate/internal/api"
	"github.com/tmoreno/drivermate/internal/config"
	"github.com/tmoreno/drivermate/internal/credfile"
	"github.com/tmoreno/drivermate/internal/orders"
	"github.com/tmoreno/drivermate/internal/session"
)

func testConfig() config.Config {
	return config.Config{
		Orders: config.OrdersConfig{PollInterval: time.Hour},
		UI:     config.UIConfig{DateFormat: "02/01 15:04"},
	}
}

func loggedOutApp(t *testing.T) *App {
	t.Helper()
	creds := credfile.NewAt(filepath.Join(t.TempDir(), "credentials.json"))
	sessions := session.New(noopClient{}, creds)
	return New(context.Background(), testConfig(), Deps{Sessions: sessions}, time.UTC)
}

func loggedInApp(t *testing.T) *App {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "42", "role": "driver"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	creds := credfile.NewAt(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, creds.Save(tok))
	sessions := session.New(noopClient{}, creds)
	require.NoError(t, sessions.Restore())

	return New(context.Background(), testConfig(), Deps{Sessions: sessions}, time.UTC)
}

type noopClient struct{}

func (noopClient) Login(ctx context.Context, email, password string) (api.Credentials, error) {
	return api.Credentials{}, errors.New("not wired")
}

func (noopClient) Logout(ctx context.Context) {}

func (noopClient) SetAuthToken(tok string) {}

func TestInitialViewFollowsSession(t *testing.T) {
	t.Parallel()

	require.Equal(t, viewLogin, loggedOutApp(t).state)
	require.Equal(t, viewDashboard, loggedInApp(t).state)
}

func TestLoginSuccessSwitchesToDashboard(t *testing.T) {
	t.Parallel()

	a := loggedOutApp(t)
	a.loggingIn = true

	model, _ := a.Update(loginDoneMsg{err: nil})
	a = model.(*App)
	require.Equal(t, viewDashboard, a.state)
	require.False(t, a.loggingIn)
	require.Empty(t, a.password)
}

func TestLoginFailureStaysOnLogin(t *testing.T) {
	t.Parallel()

	a := loggedOutApp(t)
	a.loggingIn = true

	model, _ := a.Update(loginDoneMsg{err: errors.New("rejected")})
	a = model.(*App)
	require.Equal(t, viewLogin, a.state)
	require.Equal(t, "rejected", a.loginErr)
}

func TestLoginFormInertWhileInFlight(t *testing.T) {
	t.Parallel()

	a := loggedOutApp(t)
	a.email = "a@b.com"
	a.loggingIn = true

	model, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	a = model.(*App)
	require.Nil(t, cmd)
	require.Equal(t, "a@b.com", a.email, "input ignored while login is in flight")
}

func TestSnapshotUpdatesOrders(t *testing.T) {
	t.Parallel()

	a := loggedInApp(t)
	list := []orders.Order{{ID: "1", Status: "Pending"}, {ID: "2", Status: orders.StatusDelivered}}

	model, _ := a.Update(snapshotMsg(orders.Snapshot{Orders: list, At: time.Now()}))
	a = model.(*App)
	require.Len(t, a.orders, 2)
}

func TestSnapshotErrorKeepsOldOrders(t *testing.T) {
	t.Parallel()

	a := loggedInApp(t)
	a.orders = []orders.Order{{ID: "1", Status: "Pending"}}

	model, _ := a.Update(snapshotMsg(orders.Snapshot{Err: errors.New("timeout")}))
	a = model.(*App)
	require.Len(t, a.orders, 1)
	require.Contains(t, a.status, "refresh failed")
}

// A snapshot landing after logout belongs to the previous session; it must
// never populate the order list behind the login screen.
func TestSnapshotIgnoredOnLoginScreen(t *testing.T) {
	t.Parallel()

	a := loggedOutApp(t)
	late := orders.Snapshot{Orders: []orders.Order{{ID: "prev-driver-order"}}, At: time.Now()}

	model, cmd := a.Update(snapshotMsg(late))
	a = model.(*App)
	require.Nil(t, cmd, "no re-arm against a torn-down refresh loop")
	require.Empty(t, a.orders)
	require.Equal(t, viewLogin, a.state)
}

func TestDeliveredFlipsOnlyMatch(t *testing.T) {
	t.Parallel()

	a := loggedInApp(t)
	a.orders = []orders.Order{{ID: "1", Status: "Pending"}, {ID: "2", Status: "Pending"}}

	model, _ := a.Update(deliveredMsg{orderID: "1"})
	a = model.(*App)
	require.Equal(t, orders.StatusDelivered, a.orders[0].Status)
	require.NotEmpty(t, a.orders[0].OrderDeliveredAt)
	require.Equal(t, "Pending", a.orders[1].Status)
}

func TestOpenMapRejectsZeroCoordinates(t *testing.T) {
	t.Parallel()

	a := loggedInApp(t)
	cmd := a.openMap(orders.Order{ID: "1", DeliveryLatitude: "0", DeliveryLongitude: "0"})
	require.Nil(t, cmd)
	require.Nil(t, a.mapOrder)
	require.Equal(t, "invalid location coordinates", a.status)
}

func TestOpenMapWithValidCoordinates(t *testing.T) {
	t.Parallel()

	a := loggedInApp(t)
	cmd := a.openMap(orders.Order{ID: "1", DeliveryLatitude: "-37.8", DeliveryLongitude: "144.9"})
	require.Nil(t, cmd, "no route lookup without a position fix")
	require.NotNil(t, a.mapOrder)
	require.NotNil(t, a.mapDest)
	require.Contains(t, a.View(), "Delivery Location - Order #1")
}

func TestCachedOrdersOnlyFillEmptyList(t *testing.T) {
	t.Parallel()

	a := loggedInApp(t)
	model, _ := a.Update(cachedOrdersMsg{{ID: "old"}})
	a = model.(*App)
	require.Len(t, a.orders, 1)

	a.orders = []orders.Order{{ID: "fresh"}}
	model, _ = a.Update(cachedOrdersMsg{{ID: "stale"}})
	a = model.(*App)
	require.Equal(t, "fresh", a.orders[0].ID)
}
