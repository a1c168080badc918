package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/printdesk/internal/auth"
	"github.com/Simplici0/printdesk/internal/db"
	"github.com/Simplici0/printdesk/internal/migrations"
	"github.com/Simplici0/printdesk/internal/pricing"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "store-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, migrations.Up(database))
	return New(database)
}

func seedUser(t *testing.T, s *Store, username string) User {
	t.Helper()

	u := User{
		Username:     username,
		Email:        username + "@printcompany.com",
		PasswordHash: "hash",
		Role:         RoleManager,
		Capabilities: auth.ManagerCapabilities,
		IsActive:     true,
		CreatedAt:    baseTime,
	}
	require.NoError(t, s.Users.Create(context.Background(), &u))
	return u
}

func seedClient(t *testing.T, s *Store, owner, company string, at time.Time) Client {
	t.Helper()

	c := Client{CompanyName: company, ContactPerson: "Ivan", Status: ClientStatusNew, AssignedTo: owner, CreatedAt: at, UpdatedAt: at}
	require.NoError(t, s.Clients.Create(context.Background(), &c))
	return c
}

func TestUsers_CreateGetAndConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := seedUser(t, s, "maria")
	assert.Contains(t, u.ID, "user_")

	got, err := s.Users.GetByUsername(ctx, "maria")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, auth.ManagerCapabilities, got.Capabilities)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.LastLoginAt)
	assert.True(t, baseTime.Equal(got.CreatedAt))

	dup := User{Username: "maria", Email: "other@printcompany.com", PasswordHash: "x", Role: RoleManager, CreatedAt: baseTime}
	err = s.Users.Create(ctx, &dup)
	assert.True(t, errors.Is(err, ErrConflict), "err = %v", err)

	exists, err := s.Users.ExistsByUsernameOrEmail(ctx, "someone", "maria@printcompany.com")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = s.Users.Get(ctx, "user_missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUsers_LoginBookkeeping(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "oleg")

	for want := 1; want <= 4; want++ {
		attempts, locked, err := s.Users.RecordFailedLogin(ctx, u.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, want, attempts)
		assert.False(t, locked)
	}
	attempts, locked, err := s.Users.RecordFailedLogin(ctx, u.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, attempts)
	assert.True(t, locked)

	got, err := s.Users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.LoginAttempts)
	assert.True(t, got.IsLocked)

	_, _, err = s.Users.RecordFailedLogin(ctx, "user_missing", 5)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Users.Unlock(ctx, u.ID))
	loginAt := baseTime.Add(time.Hour)
	require.NoError(t, s.Users.RecordLogin(ctx, u.ID, loginAt))

	got, err = s.Users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsLocked)
	assert.Zero(t, got.LoginAttempts)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, loginAt.Equal(*got.LastLoginAt))

	assert.True(t, errors.Is(s.Users.SetActive(ctx, "user_missing", true), ErrNotFound))
}

func TestClients_ListFiltersAndOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "anna")

	seedClient(t, s, u.ID, "Print House", baseTime)
	seedClient(t, s, u.ID, "Textile Lab", baseTime.Add(2*time.Hour))
	seedClient(t, s, u.ID, "Merch Print", baseTime.Add(time.Hour))

	all, err := s.Clients.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Textile Lab", "Merch Print", "Print House"},
		[]string{all[0].CompanyName, all[1].CompanyName, all[2].CompanyName})

	filtered, err := s.Clients.List(ctx, "Print")
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
}

func TestCalculators_UpsertAndConfig(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	calc := Calculator{
		ID:         pricing.DTFCalculatorID,
		Name:       "DTF Печать",
		Technology: "DTF",
		IsActive:   true,
		Pricing:    pricing.DefaultDTF(),
		CreatedAt:  baseTime,
		UpdatedAt:  baseTime,
	}
	require.NoError(t, s.Calculators.Upsert(ctx, calc))

	cfg, err := s.Calculators.Config(ctx, pricing.DTFCalculatorID)
	require.NoError(t, err)
	assert.Equal(t, pricing.DefaultDTF().FormatCodes(), cfg.FormatCodes())
	require.Len(t, cfg.QuantityTiers, 6)
	require.NotNil(t, cfg.QuantityTiers[5].MaxQuantity)
	assert.Equal(t, 10000, *cfg.QuantityTiers[5].MaxQuantity)

	calc.Name = "DTF"
	calc.Pricing.AreaTiers = nil
	err = s.Calculators.Upsert(ctx, calc)
	assert.True(t, errors.Is(err, pricing.ErrInvalidConfiguration))

	_, err = s.Calculators.Config(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestOrders_AttachCalculationRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "pavel")
	c := seedClient(t, s, u.ID, "Print House", baseTime)

	deadline := baseTime.Add(72 * time.Hour)
	o := Order{ClientID: c.ID, Title: "T-shirts", Status: OrderStatusProcessing, Priority: PriorityMedium,
		AssignedTo: u.ID, Deadline: &deadline, CreatedAt: baseTime, UpdatedAt: baseTime}
	require.NoError(t, s.Orders.Create(ctx, &o))

	req := pricing.CalculationRequest{
		FormatCode: "A4",
		WidthCm:    pricing.DefaultDTF().Formats["A4"].Width,
		HeightCm:   pricing.DefaultDTF().Formats["A4"].Height,
		Quantity:   10,
	}
	result, err := pricing.Calculate(pricing.DefaultDTF(), req)
	require.NoError(t, err)

	snapshot := CalculationSnapshot{
		CalculatorID: pricing.DTFCalculatorID,
		Request:      req,
		Result:       result,
		CalculatedBy: u.ID,
		CalculatedAt: baseTime.Add(time.Minute),
	}
	require.NoError(t, s.Orders.AttachCalculation(ctx, o.ID, snapshot))

	got, err := s.Orders.Get(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Calculation)
	assert.True(t, got.Calculation.Result.TotalCost.Equal(result.TotalCost))
	assert.Equal(t, 2, got.Calculation.Result.SheetsNeeded)
	require.NotNil(t, got.Deadline)
	assert.True(t, deadline.Equal(*got.Deadline))
	assert.True(t, snapshot.CalculatedAt.Equal(got.UpdatedAt))

	err = s.Orders.AttachCalculation(ctx, "order_missing", snapshot)
	assert.True(t, errors.Is(err, ErrNotFound))

	list, err := s.Orders.List(ctx, OrderFilter{ClientID: c.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "lena")

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx *Store) error {
		c := Client{CompanyName: "Ghost", Status: ClientStatusNew, AssignedTo: u.ID, CreatedAt: baseTime, UpdatedAt: baseTime}
		if err := tx.Clients.Create(ctx, &c); err != nil {
			return err
		}
		return boom
	})
	assert.True(t, errors.Is(err, boom))

	clients, err := s.Clients.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, clients)

	err = s.WithTx(ctx, func(tx *Store) error {
		c := Client{CompanyName: "Real", Status: ClientStatusNew, AssignedTo: u.ID, CreatedAt: baseTime, UpdatedAt: baseTime}
		if err := tx.Clients.Create(ctx, &c); err != nil {
			return err
		}
		return tx.Audit.Append(ctx, &AuditEntry{UserID: u.ID, Action: "client_created", Details: "Real", CreatedAt: baseTime})
	})
	require.NoError(t, err)

	clients, err = s.Clients.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, clients, 1)
}

func TestNotifications_RecentMarkReadAndCount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "dmitry")

	for i := 0; i < 12; i++ {
		n := Notification{UserID: u.ID, Type: NotificationNewOrder, Title: "Новый заказ", Message: "order", CreatedAt: baseTime.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.Notifications.Create(ctx, &n))
	}

	recent, err := s.Notifications.Recent(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	assert.True(t, recent[0].CreatedAt.After(recent[9].CreatedAt))

	ids := make([]string, 0, len(recent))
	for _, n := range recent {
		ids = append(ids, n.ID)
	}
	require.NoError(t, s.Notifications.MarkRead(ctx, u.ID, ids))

	unread, err := s.Notifications.CountUnread(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)
}

func TestAudit_ListNewestFirstWithFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "sergey")

	require.NoError(t, s.Audit.Append(ctx, &AuditEntry{UserID: u.ID, Action: "login", Details: "a", CreatedAt: baseTime}))
	require.NoError(t, s.Audit.Append(ctx, &AuditEntry{Action: "registration", Details: "b", CreatedAt: baseTime.Add(time.Second)}))
	require.NoError(t, s.Audit.Append(ctx, &AuditEntry{UserID: u.ID, Action: "logout", Details: "c", CreatedAt: baseTime.Add(2 * time.Second)}))

	all, err := s.Audit.List(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "logout", all[0].Action)
	assert.Empty(t, all[1].UserID)

	mine, err := s.Audit.List(ctx, AuditFilter{UserID: u.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
