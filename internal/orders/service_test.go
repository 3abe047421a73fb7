package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/pkg/db/dbtest"
	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
	pkgerrors "github.com/agromarket/agromarket-backend/pkg/errors"
	"github.com/agromarket/agromarket-backend/pkg/logger"
	"github.com/agromarket/agromarket-backend/pkg/pagination"
)

type stubActivity struct {
	actions []enums.ActivityAction
}

func (s *stubActivity) Record(_ context.Context, _ uuid.UUID, action enums.ActivityAction) {
	s.actions = append(s.actions, action)
}

type stubMetrics struct {
	placed   int
	rejected []string
}

func (s *stubMetrics) IncPlaced()                { s.placed++ }
func (s *stubMetrics) IncRejected(reason string) { s.rejected = append(s.rejected, reason) }

type fixture struct {
	conn     *gorm.DB
	svc      Service
	activity *stubActivity
	metrics  *stubMetrics
	user     *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Client(t)
	f := &fixture{conn: client.DB(), activity: &stubActivity{}, metrics: &stubMetrics{}}
	svc, err := NewService(ServiceParams{
		DB:       client,
		Repo:     NewRepository(client.DB()),
		Activity: f.activity,
		Metrics:  f.metrics,
		Logger:   logger.Nop(),
	})
	require.NoError(t, err)
	f.svc = svc
	f.user = dbtest.MustUser(t, f.conn, "buyer", enums.RoleCustomer)
	return f
}

func (f *fixture) addLine(t *testing.T, product *models.Product, qty int) {
	t.Helper()
	cart := &models.Cart{}
	require.NoError(t, f.conn.Where(models.Cart{UserID: f.user.ID}).FirstOrCreate(cart).Error)
	require.NoError(t, f.conn.Create(&models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: qty}).Error)
}

func (f *fixture) cartLines(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.conn.Model(&models.CartItem{}).Count(&count).Error)
	return count
}

func stockOf(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	require.NoError(t, conn.First(&product, "id = ?", id).Error)
	return product.Stock
}

var validRequest = PlaceOrderRequest{DeliveryAddress: "1 Farm Road", DeliveryTimeSlot: "10:00-12:00"}

func TestPlaceRejectsInsufficientStockAndKeepsCart(t *testing.T) {
	f := newFixture(t)
	a := dbtest.MustProduct(t, f.conn, "A", "2.00", 5, nil)
	b := dbtest.MustProduct(t, f.conn, "B", "3.00", 0, nil)
	f.addLine(t, a, 3)
	f.addLine(t, b, 1)

	_, err := f.svc.Place(context.Background(), f.user.ID, validRequest)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	details := pkgerrors.As(err).Details().(map[string]any)
	require.Equal(t, "B", details["product"])
	require.Equal(t, 0, details["available"])

	require.EqualValues(t, 2, f.cartLines(t))
	require.Equal(t, 5, stockOf(t, f.conn, a.ID))
	var orders int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&orders).Error)
	require.Zero(t, orders)
	require.Equal(t, []string{"insufficient_stock"}, f.metrics.rejected)
}

func TestPlaceCreatesPendingOrderAndClearsCart(t *testing.T) {
	f := newFixture(t)
	a := dbtest.MustProduct(t, f.conn, "Apples", "2.50", 5, nil)
	b := dbtest.MustProduct(t, f.conn, "Beans", "1.10", 4, nil)
	f.addLine(t, a, 2)
	f.addLine(t, b, 4)

	order, err := f.svc.Place(context.Background(), f.user.ID, validRequest)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 2)
	require.Equal(t, "9.40", order.TotalAmount.StringFixed(2))
	require.Equal(t, "buyer", order.Username)

	require.Zero(t, f.cartLines(t))
	require.Equal(t, 3, stockOf(t, f.conn, a.ID))
	require.Equal(t, 0, stockOf(t, f.conn, b.ID))
	require.Equal(t, 1, f.metrics.placed)
	require.Equal(t, []enums.ActivityAction{enums.ActivityPlacedOrder}, f.activity.actions)
}

func TestPlaceValidatesInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Place(context.Background(), f.user.ID, PlaceOrderRequest{DeliveryAddress: " "})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Place(context.Background(), f.user.ID, validRequest)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSnapshotSurvivesPriceChangeAndDeletion(t *testing.T) {
	f := newFixture(t)
	product := dbtest.MustProduct(t, f.conn, "Honey", "7.00", 2, nil)
	f.addLine(t, product, 1)

	placed, err := f.svc.Place(context.Background(), f.user.ID, validRequest)
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(product).UpdateColumn("price", "9.00").Error)
	require.NoError(t, f.conn.Delete(&models.Product{}, "id = ?", product.ID).Error)

	got, err := f.svc.Get(context.Background(), f.user.ID, placed.ID)
	require.NoError(t, err)
	require.Equal(t, "7.00", got.TotalAmount.StringFixed(2))
	require.Equal(t, "Honey", got.Items[0].ProductName)
	require.Equal(t, "7.00", got.Items[0].UnitPrice.StringFixed(2))
}

func TestDecrementStockIsConditional(t *testing.T) {
	f := newFixture(t)
	product := dbtest.MustProduct(t, f.conn, "Eggs", "1.00", 2, nil)
	repo := NewRepository(f.conn)

	ok, err := repo.DecrementStock(context.Background(), product.ID, 3)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = repo.DecrementStock(context.Background(), product.ID, 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, stockOf(t, f.conn, product.ID))
}

func TestGetAndConfirmAreOwnerScoped(t *testing.T) {
	f := newFixture(t)
	product := dbtest.MustProduct(t, f.conn, "Milk", "1.00", 5, nil)
	f.addLine(t, product, 1)
	placed, err := f.svc.Place(context.Background(), f.user.ID, validRequest)
	require.NoError(t, err)

	other := dbtest.MustUser(t, f.conn, "other", enums.RoleCustomer)
	_, err = f.svc.Get(context.Background(), other.ID, placed.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.Confirm(context.Background(), other.ID, placed.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	confirmed, err := f.svc.Confirm(context.Background(), f.user.ID, placed.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusConfirmed, confirmed.Status)

	_, err = f.svc.Confirm(context.Background(), f.user.ID, placed.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	list, err := f.svc.ListForUser(context.Background(), f.user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestUpdateStatusFollowsTransitions(t *testing.T) {
	f := newFixture(t)
	product := dbtest.MustProduct(t, f.conn, "Milk", "1.00", 5, nil)
	f.addLine(t, product, 1)
	placed, err := f.svc.Place(context.Background(), f.user.ID, validRequest)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = f.svc.UpdateStatus(ctx, placed.ID, "Lost")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.UpdateStatus(ctx, placed.ID, "delivered")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	for _, next := range []string{"Confirmed", "shipped", "Delivered"} {
		_, err = f.svc.UpdateStatus(ctx, placed.ID, next)
		require.NoError(t, err)
	}
	_, err = f.svc.UpdateStatus(ctx, placed.ID, "Cancelled")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.UpdateStatus(ctx, uuid.New(), "Confirmed")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListAllFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		order := &models.Order{
			UserID:           f.user.ID,
			OrderDate:        base.Add(time.Duration(i) * time.Hour),
			Status:           enums.OrderStatusPending,
			DeliveryAddress:  "addr",
			DeliveryTimeSlot: "slot",
		}
		if i == 0 {
			order.Status = enums.OrderStatusShipped
		}
		require.NoError(t, f.conn.Create(order).Error)
	}

	page, err := f.svc.ListAll(context.Background(), pagination.Params{Limit: 1}, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.NotEmpty(t, page.NextCursor)

	rest, err := f.svc.ListAll(context.Background(), pagination.Params{Limit: 5, Cursor: page.NextCursor}, "")
	require.NoError(t, err)
	require.Len(t, rest.Items, 2)
	require.Empty(t, rest.NextCursor)

	shipped, err := f.svc.ListAll(context.Background(), pagination.Params{}, "shipped")
	require.NoError(t, err)
	require.Len(t, shipped.Items, 1)

	_, err = f.svc.ListAll(context.Background(), pagination.Params{}, "bogus")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
