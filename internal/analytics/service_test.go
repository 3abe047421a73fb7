package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/agromarket/agromarket-backend/pkg/db/dbtest"
	"github.com/agromarket/agromarket-backend/pkg/db/models"
	"github.com/agromarket/agromarket-backend/pkg/enums"
)

func seedOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, status enums.OrderStatus, total string, items ...models.OrderItem) {
	t.Helper()
	order := &models.Order{
		UserID:           userID,
		OrderDate:        time.Now().UTC(),
		Status:           status,
		TotalAmount:      decimal.RequireFromString(total),
		DeliveryAddress:  "addr",
		DeliveryTimeSlot: "slot",
		Items:            items,
	}
	require.NoError(t, conn.Create(order).Error)
}

func line(product *models.Product, qty int) models.OrderItem {
	id := product.ID
	name := product.Name
	return models.OrderItem{ProductID: &id, ProductName: &name, Quantity: qty, UnitPrice: product.Price}
}

func TestSummaryAggregates(t *testing.T) {
	conn := dbtest.Open(t)
	user := dbtest.MustUser(t, conn, "buyer", enums.RoleCustomer)
	dbtest.MustUser(t, conn, "other", enums.RoleCustomer)

	products := make([]*models.Product, 0, 6)
	for i := 0; i < 6; i++ {
		products = append(products, dbtest.MustProduct(t, conn, fmt.Sprintf("P%d", i), "1.00", 100, nil))
	}

	seedOrder(t, conn, user.ID, enums.OrderStatusPending, "10.50", line(products[0], 10), line(products[1], 1))
	seedOrder(t, conn, user.ID, enums.OrderStatusConfirmed, "4.50", line(products[2], 5), line(products[3], 4))
	seedOrder(t, conn, user.ID, enums.OrderStatusCancelled, "99.00", line(products[4], 3), line(products[5], 2))

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, summary.TotalUsers)
	require.EqualValues(t, 3, summary.TotalOrders)
	require.EqualValues(t, 1, summary.PendingOrders)
	require.Equal(t, "15.00", summary.TotalRevenue.StringFixed(2))

	require.Len(t, summary.TopProducts, 5)
	require.Equal(t, "P0", summary.TopProducts[0].Name)
	require.EqualValues(t, 10, summary.TopProducts[0].TotalSold)
	require.Equal(t, "P2", summary.TopProducts[1].Name)
}

func TestSummaryOnEmptyDatabase(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.True(t, summary.TotalRevenue.IsZero())
	require.Empty(t, summary.TopProducts)
}
