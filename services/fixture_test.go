package services

import (
	"context"
	"testing"
	"time"

	"github.com/kendall-kelly/atelier-api/logger"
	"github.com/kendall-kelly/atelier-api/models"
	"github.com/kendall-kelly/atelier-api/tests/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type workflowFixture struct {
	db         *gorm.DB
	dispatcher *MockDispatcher
	events     *MockEventPublisher
	log        *logger.TestLogger
	orders     *BespokeService
	tasks      *ProductionTaskService

	customer *models.User
	staff    *models.User
	staff2   *models.User
	admin    *models.User
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	f := &workflowFixture{
		db:         db,
		dispatcher: NewMockDispatcher(),
		events:     NewMockEventPublisher(),
		log:        logger.NewTestLogger(t),
	}
	deps := WorkflowDeps{
		Dispatcher: f.dispatcher,
		Activity:   NewGormActivityLogger(db),
		Events:     f.events,
		Logger:     f.log,
		AppBaseURL: "https://atelier.test/",
	}
	f.orders = NewBespokeService(db, deps)
	f.tasks = NewProductionTaskService(db, deps)

	f.customer = testutil.CreateUser(t, db, "cara", models.RoleCustomer)
	f.staff = testutil.CreateUser(t, db, "sol", models.RoleStaff)
	f.staff2 = testutil.CreateUser(t, db, "tomas", models.RoleStaff)
	f.admin = testutil.CreateUser(t, db, "ada", models.RoleAdmin)
	return f
}

// createOrder creates an order linked to the fixture customer, with an email.
func (f *workflowFixture) createOrder(t *testing.T) *models.BespokeOrder {
	t.Helper()
	email := "cara@example.com"
	order, err := f.orders.CreateOrder(context.Background(), BespokeOrderInput{
		CustomerName:  "Cara Quinn",
		CustomerPhone: "+44 20 7946 0000",
		CustomerEmail: &email,
		UserID:        &f.customer.ID,
	}, f.staff)
	require.NoError(t, err)
	return order
}

// createWalkInOrder creates an order without an account or email.
func (f *workflowFixture) createWalkInOrder(t *testing.T) *models.BespokeOrder {
	t.Helper()
	order, err := f.orders.CreateOrder(context.Background(), BespokeOrderInput{
		CustomerName:  "Walk In",
		CustomerPhone: "555-0100",
	}, f.staff)
	require.NoError(t, err)
	return order
}

func (f *workflowFixture) reloadOrder(t *testing.T, id uint) models.BespokeOrder {
	t.Helper()
	var order models.BespokeOrder
	require.NoError(t, f.db.First(&order, id).Error)
	return order
}

func (f *workflowFixture) statusLogs(t *testing.T, orderID uint) []models.BespokeStatusLog {
	t.Helper()
	var logs []models.BespokeStatusLog
	require.NoError(t, f.db.Where("bespoke_order_id = ?", orderID).Order("id ASC").Find(&logs).Error)
	return logs
}

func (f *workflowFixture) activityCount(t *testing.T, action string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.ActivityLog{}).Where("action = ?", action).Count(&n).Error)
	return n
}

// fixClock pins timeNow for the rest of the test.
func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	previous := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = previous })
}

func strPtr(s string) *string { return &s }

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
