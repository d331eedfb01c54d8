package fulfillment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"meal-kart/internal/model"
	"meal-kart/internal/notify"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const etaLayout = "Mon, 02 Jan 2006 15:04"

// StatusStore reads and writes order status.
type StatusStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, cancelReason *string, cancelDate *time.Time) (*model.Order, error)
	AssignDriver(ctx context.Context, id, driverID uuid.UUID) (*model.Order, error)
}

// DriverNotifier sends the driver assignment email.
type DriverNotifier interface {
	DriverAssigned(ctx context.Context, driverEmail string, notice notify.DriverNotice) error
}

// StatusManager advances orders through PREPARING, EN_ROUTE, DELIVERED and
// CANCELLED. CANCELLED is terminal.
type StatusManager struct {
	orders   StatusStore
	users    UserStore
	notifier DriverNotifier
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// NewStatusManager creates a status manager.
func NewStatusManager(orders StatusStore, users UserStore, notifier DriverNotifier, loc *time.Location, logger zerolog.Logger) *StatusManager {
	if loc == nil {
		loc = time.Local
	}
	return &StatusManager{
		orders:   orders,
		users:    users,
		notifier: notifier,
		loc:      loc,
		now:      time.Now,
		logger:   logger.With().Str("component", "order_status").Logger(),
	}
}

// UpdateStatus is the administrative status write. It does not send driver
// notifications; use AssignDriver for that.
func (m *StatusManager) UpdateStatus(ctx context.Context, id uuid.UUID, upd model.StatusUpdate) (*model.Order, error) {
	status, err := model.ParseOrderStatus(upd.Status)
	if err != nil {
		return nil, err
	}
	if status == model.OrderStatusCancelled {
		reason := ""
		if upd.CancelReason != nil {
			reason = *upd.CancelReason
		}
		return m.Cancel(ctx, id, reason)
	}

	current, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == model.OrderStatusCancelled {
		return nil, model.NewValidationError(model.ErrCodeInvalidStatus, "Cancelled orders cannot change status")
	}

	order, err := m.orders.UpdateStatus(ctx, id, status, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if order == nil {
		return nil, model.NewNotFoundError("Order not found")
	}

	m.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(current.Status)).
		Str("to", string(status)).
		Msg("order status updated")
	return order, nil
}

// Cancel moves an order to CANCELLED with a reason and the current time.
func (m *StatusManager) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, model.NewValidationError(model.ErrCodeMissingField, "cancelReason is required")
	}

	current, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == model.OrderStatusCancelled {
		return current, nil
	}

	at := m.now()
	order, err := m.orders.UpdateStatus(ctx, id, model.OrderStatusCancelled, &reason, &at)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if order == nil {
		return nil, model.NewNotFoundError("Order not found")
	}

	m.logger.Info().Str("order_id", id.String()).Str("reason", reason).Msg("order cancelled")
	return order, nil
}

// AssignDriver sets the driver, moves the order to EN_ROUTE and emails the
// driver. A failed email never undoes the assignment.
func (m *StatusManager) AssignDriver(ctx context.Context, id, driverID uuid.UUID) (*model.Order, error) {
	if driverID == uuid.Nil {
		return nil, model.NewValidationError(model.ErrCodeMissingField, "driverId is required")
	}

	current, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.Terminal() {
		return nil, model.NewValidationError(model.ErrCodeInvalidStatus,
			fmt.Sprintf("Cannot assign a driver to a %s order", current.Status))
	}

	driver, err := m.users.GetByID(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	if driver == nil {
		return nil, model.NewNotFoundError("Driver not found")
	}

	order, err := m.orders.AssignDriver(ctx, id, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign driver: %w", err)
	}
	if order == nil {
		return nil, model.NewNotFoundError("Order not found")
	}

	m.notifyDriver(ctx, driver, order)

	m.logger.Info().
		Str("order_id", id.String()).
		Str("driver_id", driverID.String()).
		Msg("driver assigned")
	return order, nil
}

func (m *StatusManager) notifyDriver(ctx context.Context, driver *model.User, order *model.Order) {
	customer, err := m.users.GetByID(ctx, order.UserID)
	if err != nil {
		m.logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("failed to load customer for driver notice")
	}

	notice := NewDriverNotice(order, customer, m.loc)
	if err := m.notifier.DriverAssigned(ctx, driver.Email, notice); err != nil {
		m.logger.Warn().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("driver_id", driver.ID.String()).
			Msg("failed to notify driver")
	}
}

func (m *StatusManager) load(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := m.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.NewNotFoundError("Order not found")
	}
	return order, nil
}

// NewDriverNotice extracts the delivery details. It never fails: the order's
// address snapshot is preferred, then the customer's current address, then
// "None Provided".
func NewDriverNotice(order *model.Order, customer *model.User, loc *time.Location) notify.DriverNotice {
	if loc == nil {
		loc = time.Local
	}

	address := model.DecodeAddress(order.DeliveryAddress)
	if address.IsEmpty() {
		address = customer.DeliveryAddress()
	}

	eta := model.NoneProvided
	if order.DeliveryEta != nil {
		eta = order.DeliveryEta.In(loc).Format(etaLayout)
	}

	items := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, fmt.Sprintf("%d x %s", item.Quantity, item.Name))
	}

	return notify.DriverNotice{
		OrderID: order.ID,
		Address: address.String(),
		ETA:     eta,
		Contact: customer.ContactLine(),
		Items:   items,
	}
}
