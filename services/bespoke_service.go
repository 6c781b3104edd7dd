package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/kendall-kelly/atelier-api/logger"
	"github.com/kendall-kelly/atelier-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const entityBespokeOrder = "bespoke order"

// BespokeOrderInput holds the editable fields of a new bespoke order.
type BespokeOrderInput struct {
	CustomerName            string
	CustomerPhone           string
	CustomerEmail           *string
	UserID                  *uint
	EstimatedPrice          *float64
	FinalPrice              *float64
	DepositAmount           *float64
	DepositPaid             bool
	DesignDescription       *string
	FabricDetails           *string
	CustomerNotes           *string
	InternalNotes           *string
	MeasurementID           *uint
	EstimatedCompletionDate *time.Time
}

// BespokeOrderUpdate is a partial update; nil fields are left alone. An
// empty CustomerEmail clears the stored email. Status is not editable here.
type BespokeOrderUpdate struct {
	CustomerName            *string
	CustomerPhone           *string
	CustomerEmail           *string
	UserID                  *uint
	EstimatedPrice          *float64
	FinalPrice              *float64
	DepositAmount           *float64
	DepositPaid             *bool
	DesignDescription       *string
	FabricDetails           *string
	CustomerNotes           *string
	InternalNotes           *string
	MeasurementID           *uint
	EstimatedCompletionDate *time.Time
	UnlinkUser              bool // detach the customer account; conflicts with UserID
}

// BespokeOrderFilter narrows ListOrders.
type BespokeOrderFilter struct {
	Status string
	UserID *uint
	Page   int
	Limit  int
}

// BespokeService owns bespoke orders and their status workflow.
type BespokeService struct {
	db   *gorm.DB
	deps WorkflowDeps
}

// NewBespokeService creates a bespoke order service
func NewBespokeService(db *gorm.DB, deps WorkflowDeps) *BespokeService {
	return &BespokeService{db: db, deps: deps.withDefaults()}
}

// CreateOrder stores a new order in INQUIRY together with its first status-log row.
func (s *BespokeService) CreateOrder(ctx context.Context, input BespokeOrderInput, actor *models.User) (*models.BespokeOrder, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.CustomerName)
	phone := strings.TrimSpace(input.CustomerPhone)
	if name == "" {
		return nil, invalid("customer_name", "customer name is required")
	}
	if phone == "" {
		return nil, invalid("customer_phone", "customer phone is required")
	}
	email := trimmedOrNil(input.CustomerEmail)
	if email != nil && !govalidator.IsEmail(*email) {
		return nil, invalid("customer_email", "%q is not a valid email address", *email)
	}
	if err := checkAmounts(input.EstimatedPrice, input.FinalPrice, input.DepositAmount); err != nil {
		return nil, err
	}

	order := models.BespokeOrder{
		CustomerName:            name,
		CustomerPhone:           phone,
		CustomerEmail:           email,
		UserID:                  input.UserID,
		EstimatedPrice:          input.EstimatedPrice,
		FinalPrice:              input.FinalPrice,
		DepositAmount:           input.DepositAmount,
		DepositPaid:             input.DepositPaid,
		DesignDescription:       trimmedOrNil(input.DesignDescription),
		FabricDetails:           trimmedOrNil(input.FabricDetails),
		CustomerNotes:           trimmedOrNil(input.CustomerNotes),
		InternalNotes:           trimmedOrNil(input.InternalNotes),
		MeasurementID:           input.MeasurementID,
		EstimatedCompletionDate: input.EstimatedCompletionDate,
		Status:                  models.BespokeInquiry,
	}

	// A colliding order number aborts the transaction, so each retry starts a fresh one.
	var err error
	for attempt := 1; ; attempt++ {
		order.ID = 0
		order.OrderNumber = newOrderNumber(timeNow())
		err = s.createWithLog(ctx, &order, actor)
		if err == nil || !IsUniqueViolation(err) {
			break
		}
		if attempt == orderNumberAttempts {
			return nil, &ConflictError{Message: "could not allocate a unique order number, please retry"}
		}
		logger.Get().WithField("order_number", order.OrderNumber).Warn("Order number collision, regenerating")
	}
	if err != nil {
		return nil, err
	}

	s.deps.recordActivity(ctx, actor.ID, ActionBespokeCreated, EntityBespokeOrder, order.ID, map[string]interface{}{
		"order_number": order.OrderNumber,
	})
	return &order, nil
}

// createWithLog inserts the order and its creation status log in one transaction.
func (s *BespokeService) createWithLog(ctx context.Context, order *models.BespokeOrder, actor *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, order.UserID, order.MeasurementID); err != nil {
			return err
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create bespoke order: %w", err)
		}
		created := "Order created"
		entry := models.BespokeStatusLog{
			BespokeOrderID:  order.ID,
			ChangedByUserID: actor.ID,
			OldStatus:       "",
			NewStatus:       models.BespokeInquiry,
			Note:            &created,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to record status log: %w", err)
		}
		order.StatusLogs = []models.BespokeStatusLog{entry}
		return nil
	})
}

// GetOrder loads an order with its tasks (by sort order) and status history (oldest first).
func (s *BespokeService) GetOrder(ctx context.Context, orderID uint) (*models.BespokeOrder, error) {
	var order models.BespokeOrder
	err := s.db.WithContext(ctx).
		Preload("Measurement").
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("StatusLogs", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(entityBespokeOrder, orderID)
		}
		return nil, fmt.Errorf("failed to load bespoke order: %w", err)
	}

	if err := s.resolvePeople(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetCustomerOrder returns the customer view of one of the user's own orders.
// Someone else's order is reported as not found.
func (s *BespokeService) GetCustomerOrder(ctx context.Context, orderID, userID uint) (*models.BespokeOrder, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, notFound(entityBespokeOrder, orderID)
	}
	view := order.CustomerView()
	return &view, nil
}

// ListOrders returns one page of orders, newest first, and the total count.
func (s *BespokeService) ListOrders(ctx context.Context, filter BespokeOrderFilter) ([]models.BespokeOrder, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.BespokeOrder{})
	if filter.Status != "" {
		status, err := models.ParseBespokeStatus(filter.Status)
		if err != nil {
			return nil, 0, invalid("status", "%s", err.Error())
		}
		query = query.Where("status = ?", string(status))
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bespoke orders: %w", err)
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	orders := []models.BespokeOrder{}
	err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bespoke orders: %w", err)
	}
	return orders, total, nil
}

// ListForCustomer lists a customer's own orders with internal notes stripped.
func (s *BespokeService) ListForCustomer(ctx context.Context, userID uint, page, limit int) ([]models.BespokeOrder, int64, error) {
	orders, total, err := s.ListOrders(ctx, BespokeOrderFilter{UserID: &userID, Page: page, Limit: limit})
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		orders[i] = orders[i].CustomerView()
	}
	return orders, total, nil
}

// UpdateOrder edits the non-status fields of an order.
func (s *BespokeService) UpdateOrder(ctx context.Context, orderID uint, input BespokeOrderUpdate, actor *models.User) (*models.BespokeOrder, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	updates, err := input.changes()
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, invalid("", "no fields to update")
	}

	var order models.BespokeOrder
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if err := checkReferences(tx, input.UserID, input.MeasurementID); err != nil {
			return err
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update bespoke order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(updates))
	for k := range updates {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	s.deps.recordActivity(ctx, actor.ID, ActionBespokeUpdated, EntityBespokeOrder, order.ID, map[string]interface{}{
		"order_number": order.OrderNumber,
		"fields":       fields,
	})
	return s.GetOrder(ctx, orderID)
}

// TransitionStatus moves an order to newStatus. The status update and its
// log row commit together; notifications, the status event and the
// activity entry run only after the commit and never fail the call.
func (s *BespokeService) TransitionStatus(ctx context.Context, orderID uint, newStatus string, actor *models.User, note *string) (*models.BespokeOrder, error) {
	target, err := models.ParseBespokeStatus(strings.TrimSpace(newStatus))
	if err != nil {
		return nil, invalid("status", "%s", err.Error())
	}
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	note = trimmedOrNil(note)

	var (
		order models.BespokeOrder
		entry models.BespokeStatusLog
		prev  models.BespokeStatus
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if order.Status == target {
			return &NoOpTransitionError{OrderID: order.ID, Status: target}
		}
		prev = order.Status

		updates := map[string]interface{}{"status": string(target)}
		var completedAt *time.Time
		switch {
		case target == models.BespokeDelivered:
			now := timeNow()
			completedAt = &now
			updates["actual_completion_date"] = now
		case prev == models.BespokeDelivered:
			updates["actual_completion_date"] = nil
		default:
			completedAt = order.ActualCompletionDate
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update bespoke order status: %w", err)
		}
		order.Status = target
		order.ActualCompletionDate = completedAt

		entry = models.BespokeStatusLog{
			BespokeOrderID:  order.ID,
			ChangedByUserID: actor.ID,
			OldStatus:       prev,
			NewStatus:       target,
			Note:            note,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to record status log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, order, prev, actor, note)
	return &order, nil
}

// DeleteOrder soft-deletes an order and its tasks. Delivered orders are kept.
// Status-log rows stay for the audit trail.
func (s *BespokeService) DeleteOrder(ctx context.Context, orderID uint, actor *models.User) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	var order models.BespokeOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if order.Status == models.BespokeDelivered {
			return &ConflictError{Message: fmt.Sprintf("bespoke order %s has been delivered and cannot be deleted", order.OrderNumber)}
		}
		if err := tx.Where("bespoke_order_id = ?", order.ID).Delete(&models.ProductionTask{}).Error; err != nil {
			return fmt.Errorf("failed to delete production tasks: %w", err)
		}
		if err := tx.Delete(&order).Error; err != nil {
			return fmt.Errorf("failed to delete bespoke order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.deps.recordActivity(ctx, actor.ID, ActionBespokeDeleted, EntityBespokeOrder, order.ID, map[string]interface{}{
		"order_number": order.OrderNumber,
		"status":       string(order.Status),
	})
	return nil
}

// ListStatusLog returns an order's status history, oldest first.
func (s *BespokeService) ListStatusLog(ctx context.Context, orderID uint) ([]models.BespokeStatusLog, error) {
	if err := orderExists(s.db.WithContext(ctx), orderID); err != nil {
		return nil, err
	}

	logs := []models.BespokeStatusLog{}
	err := s.db.WithContext(ctx).
		Where("bespoke_order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list status logs: %w", err)
	}
	if err := s.resolveChangedBy(ctx, logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// SetDesignImage records the storage key of the order's design image.
func (s *BespokeService) SetDesignImage(ctx context.Context, orderID uint, key string, actor *models.User) (*models.BespokeOrder, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(key) == "" {
		return nil, invalid("design_image_key", "image key is required")
	}

	var order models.BespokeOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if err := tx.Model(&order).Update("design_image_key", key).Error; err != nil {
			return fmt.Errorf("failed to store design image key: %w", err)
		}
		order.DesignImageKey = &key
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.recordActivity(ctx, actor.ID, ActionBespokeImageUploaded, EntityBespokeOrder, order.ID, map[string]interface{}{
		"order_number": order.OrderNumber,
		"key":          key,
	})
	return &order, nil
}

// afterTransition runs the post-commit side effects of a status change.
func (s *BespokeService) afterTransition(ctx context.Context, order models.BespokeOrder, prev models.BespokeStatus, actor *models.User, note *string) {
	log := s.deps.Logger.WithFields(map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"old_status":   string(prev),
		"new_status":   string(order.Status),
	})

	s.notifyCustomer(ctx, order, log)

	s.deps.publish(ctx, ChannelBespokeStatusChanged, StatusChangedEvent{
		EntityType:  EntityBespokeOrder,
		EntityID:    order.ID,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		OldStatus:   string(prev),
		NewStatus:   string(order.Status),
		ChangedBy:   actor.ID,
		Note:        derefString(note),
		OccurredAt:  timeNow(),
	})

	s.deps.recordActivity(ctx, actor.ID, ActionBespokeStatusChanged, EntityBespokeOrder, order.ID, map[string]interface{}{
		"order_number": order.OrderNumber,
		"old_status":   string(prev),
		"new_status":   string(order.Status),
	})

	log.Info("Bespoke order status changed")
}

// notifyCustomer sends the in-app notification and the email for a status
// change. Errors and panics are logged and swallowed; nothing is retried.
func (s *BespokeService) notifyCustomer(ctx context.Context, order models.BespokeOrder, log logger.Logger) {
	dispatcher := s.deps.Dispatcher
	if dispatcher == nil {
		return
	}

	msg := MessageForStatus(string(order.Status), order.OrderNumber)
	link := fmt.Sprintf("/account/bespoke-orders/%d", order.ID)

	if order.UserID != nil {
		err := callSafely(func() error {
			return dispatcher.Notify(ctx, *order.UserID, msg.Title, msg.Body, CategoryBespoke, link)
		})
		if err != nil {
			log.WithField("error", err.Error()).Error("Failed to send in-app notification")
		}
	}

	if order.CustomerEmail != nil && govalidator.IsEmail(*order.CustomerEmail) {
		subject := fmt.Sprintf("%s - %s", msg.Title, order.OrderNumber)
		htmlBody, textBody := renderStatusEmail(order.CustomerName, msg, order.OrderNumber, s.deps.AppBaseURL+link)
		err := callSafely(func() error {
			return dispatcher.SendEmail(ctx, *order.CustomerEmail, subject, htmlBody, textBody)
		})
		if err != nil {
			log.WithField("error", err.Error()).Error("Failed to send status email")
		}
	}
}

func renderStatusEmail(customerName string, msg StatusMessage, orderNumber, link string) (string, string) {
	htmlBody := fmt.Sprintf(
		"<html><body><p>Dear %s,</p><p>%s</p><p>Order number: <strong>%s</strong></p><p><a href=\"%s\">View your order</a></p><p>Thank you,<br>The Atelier team</p></body></html>",
		html.EscapeString(customerName),
		html.EscapeString(msg.Body),
		html.EscapeString(orderNumber),
		html.EscapeString(link),
	)
	textBody := fmt.Sprintf("Dear %s,\n\n%s\n\nOrder number: %s\nView your order: %s\n\nThank you,\nThe Atelier team\n",
		customerName, msg.Body, orderNumber, link)
	return htmlBody, textBody
}

// resolvePeople fills the assignee of every task and the author of every log row.
func (s *BespokeService) resolvePeople(ctx context.Context, order *models.BespokeOrder) error {
	ids := make([]uint, 0, len(order.Tasks)+len(order.StatusLogs))
	for _, t := range order.Tasks {
		if t.AssignedToID != nil {
			ids = append(ids, *t.AssignedToID)
		}
	}
	for _, l := range order.StatusLogs {
		ids = append(ids, l.ChangedByUserID)
	}

	people, err := userSummaries(s.db.WithContext(ctx), ids)
	if err != nil {
		return err
	}
	for i := range order.Tasks {
		if id := order.Tasks[i].AssignedToID; id != nil {
			order.Tasks[i].Assignee = people[*id]
		}
	}
	for i := range order.StatusLogs {
		order.StatusLogs[i].ChangedBy = people[order.StatusLogs[i].ChangedByUserID]
	}
	return nil
}

func (s *BespokeService) resolveChangedBy(ctx context.Context, logs []models.BespokeStatusLog) error {
	ids := make([]uint, 0, len(logs))
	for _, l := range logs {
		ids = append(ids, l.ChangedByUserID)
	}
	people, err := userSummaries(s.db.WithContext(ctx), ids)
	if err != nil {
		return err
	}
	for i := range logs {
		logs[i].ChangedBy = people[logs[i].ChangedByUserID]
	}
	return nil
}

func (u BespokeOrderUpdate) changes() (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	if u.CustomerName != nil {
		name := strings.TrimSpace(*u.CustomerName)
		if name == "" {
			return nil, invalid("customer_name", "customer name cannot be empty")
		}
		updates["customer_name"] = name
	}
	if u.CustomerPhone != nil {
		phone := strings.TrimSpace(*u.CustomerPhone)
		if phone == "" {
			return nil, invalid("customer_phone", "customer phone cannot be empty")
		}
		updates["customer_phone"] = phone
	}
	if u.CustomerEmail != nil {
		email := strings.TrimSpace(*u.CustomerEmail)
		switch {
		case email == "":
			updates["customer_email"] = nil
		case !govalidator.IsEmail(email):
			return nil, invalid("customer_email", "%q is not a valid email address", email)
		default:
			updates["customer_email"] = email
		}
	}
	if err := checkAmounts(u.EstimatedPrice, u.FinalPrice, u.DepositAmount); err != nil {
		return nil, err
	}

	setIf := func(column string, present bool, value interface{}) {
		if present {
			updates[column] = value
		}
	}
	if u.UnlinkUser {
		if u.UserID != nil {
			return nil, invalid("user_id", "cannot link and unlink a customer account at once")
		}
		updates["user_id"] = nil
	}
	setIf("user_id", u.UserID != nil, u.UserID)
	setIf("estimated_price", u.EstimatedPrice != nil, u.EstimatedPrice)
	setIf("final_price", u.FinalPrice != nil, u.FinalPrice)
	setIf("deposit_amount", u.DepositAmount != nil, u.DepositAmount)
	setIf("deposit_paid", u.DepositPaid != nil, u.DepositPaid)
	setIf("design_description", u.DesignDescription != nil, u.DesignDescription)
	setIf("fabric_details", u.FabricDetails != nil, u.FabricDetails)
	setIf("customer_notes", u.CustomerNotes != nil, u.CustomerNotes)
	setIf("internal_notes", u.InternalNotes != nil, u.InternalNotes)
	setIf("measurement_id", u.MeasurementID != nil, u.MeasurementID)
	setIf("estimated_completion_date", u.EstimatedCompletionDate != nil, u.EstimatedCompletionDate)

	return updates, nil
}

// lockOrder loads the order into dest holding a row lock until the transaction ends.
func lockOrder(tx *gorm.DB, orderID uint, dest *models.BespokeOrder) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(dest, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(entityBespokeOrder, orderID)
		}
		return fmt.Errorf("failed to load bespoke order: %w", err)
	}
	return nil
}

func orderExists(db *gorm.DB, orderID uint) error {
	var count int64
	if err := db.Model(&models.BespokeOrder{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to load bespoke order: %w", err)
	}
	if count == 0 {
		return notFound(entityBespokeOrder, orderID)
	}
	return nil
}

// checkReferences validates the optional customer account and measurement profile.
func checkReferences(tx *gorm.DB, userID, measurementID *uint) error {
	if userID != nil {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", *userID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		if count == 0 {
			return invalid("user_id", "user %d does not exist", *userID)
		}
	}
	if measurementID != nil {
		var count int64
		if err := tx.Model(&models.CustomerMeasurement{}).Where("id = ?", *measurementID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to load measurement: %w", err)
		}
		if count == 0 {
			return invalid("measurement_id", "measurement %d does not exist", *measurementID)
		}
	}
	return nil
}

func checkAmounts(amounts ...*float64) error {
	for _, a := range amounts {
		if a != nil && *a < 0 {
			return invalid("", "prices and deposits cannot be negative")
		}
	}
	return nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
