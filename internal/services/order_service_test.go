// internal/services/order_service_test.go
package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/campuskart/campus-market/internal/apperrors"
	"github.com/campuskart/campus-market/internal/models"
)

type OrderServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *OrderService
	college *models.College
	seller  *models.User
	buyer   *models.User
	item    *models.Item
}

func (s *OrderServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.service = NewOrderService(s.db, newTestNotifications(s.db))
	s.college = createTestCollege(s.T(), s.db, "Stanford University", "stanford.edu")
	s.seller = createTestUser(s.T(), s.db, s.college.ID, "seller@stanford.edu")
	s.buyer = createTestUser(s.T(), s.db, s.college.ID, "buyer@stanford.edu")
	s.item = createTestItem(s.T(), s.db, s.seller.ID, s.college.ID, models.ItemModeBuy)
}

func (s *OrderServiceTestSuite) TestCreateOrderSnapshotsPrice() {
	order, err := s.service.CreateOrder(s.buyer.ID, s.college.ID, &CreateOrderRequest{ItemID: s.item.ID})
	s.Require().NoError(err)

	s.Equal(models.OrderStatusCreated, order.Status)
	s.Equal(models.PaymentStatusPending, order.PaymentStatus)
	s.Equal(s.item.BuyPrice(), order.Amount)
	s.Equal(s.seller.ID, order.SellerID)

	// Later price edits must not change what the buyer owes.
	s.Require().NoError(s.db.Model(&models.Item{}).Where("id = ?", s.item.ID).Update("price_buy", 999.0).Error)
	reloaded, err := s.service.GetOrder(order.ID, s.buyer.ID)
	s.Require().NoError(err)
	s.Equal(50.0, reloaded.Amount)
}

func (s *OrderServiceTestSuite) TestCreateOrderDoesNotReserveItem() {
	_, err := s.service.CreateOrder(s.buyer.ID, s.college.ID, &CreateOrderRequest{ItemID: s.item.ID})
	s.Require().NoError(err)

	var item models.Item
	s.Require().NoError(s.db.First(&item, s.item.ID).Error)
	s.Equal(models.ItemStatusAvailable, item.Status)

	// A second buyer can still open an order against the same item.
	other := createTestUser(s.T(), s.db, s.college.ID, "other@stanford.edu")
	_, err = s.service.CreateOrder(other.ID, s.college.ID, &CreateOrderRequest{ItemID: s.item.ID})
	s.NoError(err)
}

func (s *OrderServiceTestSuite) TestCreateOrderOwnItemConflicts() {
	_, err := s.service.CreateOrder(s.seller.ID, s.college.ID, &CreateOrderRequest{ItemID: s.item.ID})
	s.True(errors.Is(err, apperrors.ErrConflict))
}

func (s *OrderServiceTestSuite) TestCreateOrderCrossCollegeForbidden() {
	mit := createTestCollege(s.T(), s.db, "MIT", "mit.edu")
	outsider := createTestUser(s.T(), s.db, mit.ID, "outsider@mit.edu")

	_, err := s.service.CreateOrder(outsider.ID, mit.ID, &CreateOrderRequest{ItemID: s.item.ID})
	s.True(errors.Is(err, apperrors.ErrForbidden))
}

func (s *OrderServiceTestSuite) TestCreateOrderBorrowOnlyItemRejected() {
	borrowOnly := createTestItem(s.T(), s.db, s.seller.ID, s.college.ID, models.ItemModeBorrow)
	_, err := s.service.CreateOrder(s.buyer.ID, s.college.ID, &CreateOrderRequest{ItemID: borrowOnly.ID})
	s.True(errors.Is(err, apperrors.ErrInvalidInput))
}

func (s *OrderServiceTestSuite) TestCompleteOrderRequiresPayment() {
	order, err := s.service.CreateOrder(s.buyer.ID, s.college.ID, &CreateOrderRequest{ItemID: s.item.ID})
	s.Require().NoError(err)

	_, err = s.service.CompleteOrder(order.ID, s.buyer.ID)
	s.True(errors.Is(err, apperrors.ErrConflict))
}

func (s *OrderServiceTestSuite) TestCompleteOrderBuyerOnly() {
	order := s.createPaidOrder(s.buyer)

	_, err := s.service.CompleteOrder(order.ID, s.seller.ID)
	s.True(errors.Is(err, apperrors.ErrForbidden))
}

func (s *OrderServiceTestSuite) TestCompleteOrderSellsItem() {
	order := s.createPaidOrder(s.buyer)

	completed, err := s.service.CompleteOrder(order.ID, s.buyer.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusCompleted, completed.Status)
	s.NotNil(completed.CompletedAt)

	var item models.Item
	s.Require().NoError(s.db.First(&item, s.item.ID).Error)
	s.Equal(models.ItemStatusSold, item.Status)
}

func (s *OrderServiceTestSuite) TestAtMostOneOrderWinsItem() {
	other := createTestUser(s.T(), s.db, s.college.ID, "other@stanford.edu")
	first := s.createPaidOrder(s.buyer)
	second := s.createPaidOrder(other)

	_, err := s.service.CompleteOrder(first.ID, s.buyer.ID)
	s.Require().NoError(err)

	// The second paid order loses the race on the item status flip.
	_, err = s.service.CompleteOrder(second.ID, other.ID)
	s.True(errors.Is(err, apperrors.ErrConflict))
}

func (s *OrderServiceTestSuite) TestCancelOrder() {
	order, err := s.service.CreateOrder(s.buyer.ID, s.college.ID, &CreateOrderRequest{ItemID: s.item.ID})
	s.Require().NoError(err)

	cancelled, err := s.service.CancelOrder(order.ID, s.buyer.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusCancelled, cancelled.Status)

	// Cancelling twice conflicts.
	_, err = s.service.CancelOrder(order.ID, s.buyer.ID)
	s.True(errors.Is(err, apperrors.ErrConflict))
}

func (s *OrderServiceTestSuite) TestCancelPaidOrderConflicts() {
	order := s.createPaidOrder(s.buyer)
	_, err := s.service.CancelOrder(order.ID, s.buyer.ID)
	s.True(errors.Is(err, apperrors.ErrConflict))
}

func (s *OrderServiceTestSuite) TestListOrdersBySide() {
	_, err := s.service.CreateOrder(s.buyer.ID, s.college.ID, &CreateOrderRequest{ItemID: s.item.ID})
	s.Require().NoError(err)

	bought, err := s.service.ListOrders(s.buyer.ID, "bought")
	s.Require().NoError(err)
	s.Len(bought, 1)

	sold, err := s.service.ListOrders(s.seller.ID, "sold")
	s.Require().NoError(err)
	s.Len(sold, 1)

	none, err := s.service.ListOrders(s.seller.ID, "bought")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *OrderServiceTestSuite) TestGetOrderParticipantsOnly() {
	order, err := s.service.CreateOrder(s.buyer.ID, s.college.ID, &CreateOrderRequest{ItemID: s.item.ID})
	s.Require().NoError(err)

	stranger := createTestUser(s.T(), s.db, s.college.ID, "stranger@stanford.edu")
	_, err = s.service.GetOrder(order.ID, stranger.ID)
	s.True(errors.Is(err, apperrors.ErrForbidden))
}

func (s *OrderServiceTestSuite) createPaidOrder(buyer *models.User) *models.Order {
	order, err := s.service.CreateOrder(buyer.ID, s.college.ID, &CreateOrderRequest{ItemID: s.item.ID})
	s.Require().NoError(err)
	s.Require().NoError(s.db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"status":         models.OrderStatusPaid,
		"payment_status": models.PaymentStatusPaid,
	}).Error)
	order.Status = models.OrderStatusPaid
	order.PaymentStatus = models.PaymentStatusPaid
	return order
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}
