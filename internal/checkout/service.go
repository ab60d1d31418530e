package checkout

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/stockplace/stockplace-backend/internal/products"
	"github.com/stockplace/stockplace-backend/internal/rentals"
	"github.com/stockplace/stockplace-backend/internal/storagespaces"
	"github.com/stockplace/stockplace-backend/internal/users"
	"github.com/stockplace/stockplace-backend/pkg/config"
	"github.com/stockplace/stockplace-backend/pkg/db/models"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
	"github.com/stockplace/stockplace-backend/pkg/logger"
)

// Service builds provider checkout sessions and confirms completed ones.
type Service interface {
	CreateRentalSession(ctx context.Context, input RentalSessionInput) (*SessionResult, error)
	CreateProductSession(ctx context.Context, input ProductSessionInput) (*SessionResult, error)
	ConfirmSession(ctx context.Context, sessionID string) (*SessionSummary, error)
}

// RentalSessionInput captures a renter's request to book surface.
type RentalSessionInput struct {
	RenterID       uuid.UUID
	StorageSpaceID uuid.UUID
	SpaceAmount    int
	StartDate      time.Time
	EndDate        time.Time
}

// ProductSessionInput captures a buyer's request to purchase stock.
type ProductSessionInput struct {
	BuyerID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// SessionResult points the client at the hosted payment page.
type SessionResult struct {
	SessionID       string `json:"session_id"`
	URL             string `json:"url"`
	TotalPriceCents int64  `json:"total_price_cents"`
}

// SessionSummary echoes a completed session back to the client.
type SessionSummary struct {
	SessionID     string            `json:"session_id"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Spaces   storagespaces.Repository
	Rentals  rentals.Repository
	Products products.Repository
	Users    users.Service
	Stripe   StripeCheckoutClient
	Config   config.CheckoutConfig
	Logger   *logger.Logger
}

type service struct {
	spaces     storagespaces.Repository
	rentals    rentals.Repository
	products   products.Repository
	users      users.Service
	stripe     StripeCheckoutClient
	cfg        config.CheckoutConfig
	feePercent decimal.Decimal
	logg       *logger.Logger
}

// NewService builds a checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Spaces == nil {
		return nil, fmt.Errorf("storage spaces repository required")
	}
	if params.Rentals == nil {
		return nil, fmt.Errorf("rentals repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users service required")
	}
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe checkout client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	feePercent, err := decimal.NewFromString(strings.TrimSpace(params.Config.PlatformFeePercent))
	if err != nil {
		return nil, fmt.Errorf("invalid platform fee percent %q: %w", params.Config.PlatformFeePercent, err)
	}
	if feePercent.IsNegative() || feePercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("platform fee percent %s out of range", feePercent)
	}
	return &service{
		spaces:     params.Spaces,
		rentals:    params.Rentals,
		products:   params.Products,
		users:      params.Users,
		stripe:     params.Stripe,
		cfg:        params.Config,
		feePercent: feePercent,
		logg:       params.Logger,
	}, nil
}

// CreateRentalSession validates the booking and opens a hosted checkout
// session whose metadata carries everything the webhook needs to create the
// rental later.
func (s *service) CreateRentalSession(ctx context.Context, input RentalSessionInput) (*SessionResult, error) {
	if input.RenterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "renter id is required")
	}
	if input.StorageSpaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage space id is required")
	}
	if input.SpaceAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "space amount must be positive")
	}
	days := rentalDays(input.StartDate, input.EndDate)
	if days <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must follow start date")
	}

	space, err := s.spaces.GetByID(ctx, input.StorageSpaceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "storage space not found")
	}
	if !space.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "storage space is not active")
	}
	if space.AvailableSurface < input.SpaceAmount {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientCapacity, "not enough surface available")
	}

	taken, err := s.rentals.ExistsForRenterAndSpace(ctx, input.RenterID, input.StorageSpaceID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "renter already holds a rental in this space")
	}

	owner, err := s.connectedSeller(ctx, space.OwnerID)
	if err != nil {
		return nil, err
	}

	total := int64(space.PriceCentsPerDay) * int64(input.SpaceAmount) * int64(days)
	meta := map[string]string{
		MetaStorageID:       space.ID.String(),
		MetaSpaceToRent:     strconv.Itoa(input.SpaceAmount),
		MetaStartDate:       input.StartDate.UTC().Format(metaDateLayout),
		MetaEndDate:         input.EndDate.UTC().Format(metaDateLayout),
		MetaRenterID:        input.RenterID.String(),
		MetaTotalPriceCents: strconv.FormatInt(total, 10),
	}

	name := fmt.Sprintf("%s: %dm2 for %d days", space.Name, input.SpaceAmount, days)
	return s.openSession(ctx, *owner.StripeAccountID, name, total, 1, total, meta)
}

// CreateProductSession validates the purchase and opens a hosted checkout
// session for it. Stock is only checked here as a courtesy; the webhook
// performs the binding decrement.
func (s *service) CreateProductSession(ctx context.Context, input ProductSessionInput) (*SessionResult, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is not active")
	}
	if product.StockQuantity < input.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock available")
	}

	rental, err := s.rentals.GetByID(ctx, product.RentalID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product rental not found")
	}

	seller, err := s.connectedSeller(ctx, product.SupplierID)
	if err != nil {
		return nil, err
	}

	total := int64(product.PriceCents) * int64(input.Quantity)
	meta := map[string]string{
		MetaStorageID:       rental.StorageSpaceID.String(),
		MetaProductID:       product.ID.String(),
		MetaQuantity:        strconv.Itoa(input.Quantity),
		MetaUnitPriceCents:  strconv.Itoa(product.PriceCents),
		MetaBuyerID:         input.BuyerID.String(),
		MetaSellerID:        product.SupplierID.String(),
		MetaTotalPriceCents: strconv.FormatInt(total, 10),
	}

	return s.openSession(ctx, *seller.StripeAccountID, product.ProductName, int64(product.PriceCents), int64(input.Quantity), total, meta)
}

// ConfirmSession fetches the session after the client returns from the
// hosted page and echoes its metadata. Fulfillment itself happens on the
// webhook, never here.
func (s *service) ConfirmSession(ctx context.Context, sessionID string) (*SessionSummary, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	session, err := s.stripe.GetSession(ctx, sessionID, &stripe.CheckoutSessionParams{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch checkout session")
	}
	return &SessionSummary{
		SessionID:     session.ID,
		PaymentStatus: string(session.PaymentStatus),
		AmountTotal:   session.AmountTotal,
		Currency:      string(session.Currency),
		Metadata:      session.Metadata,
	}, nil
}

func (s *service) connectedSeller(ctx context.Context, sellerID uuid.UUID) (*models.User, error) {
	seller, err := s.users.Get(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller.StripeAccountID == nil || *seller.StripeAccountID == "" || !seller.StripeOnboardingCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "seller has not completed payout onboarding")
	}
	return seller, nil
}

func (s *service) openSession(ctx context.Context, destination, name string, unitAmount, quantity, total int64, meta map[string]string) (*SessionResult, error) {
	fee := s.platformFee(total)

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(s.cfg.Currency),
				UnitAmount: stripe.Int64(unitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(name),
				},
			},
			Quantity: stripe.Int64(quantity),
		}},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(fee),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(destination),
			},
		},
	}
	for key, value := range meta {
		params.AddMetadata(key, value)
	}

	session, err := s.stripe.CreateSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}

	sctx := s.logg.WithField(ctx, "session_id", session.ID)
	s.logg.Info(sctx, "checkout session opened")

	return &SessionResult{
		SessionID:       session.ID,
		URL:             session.URL,
		TotalPriceCents: total,
	}, nil
}

// platformFee keeps the configured percentage of the total, rounded to the
// nearest cent.
func (s *service) platformFee(totalCents int64) int64 {
	return decimal.NewFromInt(totalCents).
		Mul(s.feePercent).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

func rentalDays(start, end time.Time) int {
	y1, m1, d1 := start.UTC().Date()
	y2, m2, d2 := end.UTC().Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
