package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Horanet/payment-payzen/internal/models"
	"github.com/Horanet/payment-payzen/internal/payzen"
)

// PaymentRequest is the checkout input creating a draft transaction.
type PaymentRequest struct {
	Reference string         `json:"reference" binding:"required"`
	Amount    string         `json:"amount" binding:"required"`
	Currency  string         `json:"currency" binding:"required,len=3"`
	Partner   models.Partner `json:"partner"`
}

// PaymentForm is what the checkout page needs to redirect the customer: the
// gateway's hosted payment URL and the signed field set to POST there.
type PaymentForm struct {
	Transaction *models.Transaction `json:"transaction"`
	ActionURL   string              `json:"action_url"`
	Fields      url.Values          `json:"fields"`
}

// PaymentService creates draft transactions and builds their signed
// payment-initiation payloads.
type PaymentService struct {
	store    TransactionStore
	acquirer *models.Acquirer
	builder  *payzen.RequestBuilder
	logger   *zap.Logger
}

func NewPaymentService(store TransactionStore, acquirer *models.Acquirer, builder *payzen.RequestBuilder, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		store:    store,
		acquirer: acquirer,
		builder:  builder,
		logger:   logger,
	}
}

// CreatePayment records a draft transaction and returns the signed form
// payload. A fresh trans id/date pair is generated per attempt; the payload is
// signed once and never reused.
func (s *PaymentService) CreatePayment(ctx context.Context, req *PaymentRequest) (*PaymentForm, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", req.Amount, err)
	}

	now := time.Now()
	tx := &models.Transaction{
		ID:        uuid.New().String(),
		Reference: req.Reference,
		Amount:    amount.Round(2),
		Currency:  req.Currency,
		State:     models.TxStateDraft,
		Partner:   req.Partner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	fields, err := s.builder.Build(s.acquirer, tx)
	if err != nil {
		return nil, fmt.Errorf("building payment form for %s: %w", req.Reference, err)
	}

	if err := s.store.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("saving transaction %s: %w", req.Reference, err)
	}

	s.logger.Info("created draft payzen transaction",
		zap.String("reference", tx.Reference),
		zap.String("amount", tx.Amount.StringFixed(2)),
		zap.String("currency", tx.Currency))

	return &PaymentForm{
		Transaction: tx,
		ActionURL:   s.acquirer.FormActionURL,
		Fields:      fields,
	}, nil
}

// GetPayment returns the transaction for a merchant reference.
func (s *PaymentService) GetPayment(ctx context.Context, reference string) (*models.Transaction, error) {
	return s.store.GetByReference(ctx, reference)
}
