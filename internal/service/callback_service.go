package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Horanet/payment-payzen/internal/metrics"
	"github.com/Horanet/payment-payzen/internal/models"
	"github.com/Horanet/payment-payzen/internal/payzen"
)

// TransactionStore is the persistence contract the services run against. The
// postgres implementation lives in internal/repository.
type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByReference(ctx context.Context, reference string) (*models.Transaction, error)
	FindCandidates(ctx context.Context, minAge, maxAge time.Duration) ([]models.Transaction, error)
	WithTransactionLock(ctx context.Context, reference string, fn func(tx *models.Transaction) (bool, error)) error
}

// ReplayCache short-circuits exact duplicate callback deliveries. The gateway
// retries the IPN until it gets a 2xx, so replays are expected traffic.
type ReplayCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

const replayCacheTTL = 24 * time.Hour

// CallbackService validates an inbound callback (or a polled status translated
// to callback shape) and applies it to the stored transaction.
type CallbackService struct {
	store    TransactionStore
	acquirer *models.Acquirer
	codec    payzen.SignatureCodec
	refCodec payzen.ReferenceCodec
	cache    ReplayCache
	logger   *zap.Logger

	now func() time.Time
}

// NewCallbackService creates the callback processor. cache may be nil; the
// duplicate-delivery fast path is then skipped.
func NewCallbackService(store TransactionStore, acquirer *models.Acquirer, codec payzen.SignatureCodec, refCodec payzen.ReferenceCodec, cache ReplayCache, logger *zap.Logger) *CallbackService {
	return &CallbackService{
		store:    store,
		acquirer: acquirer,
		codec:    codec,
		refCodec: refCodec,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
}

// Process applies a callback to its transaction. trusted marks payloads that
// did not travel over the public network (poller-driven replays authenticated
// by the REST credentials); only those skip signature verification. The whole
// lookup-validate-apply sequence runs under an exclusive row lock, and the
// terminal-state idempotency check is evaluated after that lock is held.
func (s *CallbackService) Process(ctx context.Context, fields payzen.CallbackFields, trusted bool) (*models.Transaction, error) {
	if fields.OrderID == "" {
		metrics.CallbacksTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("payzen: received bad data: missing order id")
	}
	reference := s.refCodec.Decode(fields.OrderID)

	if tx, ok := s.replayFastPath(ctx, reference, fields); ok {
		return tx, nil
	}

	var result *models.Transaction
	err := s.store.WithTransactionLock(ctx, reference, func(tx *models.Transaction) (bool, error) {
		if !trusted {
			if err := s.codec.Verify(fields.Values(), fields.Signature, s.acquirer.Certificate()); err != nil {
				return false, err
			}
		}

		if mismatches := s.crossValidate(tx, fields); len(mismatches) > 0 {
			return false, &payzen.ValidationMismatchError{Reference: reference, Mismatches: mismatches}
		}

		if tx.State.IsTerminal() {
			s.logger.Info("skipping replay of already validated transaction",
				zap.String("reference", reference),
				zap.String("state", string(tx.State)))
			result = tx
			return false, nil
		}

		state, known := payzen.MapStatus(fields.TransStatus)
		if !known {
			s.logger.Warn("unknown gateway transaction status, failing closed",
				zap.String("reference", reference),
				zap.String("status", fields.TransStatus))
		}

		tx.State = state
		tx.StateMessage = payzen.AuthResultMessage(fields.AuthResult)
		tx.AcquirerReference = fields.TransUUID
		tx.PayzenStatus = fields.TransStatus
		tx.ReturnedData = fields.Snapshot()
		if state == models.TxStateDone || state == models.TxStateAuthorized {
			tx.DateValidated = s.now()
		}

		s.logger.Info("validated payzen payment",
			zap.String("reference", reference),
			zap.String("status", fields.TransStatus),
			zap.String("state", string(state)))

		result = tx
		return true, nil
	})
	if err != nil {
		metrics.CallbacksTotal.WithLabelValues(outcomeFor(err)).Inc()
		return nil, err
	}

	metrics.CallbacksTotal.WithLabelValues(metrics.OutcomeApplied).Inc()
	s.rememberDelivery(ctx, reference, fields, result)

	return result, nil
}

// replayFastPath answers exact duplicate deliveries (same reference and
// signature as an already applied terminal callback) without taking the row
// lock. Anything not cached falls through to the locked path.
func (s *CallbackService) replayFastPath(ctx context.Context, reference string, fields payzen.CallbackFields) (*models.Transaction, bool) {
	if s.cache == nil || fields.Signature == "" {
		return nil, false
	}
	if _, err := s.cache.Get(ctx, replayKey(reference, fields.Signature)); err != nil {
		return nil, false
	}
	tx, err := s.store.GetByReference(ctx, reference)
	if err != nil {
		return nil, false
	}
	metrics.CallbacksTotal.WithLabelValues(metrics.OutcomeReplay).Inc()
	return tx, true
}

func (s *CallbackService) rememberDelivery(ctx context.Context, reference string, fields payzen.CallbackFields, tx *models.Transaction) {
	if s.cache == nil || fields.Signature == "" || tx == nil || !tx.State.IsTerminal() {
		return
	}
	if err := s.cache.Set(ctx, replayKey(reference, fields.Signature), "1", replayCacheTTL); err != nil {
		s.logger.Warn("failed to cache callback delivery", zap.String("reference", reference), zap.Error(err))
	}
}

func replayKey(reference, signature string) string {
	return fmt.Sprintf("payzen:ipn:%s:%s", reference, signature)
}

// crossValidate checks the callback's declared invariants against the stored
// transaction. All mismatches are collected, not just the first: the full
// list is the diagnostic for fraud or environment-misconfiguration
// investigations.
func (s *CallbackService) crossValidate(tx *models.Transaction, fields payzen.CallbackFields) []payzen.FieldMismatch {
	var mismatches []payzen.FieldMismatch

	if tx.AcquirerReference != "" && fields.TransUUID != tx.AcquirerReference {
		mismatches = append(mismatches, payzen.FieldMismatch{
			Field:    "vads_trans_uuid",
			Received: fields.TransUUID,
			Expected: tx.AcquirerReference,
		})
	}

	// The gateway sends the amount in minor units.
	received, err := decimal.NewFromString(fields.Amount)
	if err != nil || received.Div(decimal.NewFromInt(100)).Round(2).Cmp(tx.Amount.Round(2)) != 0 {
		mismatches = append(mismatches, payzen.FieldMismatch{
			Field:    "vads_amount",
			Received: fields.Amount,
			Expected: tx.Amount.StringFixed(2),
		})
	}

	if fields.CustomerID != "" && tx.Partner.ID != 0 && fields.CustomerID != strconv.FormatInt(tx.Partner.ID, 10) {
		mismatches = append(mismatches, payzen.FieldMismatch{
			Field:    "vads_cust_id",
			Received: fields.CustomerID,
			Expected: strconv.FormatInt(tx.Partner.ID, 10),
		})
	}

	if fields.ShopID != s.acquirer.ShopID {
		mismatches = append(mismatches, payzen.FieldMismatch{
			Field:    "vads_site_id",
			Received: fields.ShopID,
			Expected: s.acquirer.ShopID,
		})
	}

	return mismatches
}

func outcomeFor(err error) string {
	var lookupErr *payzen.LookupError
	var mismatchErr *payzen.ValidationMismatchError
	switch {
	case errors.Is(err, payzen.ErrSignatureMismatch):
		return metrics.OutcomeAuthFailed
	case errors.As(err, &lookupErr):
		return metrics.OutcomeLookup
	case errors.As(err, &mismatchErr):
		return metrics.OutcomeMismatch
	default:
		return metrics.OutcomeError
	}
}
