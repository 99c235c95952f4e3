package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Horanet/payment-payzen/internal/metrics"
	"github.com/Horanet/payment-payzen/internal/models"
	"github.com/Horanet/payment-payzen/internal/payzen"
)

// Poller window defaults, matching the historical cron parameters: young
// transactions may still get their callback, old ones are presumed abandoned.
const (
	DefaultMinAge = 7 * time.Minute
	DefaultMaxAge = 48 * time.Hour
)

// OrderStatusClient fetches the gateway-side status of a merchant order.
type OrderStatusClient interface {
	GetOrder(ctx context.Context, acquirer *models.Acquirer, orderID string) (payzen.CallbackFields, error)
}

// Poller reconciles transactions whose asynchronous callback never arrived.
// It sweeps draft and pending transactions without a gateway reference and
// re-drives each polled status through the callback processor, so polled
// updates obey the exact same state-machine and idempotency rules.
type Poller struct {
	store     TransactionStore
	callbacks *CallbackService
	rest      OrderStatusClient
	acquirer  *models.Acquirer
	logger    *zap.Logger

	MinAge time.Duration
	MaxAge time.Duration
}

func NewPoller(store TransactionStore, callbacks *CallbackService, rest OrderStatusClient, acquirer *models.Acquirer, logger *zap.Logger) *Poller {
	return &Poller{
		store:     store,
		callbacks: callbacks,
		rest:      rest,
		acquirer:  acquirer,
		logger:    logger,
		MinAge:    DefaultMinAge,
		MaxAge:    DefaultMaxAge,
	}
}

// Run performs one reconciliation sweep. Candidates are processed
// sequentially and failures never abort the batch: a transport error on one
// transaction is logged and the sweep moves on.
func (p *Poller) Run(ctx context.Context) error {
	candidates, err := p.store.FindCandidates(ctx, p.MinAge, p.MaxAge)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}

	p.logger.Info("starting payzen reconciliation sweep", zap.Int("candidates", len(candidates)))

	for _, tx := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.checkTransaction(ctx, tx); err != nil {
			metrics.PollerErrorsTotal.Inc()
			p.logger.Warn("failed to reconcile transaction",
				zap.String("reference", tx.Reference),
				zap.Error(err))
		}
	}

	return nil
}

// checkTransaction polls the gateway for one transaction. The network call
// happens before any lock is taken; the callback processor re-checks the
// transaction state under its own lock, since it may have changed while the
// call was in flight.
func (p *Poller) checkTransaction(ctx context.Context, tx models.Transaction) error {
	metrics.PollerCheckedTotal.Inc()

	// The gateway indexes orders by the encoded order id sent at checkout.
	orderID := p.callbacks.refCodec.Encode(tx.Reference)

	fields, err := p.rest.GetOrder(ctx, p.acquirer, orderID)
	if err != nil {
		if payzen.IsUnknownOrder(err) {
			return p.markUnknownOrder(ctx, tx.Reference)
		}
		return err
	}

	_, err = p.callbacks.Process(ctx, fields, true)
	return err
}

// markUnknownOrder records that the gateway never saw the order. The
// transaction cannot recover without operator intervention, so it goes
// straight to error.
func (p *Poller) markUnknownOrder(ctx context.Context, reference string) error {
	p.logger.Warn("gateway reported unknown order", zap.String("reference", reference))

	return p.store.WithTransactionLock(ctx, reference, func(tx *models.Transaction) (bool, error) {
		if tx.State.IsTerminal() {
			return false, nil
		}
		tx.State = models.TxStateError
		tx.PayzenStatus = payzen.ErrorCodeUnknownOrder
		tx.StateMessage = "Order unknown to the payment gateway"
		return true, nil
	})
}
