package orderbook

import (
	"context"

	datalayerv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/datalayer/v1"
	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
	"github.com/sora-xor/sora2-network-sub000/pkg/logger"
)

// ApplyMarketChange is the only function that turns a computed diff into
// observable state. Mutation categories run in a fixed order so partial
// fills never race removals: force-updates, partial executions, full
// executions, cancellations, placements, then the payment instructions.
// A lock or unlock failure aborts the apply with the data-layer overlay
// still unflushed, so the caller can discard the whole change.
func (u *Usecase) ApplyMarketChange(
	ctx context.Context,
	change *orderbookv1.MarketChange,
	dl datalayerv1.DataLayer,
	locker datalayerv1.Locker,
	sink orderbookv1.EventSink,
) error {
	for id, amount := range change.ToForceUpdate {
		if err := dl.UpdateLimitOrderAmount(change.BookID, id, amount); err != nil {
			return err
		}
	}

	for id, part := range change.ToPartExecute {
		remaining := part.Order.Amount.Sub(part.FilledAmount)
		if err := dl.UpdateLimitOrderAmount(change.BookID, id, remaining); err != nil {
			return err
		}
	}

	for id := range change.ToFullExecute {
		if err := dl.DeleteLimitOrder(change.BookID, id); err != nil {
			return err
		}
	}

	for id := range change.ToCancel {
		if err := dl.DeleteLimitOrder(change.BookID, id); err != nil {
			return err
		}
	}

	for _, order := range change.ToPlace {
		if err := dl.InsertLimitOrder(change.BookID, order); err != nil {
			return err
		}
	}

	if err := u.executePayment(ctx, &change.Payment, locker); err != nil {
		return err
	}

	u.emitEvents(ctx, change, sink)
	return nil
}

// executePayment performs the locks first and the unlocks second, so a
// taker's funds are secured before any proceeds are released.
func (u *Usecase) executePayment(ctx context.Context, payment *orderbookv1.Payment, locker datalayerv1.Locker) error {
	for asset, accounts := range payment.ToLock {
		for account, amount := range accounts {
			if err := locker.Lock(ctx, asset, account, amount); err != nil {
				return err
			}
		}
	}
	for asset, accounts := range payment.ToUnlock {
		for account, amount := range accounts {
			if err := locker.Unlock(ctx, asset, account, amount); err != nil {
				return err
			}
		}
	}
	return nil
}

// emitEvents publishes one event per mutated order. Emission is best
// effort: a failing sink is logged and never blocks the state change.
func (u *Usecase) emitEvents(ctx context.Context, change *orderbookv1.MarketChange, sink orderbookv1.EventSink) {
	if sink == nil {
		sink = orderbookv1.NopSink{}
	}

	publish := func(event orderbookv1.Event) {
		if err := sink.Publish(ctx, event); err != nil {
			u.logger.WarnContext(ctx, "event publish failed",
				logger.NewField("kind", string(event.Kind)),
				logger.NewField("book", event.BookID.String()),
				logger.NewField("error", err.Error()),
			)
		}
	}

	for id, amount := range change.ToForceUpdate {
		publish(orderbookv1.Event{
			Kind:    orderbookv1.EventOrderAmountAligned,
			BookID:  change.BookID,
			OrderID: id,
			Amount:  amount.Amount,
		})
	}
	for id, part := range change.ToPartExecute {
		publish(orderbookv1.Event{
			Kind:    orderbookv1.EventOrderPartiallyExecuted,
			BookID:  change.BookID,
			OrderID: id,
			Owner:   part.Order.Owner,
			Side:    part.Order.Side,
			Price:   part.Order.Price,
			Amount:  part.FilledAmount.Amount,
		})
	}
	for id, order := range change.ToFullExecute {
		publish(orderbookv1.Event{
			Kind:    orderbookv1.EventOrderExecuted,
			BookID:  change.BookID,
			OrderID: id,
			Owner:   order.Owner,
			Side:    order.Side,
			Price:   order.Price,
			Amount:  order.Amount.Amount,
		})
	}
	for id, canceled := range change.ToCancel {
		publish(orderbookv1.Event{
			Kind:    orderbookv1.EventOrderCanceled,
			BookID:  change.BookID,
			OrderID: id,
			Owner:   canceled.Order.Owner,
			Side:    canceled.Order.Side,
			Price:   canceled.Order.Price,
			Amount:  canceled.Order.Amount.Amount,
			Reason:  canceled.Reason,
		})
	}
	for id, order := range change.ToPlace {
		publish(orderbookv1.Event{
			Kind:    orderbookv1.EventOrderPlaced,
			BookID:  change.BookID,
			OrderID: id,
			Owner:   order.Owner,
			Side:    order.Side,
			Price:   order.Price,
			Amount:  order.Amount.Amount,
		})
	}
}
