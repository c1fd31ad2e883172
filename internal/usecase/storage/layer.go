package storage

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
)

// kvView is the read/write surface a data layer runs on. The direct layer
// passes every call straight to the ledger; the cache layer routes writes
// into its overlay. All typed data-layer logic lives in layerCore so both
// implementations behave identically.
type kvView interface {
	get(key []byte) ([]byte, bool, error)
	put(key, value []byte) error
	del(key []byte) error
	scan(prefix []byte, fn func(key, value []byte) error) error
}

type layerCore struct {
	view kvView
}

func (c layerCore) getLimitOrder(bookID orderbookv1.OrderBookID, orderID orderbookv1.OrderID) (*orderbookv1.LimitOrder, error) {
	raw, ok, err := c.view.get(orderKey(bookID, orderID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, orderbookv1.ErrUnknownLimitOrder
	}

	var order orderbookv1.LimitOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c layerCore) getQueue(bookID orderbookv1.OrderBookID, side orderbookv1.Side, price decimal.Decimal) ([]orderbookv1.OrderID, error) {
	raw, ok, err := c.view.get(levelKey(bookID, side, price))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var queue []orderbookv1.OrderID
	if err := json.Unmarshal(raw, &queue); err != nil {
		return nil, err
	}
	return queue, nil
}

func (c layerCore) putQueue(bookID orderbookv1.OrderBookID, side orderbookv1.Side, price decimal.Decimal, queue []orderbookv1.OrderID) error {
	key := levelKey(bookID, side, price)
	if len(queue) == 0 {
		return c.view.del(key)
	}
	raw, err := json.Marshal(queue)
	if err != nil {
		return err
	}
	return c.view.put(key, raw)
}

func (c layerCore) getAggregated(bookID orderbookv1.OrderBookID, side orderbookv1.Side) (orderbookv1.AggregatedSide, error) {
	raw, ok, err := c.view.get(aggregatedKey(bookID, side))
	if err != nil {
		return nil, err
	}
	if !ok {
		return orderbookv1.AggregatedSide{}, nil
	}

	var aggregated orderbookv1.AggregatedSide
	if err := json.Unmarshal(raw, &aggregated); err != nil {
		return nil, err
	}
	return aggregated, nil
}

func (c layerCore) putAggregated(bookID orderbookv1.OrderBookID, side orderbookv1.Side, aggregated orderbookv1.AggregatedSide) error {
	key := aggregatedKey(bookID, side)
	if len(aggregated) == 0 {
		return c.view.del(key)
	}
	raw, err := json.Marshal(aggregated)
	if err != nil {
		return err
	}
	return c.view.put(key, raw)
}

func (c layerCore) getUserOrders(owner orderbookv1.AccountID, bookID orderbookv1.OrderBookID) ([]orderbookv1.OrderID, error) {
	raw, ok, err := c.view.get(userKey(owner, bookID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var ids []orderbookv1.OrderID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c layerCore) putUserOrders(owner orderbookv1.AccountID, bookID orderbookv1.OrderBookID, ids []orderbookv1.OrderID) error {
	key := userKey(owner, bookID)
	if len(ids) == 0 {
		return c.view.del(key)
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return c.view.put(key, raw)
}

func (c layerCore) getAllLimitOrders(bookID orderbookv1.OrderBookID) ([]*orderbookv1.LimitOrder, error) {
	var orders []*orderbookv1.LimitOrder
	err := c.view.scan(ordersPrefix(bookID), func(_, value []byte) error {
		var order orderbookv1.LimitOrder
		if err := json.Unmarshal(value, &order); err != nil {
			return err
		}
		orders = append(orders, &order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// insertLimitOrder stores the order and updates its queue, the aggregate
// and the owner's index in one step.
func (c layerCore) insertLimitOrder(bookID orderbookv1.OrderBookID, order *orderbookv1.LimitOrder) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	if err := c.view.put(orderKey(bookID, order.ID), raw); err != nil {
		return err
	}

	queue, err := c.getQueue(bookID, order.Side, order.Price)
	if err != nil {
		return err
	}
	if err := c.putQueue(bookID, order.Side, order.Price, append(queue, order.ID)); err != nil {
		return err
	}

	aggregated, err := c.getAggregated(bookID, order.Side)
	if err != nil {
		return err
	}
	aggregated.Add(order.Price, order.Amount)
	if err := c.putAggregated(bookID, order.Side, aggregated); err != nil {
		return err
	}

	userOrders, err := c.getUserOrders(order.Owner, bookID)
	if err != nil {
		return err
	}
	return c.putUserOrders(order.Owner, bookID, append(userOrders, order.ID))
}

// updateLimitOrderAmount rewrites the remaining amount and adjusts the
// aggregate by the difference in the same step.
func (c layerCore) updateLimitOrderAmount(bookID orderbookv1.OrderBookID, orderID orderbookv1.OrderID, amount orderbookv1.OrderVolume) error {
	order, err := c.getLimitOrder(bookID, orderID)
	if err != nil {
		return err
	}

	previous := order.Amount
	order.Amount = amount

	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	if err := c.view.put(orderKey(bookID, orderID), raw); err != nil {
		return err
	}

	aggregated, err := c.getAggregated(bookID, order.Side)
	if err != nil {
		return err
	}
	aggregated.Sub(order.Price, previous)
	if !amount.IsZero() {
		aggregated.Add(order.Price, amount)
	}
	return c.putAggregated(bookID, order.Side, aggregated)
}

// deleteLimitOrder removes the order from every structure in one step.
func (c layerCore) deleteLimitOrder(bookID orderbookv1.OrderBookID, orderID orderbookv1.OrderID) error {
	order, err := c.getLimitOrder(bookID, orderID)
	if err != nil {
		return err
	}

	queue, err := c.getQueue(bookID, order.Side, order.Price)
	if err != nil {
		return err
	}
	filtered := queue[:0]
	for _, id := range queue {
		if id != orderID {
			filtered = append(filtered, id)
		}
	}
	if err := c.putQueue(bookID, order.Side, order.Price, filtered); err != nil {
		return err
	}

	aggregated, err := c.getAggregated(bookID, order.Side)
	if err != nil {
		return err
	}
	aggregated.Sub(order.Price, order.Amount)
	if err := c.putAggregated(bookID, order.Side, aggregated); err != nil {
		return err
	}

	userOrders, err := c.getUserOrders(order.Owner, bookID)
	if err != nil {
		return err
	}
	remaining := userOrders[:0]
	for _, id := range userOrders {
		if id != orderID {
			remaining = append(remaining, id)
		}
	}
	if err := c.putUserOrders(order.Owner, bookID, remaining); err != nil {
		return err
	}

	return c.view.del(orderKey(bookID, orderID))
}
