package storage

import (
	"fmt"

	"github.com/shopspring/decimal"
	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
)

// Key layout:
//
//	bk/{book}                    order book record
//	ob/{book}/o/{id:020d}        limit orders
//	ob/{book}/q/b/{price}        bid queues
//	ob/{book}/q/a/{price}        ask queues
//	ob/{book}/ag/b               aggregated bid volume
//	ob/{book}/ag/a               aggregated ask volume
//	u/{owner}/{book}             per-user order index
//	bal/{asset}/{account}        locked balances
func bookKey(id orderbookv1.OrderBookID) []byte {
	return []byte(fmt.Sprintf("bk/%s", id))
}

func bookPrefix() []byte {
	return []byte("bk/")
}

func orderKey(id orderbookv1.OrderBookID, orderID orderbookv1.OrderID) []byte {
	return []byte(fmt.Sprintf("ob/%s/o/%020d", id, orderID))
}

func ordersPrefix(id orderbookv1.OrderBookID) []byte {
	return []byte(fmt.Sprintf("ob/%s/o/", id))
}

func sideTag(side orderbookv1.Side) string {
	if side == orderbookv1.SideBuy {
		return "b"
	}
	return "a"
}

func levelKey(id orderbookv1.OrderBookID, side orderbookv1.Side, price decimal.Decimal) []byte {
	return []byte(fmt.Sprintf("ob/%s/q/%s/%s", id, sideTag(side), price.String()))
}

func aggregatedKey(id orderbookv1.OrderBookID, side orderbookv1.Side) []byte {
	return []byte(fmt.Sprintf("ob/%s/ag/%s", id, sideTag(side)))
}

func userKey(owner orderbookv1.AccountID, id orderbookv1.OrderBookID) []byte {
	return []byte(fmt.Sprintf("u/%s/%s", owner, id))
}

// BalanceKey is exported for the balance locker, which shares the ledger.
func BalanceKey(asset orderbookv1.AssetID, account orderbookv1.AccountID) []byte {
	return []byte(fmt.Sprintf("bal/%s/%s", asset, account))
}
