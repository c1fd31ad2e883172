package storage

import (
	"encoding/json"

	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
)

// BookRegistry persists the order book records themselves, keyed by
// OrderBookID. Book records are small and read on every operation, so the
// registry writes through directly.
type BookRegistry struct {
	ledger Ledger
}

// NewBookRegistry creates a registry over the ledger.
func NewBookRegistry(ledger Ledger) *BookRegistry {
	return &BookRegistry{ledger: ledger}
}

// Get returns the book record, or orderbookv1.ErrUnknownOrderBook.
func (r *BookRegistry) Get(id orderbookv1.OrderBookID) (*orderbookv1.OrderBook, error) {
	raw, ok, err := r.ledger.Get(bookKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, orderbookv1.ErrUnknownOrderBook
	}

	var book orderbookv1.OrderBook
	if err := json.Unmarshal(raw, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// Exists reports whether a record is registered for id.
func (r *BookRegistry) Exists(id orderbookv1.OrderBookID) (bool, error) {
	_, ok, err := r.ledger.Get(bookKey(id))
	return ok, err
}

// Put stores the book record.
func (r *BookRegistry) Put(book *orderbookv1.OrderBook) error {
	raw, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return r.ledger.Set(bookKey(book.ID), raw)
}

// List returns every registered book record.
func (r *BookRegistry) List() ([]*orderbookv1.OrderBook, error) {
	var books []*orderbookv1.OrderBook
	err := r.ledger.Scan(bookPrefix(), func(_, value []byte) error {
		var book orderbookv1.OrderBook
		if err := json.Unmarshal(value, &book); err != nil {
			return err
		}
		books = append(books, &book)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}
