package types

import "math/big"

// Account holds the native balance and replay nonce for a principal. Token
// balances live in their own ledger table keyed by (symbol, address) so the
// account record stays fixed-shape for RLP encoding.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}

// Clone returns a deep copy so callers can mutate without aliasing stored
// state.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{Balance: big.NewInt(0)}
	}
	clone := *a
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	} else {
		clone.Balance = big.NewInt(0)
	}
	return &clone
}
