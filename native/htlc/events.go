package htlc

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"

	"swaplock/core/types"
	"swaplock/crypto"
)

const (
	EventTypeCommitted   = "htlc.committed"
	EventTypeLocked      = "htlc.locked"
	EventTypeRedeemed    = "htlc.redeemed"
	EventTypeUncommitted = "htlc.uncommitted"
	EventTypeUnlocked    = "htlc.unlocked"
)

// Committed is emitted when a new PreCommitEscrow is funded. It carries the
// full parameter set of the call so indexers can reconstruct protocol state
// without reading the ledger.
type Committed struct {
	ID        [32]byte
	Sender    [20]byte
	Receiver  [20]byte
	Messenger [20]byte
	Asset     string
	Route     Route
	Amount    *big.Int
	Timelock  int64
}

func (Committed) EventType() string { return EventTypeCommitted }

func (e Committed) Event() *types.Event {
	attrs := map[string]string{
		"id":       formatID(e.ID),
		"sender":   formatAddr(e.Sender),
		"receiver": formatAddr(e.Receiver),
		"asset":    e.Asset,
		"amount":   formatAmount(e.Amount),
		"timelock": strconv.FormatInt(e.Timelock, 10),
	}
	if e.Messenger != ([20]byte{}) {
		attrs["messenger"] = formatAddr(e.Messenger)
	}
	routeAttributes(attrs, e.Route)
	return &types.Event{Type: EventTypeCommitted, Attributes: attrs}
}

// Locked is emitted when a LockedEscrow is created, either directly via lock
// or by converting a PreCommitEscrow. CommitID is zero for direct locks.
type Locked struct {
	ID       [32]byte
	CommitID [32]byte
	Sender   [20]byte
	Receiver [20]byte
	Asset    string
	Route    Route
	Hashlock [32]byte
	Amount   *big.Int
	Timelock int64
}

func (Locked) EventType() string { return EventTypeLocked }

func (e Locked) Event() *types.Event {
	attrs := map[string]string{
		"id":       formatID(e.ID),
		"sender":   formatAddr(e.Sender),
		"receiver": formatAddr(e.Receiver),
		"asset":    e.Asset,
		"hashlock": formatID(e.Hashlock),
		"amount":   formatAmount(e.Amount),
		"timelock": strconv.FormatInt(e.Timelock, 10),
	}
	if e.CommitID != ([32]byte{}) {
		attrs["commitId"] = formatID(e.CommitID)
	}
	routeAttributes(attrs, e.Route)
	return &types.Event{Type: EventTypeLocked, Attributes: attrs}
}

// Redeemed is emitted when a receiver claims a LockedEscrow with the correct
// secret. The secret is published deliberately: it is how upstream hops of a
// multi-hop swap discover it.
type Redeemed struct {
	ID       [32]byte
	Caller   [20]byte
	Receiver [20]byte
	Asset    string
	Secret   []byte
	Amount   *big.Int
}

func (Redeemed) EventType() string { return EventTypeRedeemed }

func (e Redeemed) Event() *types.Event {
	return &types.Event{
		Type: EventTypeRedeemed,
		Attributes: map[string]string{
			"id":       formatID(e.ID),
			"caller":   formatAddr(e.Caller),
			"receiver": formatAddr(e.Receiver),
			"asset":    e.Asset,
			"secret":   "0x" + hex.EncodeToString(e.Secret),
			"amount":   formatAmount(e.Amount),
		},
	}
}

// Uncommitted is emitted when a PreCommitEscrow is refunded after its
// timelock expired unconverted.
type Uncommitted struct {
	ID     [32]byte
	Sender [20]byte
	Asset  string
	Amount *big.Int
}

func (Uncommitted) EventType() string { return EventTypeUncommitted }

func (e Uncommitted) Event() *types.Event {
	return &types.Event{
		Type: EventTypeUncommitted,
		Attributes: map[string]string{
			"id":     formatID(e.ID),
			"sender": formatAddr(e.Sender),
			"asset":  e.Asset,
			"amount": formatAmount(e.Amount),
		},
	}
}

// Unlocked is emitted when a LockedEscrow is refunded to its sender after the
// timelock expired unredeemed.
type Unlocked struct {
	ID     [32]byte
	Sender [20]byte
	Asset  string
	Amount *big.Int
}

func (Unlocked) EventType() string { return EventTypeUnlocked }

func (e Unlocked) Event() *types.Event {
	return &types.Event{
		Type: EventTypeUnlocked,
		Attributes: map[string]string{
			"id":     formatID(e.ID),
			"sender": formatAddr(e.Sender),
			"asset":  e.Asset,
			"amount": formatAmount(e.Amount),
		},
	}
}

func formatID(id [32]byte) string {
	return "0x" + hex.EncodeToString(id[:])
}

func formatAddr(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.SwapPrefix, addr[:]).String()
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func routeAttributes(attrs map[string]string, route Route) {
	if route.DstChain != "" {
		attrs["dstChain"] = route.DstChain
	}
	if route.DstAsset != "" {
		attrs["dstAsset"] = route.DstAsset
	}
	if route.DstAddress != "" {
		attrs["dstAddress"] = route.DstAddress
	}
	if route.SrcAsset != "" {
		attrs["srcAsset"] = route.SrcAsset
	}
	if len(route.HopChains) > 0 {
		attrs["hopChains"] = strings.Join(route.HopChains, ",")
	}
	if len(route.HopAssets) > 0 {
		attrs["hopAssets"] = strings.Join(route.HopAssets, ",")
	}
	if len(route.HopAddrs) > 0 {
		attrs["hopAddresses"] = strings.Join(route.HopAddrs, ",")
	}
}
