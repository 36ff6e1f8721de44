package htlc

import (
	"encoding/hex"
	"math/big"
	"testing"
)

func TestCommittedEventAttributes(t *testing.T) {
	evt := Committed{
		ID:       newTestID(0x01),
		Sender:   newTestAddress(0x02),
		Receiver: newTestAddress(0x03),
		Asset:    "SWP",
		Route: Route{
			DstChain:  "otherchain",
			HopChains: []string{"mid1", "mid2"},
		},
		Amount:   big.NewInt(42),
		Timelock: 12345,
	}
	wire := evt.Event()
	if wire.Type != EventTypeCommitted {
		t.Fatalf("type = %q", wire.Type)
	}
	if wire.Attributes["amount"] != "42" || wire.Attributes["timelock"] != "12345" {
		t.Fatalf("numeric attributes malformed: %v", wire.Attributes)
	}
	if wire.Attributes["dstChain"] != "otherchain" {
		t.Fatalf("route attribute missing")
	}
	if wire.Attributes["hopChains"] != "mid1,mid2" {
		t.Fatalf("hop chains = %q", wire.Attributes["hopChains"])
	}
	if _, ok := wire.Attributes["messenger"]; ok {
		t.Fatalf("zero messenger must be omitted")
	}
}

func TestLockedEventCommitID(t *testing.T) {
	direct := Locked{ID: newTestID(0x01), Amount: big.NewInt(1)}
	if _, ok := direct.Event().Attributes["commitId"]; ok {
		t.Fatalf("direct lock must not carry a commit id")
	}
	converted := Locked{ID: newTestID(0x01), CommitID: newTestID(0x02), Amount: big.NewInt(1)}
	want := "0x" + hex.EncodeToString(converted.CommitID[:])
	if got := converted.Event().Attributes["commitId"]; got != want {
		t.Fatalf("commitId = %q, want %q", got, want)
	}
}

func TestRedeemedEventPublishesSecret(t *testing.T) {
	secret := []byte{0xde, 0xad}
	evt := Redeemed{ID: newTestID(0x01), Secret: secret, Amount: big.NewInt(5)}
	if got := evt.Event().Attributes["secret"]; got != "0xdead" {
		t.Fatalf("secret attribute = %q", got)
	}
}
