package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"swaplock/crypto"
	"swaplock/native/htlc"
	"swaplock/observability"
)

const (
	codeHTLCInvalidParams = -32061
	codeHTLCNotFound      = -32062
	codeHTLCForbidden     = -32063
	codeHTLCConflict      = -32064
	codeHTLCInternal      = -32065
)

type routeJSON struct {
	DstChain   string   `json:"dstChain,omitempty"`
	DstAsset   string   `json:"dstAsset,omitempty"`
	DstAddress string   `json:"dstAddress,omitempty"`
	SrcAsset   string   `json:"srcAsset,omitempty"`
	HopChains  []string `json:"hopChains,omitempty"`
	HopAssets  []string `json:"hopAssets,omitempty"`
	HopAddrs   []string `json:"hopAddresses,omitempty"`
}

func (r routeJSON) toRoute() htlc.Route {
	return htlc.Route{
		DstChain:   strings.TrimSpace(r.DstChain),
		DstAsset:   strings.TrimSpace(r.DstAsset),
		DstAddress: strings.TrimSpace(r.DstAddress),
		SrcAsset:   strings.TrimSpace(r.SrcAsset),
		HopChains:  r.HopChains,
		HopAssets:  r.HopAssets,
		HopAddrs:   r.HopAddrs,
	}
}

func routeToJSON(r htlc.Route) routeJSON {
	return routeJSON{
		DstChain:   r.DstChain,
		DstAsset:   r.DstAsset,
		DstAddress: r.DstAddress,
		SrcAsset:   r.SrcAsset,
		HopChains:  r.HopChains,
		HopAssets:  r.HopAssets,
		HopAddrs:   r.HopAddrs,
	}
}

type commitParams struct {
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Messenger string    `json:"messenger,omitempty"`
	Asset     string    `json:"asset"`
	Amount    string    `json:"amount"`
	Timelock  int64     `json:"timelock"`
	Route     routeJSON `json:"route"`
	Salt      uint64    `json:"salt,omitempty"`
}

type lockParams struct {
	Sender   string    `json:"sender"`
	Receiver string    `json:"receiver"`
	Asset    string    `json:"asset"`
	Amount   string    `json:"amount"`
	Timelock int64     `json:"timelock"`
	Hashlock string    `json:"hashlock"`
	Route    routeJSON `json:"route"`
	Salt     uint64    `json:"salt,omitempty"`
}

type lockCommitParams struct {
	Caller   string `json:"caller"`
	CommitID string `json:"commitId"`
	LockID   string `json:"lockId"`
	Hashlock string `json:"hashlock"`
}

type addLockParams struct {
	Sender   string `json:"sender"`
	CommitID string `json:"commitId"`
	LockID   string `json:"lockId"`
	Hashlock string `json:"hashlock"`
	Timelock int64  `json:"timelock"`
}

type redeemParams struct {
	Caller string `json:"caller"`
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

type refundParams struct {
	Sender string `json:"sender"`
	ID     string `json:"id"`
}

type idParams struct {
	ID string `json:"id"`
}

type commitIDParams struct {
	CommitID string `json:"commitId"`
}

type deriveIDParams struct {
	Kind      string    `json:"kind"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Messenger string    `json:"messenger,omitempty"`
	Asset     string    `json:"asset"`
	Amount    string    `json:"amount"`
	Timelock  int64     `json:"timelock"`
	Route     routeJSON `json:"route"`
	Salt      uint64    `json:"salt,omitempty"`
}

type balanceParams struct {
	Address string `json:"address"`
	Asset   string `json:"asset,omitempty"`
}

type idResult struct {
	ID string `json:"id"`
}

type commitJSON struct {
	ID          string    `json:"id"`
	Sender      string    `json:"sender"`
	Receiver    string    `json:"receiver"`
	Messenger   string    `json:"messenger,omitempty"`
	Asset       string    `json:"asset"`
	Route       routeJSON `json:"route"`
	Amount      string    `json:"amount"`
	Timelock    int64     `json:"timelock"`
	CreatedAt   int64     `json:"createdAt"`
	Locked      bool      `json:"locked"`
	Uncommitted bool      `json:"uncommitted"`
}

type lockJSON struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Asset     string    `json:"asset"`
	Route     routeJSON `json:"route"`
	Hashlock  string    `json:"hashlock"`
	Secret    string    `json:"secret,omitempty"`
	Amount    string    `json:"amount"`
	Timelock  int64     `json:"timelock"`
	CreatedAt int64     `json:"createdAt"`
	Redeemed  bool      `json:"redeemed"`
	Unlocked  bool      `json:"unlocked"`
}

type balanceResult struct {
	Address string `json:"address"`
	Asset   string `json:"asset"`
	Balance string `json:"balance"`
}

func (s *Server) handleCommit(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params commitParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	sender, err := parseBech32Address(params.Sender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	receiver, err := parseBech32Address(params.Receiver)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	messenger, err := parseOptionalBech32Address(params.Messenger)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parsePositiveBigInt(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	route := params.Route.toRoute()
	engine := s.node.Engine()
	id := engine.DeriveCommitID(htlc.IDParams{
		Sender:    sender,
		Receiver:  receiver,
		Messenger: messenger,
		Asset:     params.Asset,
		Amount:    amount,
		Timelock:  params.Timelock,
		Route:     route,
		Salt:      params.Salt,
	})
	record, err := engine.Commit(sender, htlc.CommitParams{
		ID:        id,
		Receiver:  receiver,
		Messenger: messenger,
		Asset:     params.Asset,
		Route:     route,
		Amount:    amount,
		Timelock:  params.Timelock,
	})
	observability.ObserveEscrowOp("commit", err)
	if err != nil {
		writeHTLCError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, idResult{ID: formatEscrowID(record.ID)})
}

func (s *Server) handleLock(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params lockParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	sender, err := parseBech32Address(params.Sender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	receiver, err := parseBech32Address(params.Receiver)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parsePositiveBigInt(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	hashlock, err := parseHash32(params.Hashlock)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	route := params.Route.toRoute()
	engine := s.node.Engine()
	id := engine.DeriveLockID(htlc.IDParams{
		Sender:   sender,
		Receiver: receiver,
		Asset:    params.Asset,
		Amount:   amount,
		Timelock: params.Timelock,
		Route:    route,
		Salt:     params.Salt,
	})
	record, err := engine.Lock(sender, htlc.LockParams{
		ID:       id,
		Receiver: receiver,
		Asset:    params.Asset,
		Route:    route,
		Hashlock: hashlock,
		Amount:   amount,
		Timelock: params.Timelock,
	})
	observability.ObserveEscrowOp("lock", err)
	if err != nil {
		writeHTLCError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, idResult{ID: formatEscrowID(record.ID)})
}

func (s *Server) handleLockCommit(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params lockCommitParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := parseBech32Address(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	commitID, err := parseEscrowID(params.CommitID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	lockID, err := parseEscrowID(params.LockID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	hashlock, err := parseHash32(params.Hashlock)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	record, err := s.node.Engine().LockCommit(caller, commitID, lockID, hashlock)
	observability.ObserveEscrowOp("lockCommit", err)
	if err != nil {
		writeHTLCError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, idResult{ID: formatEscrowID(record.ID)})
}

func (s *Server) handleAddLock(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params addLockParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	sender, err := parseBech32Address(params.Sender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	commitID, err := parseEscrowID(params.CommitID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	lockID, err := parseEscrowID(params.LockID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	hashlock, err := parseHash32(params.Hashlock)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	record, err := s.node.Engine().AddLock(sender, commitID, lockID, hashlock, params.Timelock)
	observability.ObserveEscrowOp("addLock", err)
	if err != nil {
		writeHTLCError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, idResult{ID: formatEscrowID(record.ID)})
}

func (s *Server) handleRedeem(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params redeemParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := parseBech32Address(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	id, err := parseEscrowID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	secret, err := parseHexBytes(params.Secret)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	record, err := s.node.Engine().Redeem(caller, id, secret)
	observability.ObserveEscrowOp("redeem", err)
	if err != nil {
		writeHTLCError(w, req.ID, err)
		return
	}
	observability.ObserveSettledValue("redeem", record.Asset, record.Amount)
	writeResult(w, req.ID, formatLockJSON(record))
}

func (s *Server) handleUncommit(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params refundParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	sender, err := parseBech32Address(params.Sender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	id, err := parseEscrowID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	record, err := s.node.Engine().Uncommit(sender, id)
	observability.ObserveEscrowOp("uncommit", err)
	if err != nil {
		writeHTLCError(w, req.ID, err)
		return
	}
	observability.ObserveSettledValue("uncommit", record.Asset, record.Amount)
	writeResult(w, req.ID, formatCommitJSON(record))
}

func (s *Server) handleUnlock(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params refundParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	sender, err := parseBech32Address(params.Sender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	id, err := parseEscrowID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	record, err := s.node.Engine().Unlock(sender, id)
	observability.ObserveEscrowOp("unlock", err)
	if err != nil {
		writeHTLCError(w, req.ID, err)
		return
	}
	observability.ObserveSettledValue("unlock", record.Asset, record.Amount)
	writeResult(w, req.ID, formatLockJSON(record))
}

func (s *Server) handleGetCommit(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params idParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	id, err := parseEscrowID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	record, err := s.node.Engine().CommitDetails(id)
	if err != nil {
		writeHTLCError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatCommitJSON(record))
}

func (s *Server) handleGetLock(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params idParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	id, err := parseEscrowID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	record, err := s.node.Engine().LockDetails(id)
	if err != nil {
		writeHTLCError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatLockJSON(record))
}

func (s *Server) handleGetLockIDByCommitID(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params commitIDParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	commitID, err := parseEscrowID(params.CommitID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	lockID, err := s.node.Engine().LockIDByCommitID(commitID)
	if err != nil {
		writeHTLCError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, idResult{ID: formatEscrowID(lockID)})
}

func (s *Server) handleDeriveID(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params deriveIDParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	sender, err := parseBech32Address(params.Sender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	receiver, err := parseBech32Address(params.Receiver)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	messenger, err := parseOptionalBech32Address(params.Messenger)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parsePositiveBigInt(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	p := htlc.IDParams{
		Sender:    sender,
		Receiver:  receiver,
		Messenger: messenger,
		Asset:     params.Asset,
		Amount:    amount,
		Timelock:  params.Timelock,
		Route:     params.Route.toRoute(),
		Salt:      params.Salt,
	}
	engine := s.node.Engine()
	var id [32]byte
	switch strings.ToLower(strings.TrimSpace(params.Kind)) {
	case "commit":
		id = engine.DeriveCommitID(p)
	case "lock":
		id = engine.DeriveLockID(p)
	default:
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", "kind must be commit or lock")
		return
	}
	writeResult(w, req.ID, idResult{ID: formatEscrowID(id)})
}

func (s *Server) handleGetBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params balanceParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	addr, err := parseBech32Address(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	asset := strings.TrimSpace(params.Asset)
	if asset == "" {
		asset = s.node.State().NativeSymbol()
	}
	balance, err := s.node.GetBalance(asset, addr)
	if err != nil {
		writeHTLCError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, balanceResult{
		Address: params.Address,
		Asset:   asset,
		Balance: balance.String(),
	})
}

// --- Helpers ---

func decodeSingleParam(w http.ResponseWriter, req *RPCRequest, out interface{}) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", "exactly one parameter object expected")
		return false
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return false
	}
	return true
}

func parseBech32Address(value string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return out, fmt.Errorf("address required")
	}
	decoded, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return out, err
	}
	copy(out[:], decoded.Bytes())
	return out, nil
}

func parseOptionalBech32Address(value string) ([20]byte, error) {
	if strings.TrimSpace(value) == "" {
		return [20]byte{}, nil
	}
	return parseBech32Address(value)
}

func parseEscrowID(value string) ([32]byte, error) {
	id, err := parseHash32(value)
	if err != nil {
		return id, fmt.Errorf("invalid escrow id: %w", err)
	}
	return id, nil
}

func parseHash32(value string) ([32]byte, error) {
	var out [32]byte
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return out, fmt.Errorf("value required")
	}
	cleaned := strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if len(cleaned) != 64 {
		return out, fmt.Errorf("value must be 32 bytes")
	}
	decoded, err := hex.DecodeString(cleaned)
	if err != nil {
		return out, err
	}
	copy(out[:], decoded)
	return out, nil
}

func parseHexBytes(value string) ([]byte, error) {
	trimmed := strings.TrimSpace(value)
	cleaned := strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if cleaned == "" {
		return []byte{}, nil
	}
	return hex.DecodeString(cleaned)
}

func parsePositiveBigInt(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return amount, nil
}

func formatEscrowID(id [32]byte) string {
	return "0x" + hex.EncodeToString(id[:])
}

func formatAddress(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.SwapPrefix, addr[:]).String()
}

func formatCommitJSON(record *htlc.PreCommitEscrow) commitJSON {
	amount := "0"
	if record.Amount != nil {
		amount = record.Amount.String()
	}
	out := commitJSON{
		ID:          formatEscrowID(record.ID),
		Sender:      formatAddress(record.Sender),
		Receiver:    formatAddress(record.Receiver),
		Asset:       record.Asset,
		Route:       routeToJSON(record.Route),
		Amount:      amount,
		Timelock:    record.Timelock,
		CreatedAt:   record.CreatedAt,
		Locked:      record.Locked,
		Uncommitted: record.Uncommitted,
	}
	if record.Messenger != ([20]byte{}) {
		out.Messenger = formatAddress(record.Messenger)
	}
	return out
}

func formatLockJSON(record *htlc.LockedEscrow) lockJSON {
	amount := "0"
	if record.Amount != nil {
		amount = record.Amount.String()
	}
	out := lockJSON{
		ID:        formatEscrowID(record.ID),
		Sender:    formatAddress(record.Sender),
		Receiver:  formatAddress(record.Receiver),
		Asset:     record.Asset,
		Route:     routeToJSON(record.Route),
		Hashlock:  "0x" + hex.EncodeToString(record.Hashlock[:]),
		Amount:    amount,
		Timelock:  record.Timelock,
		CreatedAt: record.CreatedAt,
		Redeemed:  record.Redeemed,
		Unlocked:  record.Unlocked,
	}
	if len(record.Secret) > 0 {
		out.Secret = "0x" + hex.EncodeToString(record.Secret)
	}
	return out
}

func writeHTLCError(w http.ResponseWriter, id interface{}, err error) {
	if err == nil {
		return
	}
	status := http.StatusInternalServerError
	code := codeHTLCInternal
	message := "internal_error"
	data := err.Error()
	switch {
	case errors.Is(err, htlc.ErrNotFound):
		status = http.StatusNotFound
		code = codeHTLCNotFound
		message = "not_found"
	case errors.Is(err, htlc.ErrNotSender) || errors.Is(err, htlc.ErrNotReceiver) ||
		errors.Is(err, htlc.ErrUnauthorizedAccess):
		status = http.StatusForbidden
		code = codeHTLCForbidden
		message = "forbidden"
	case errors.Is(err, htlc.ErrNotFutureTimelock) || errors.Is(err, htlc.ErrFundsNotSent) ||
		errors.Is(err, htlc.ErrInvalidAsset):
		status = http.StatusBadRequest
		code = codeHTLCInvalidParams
		message = "invalid_params"
	case errors.Is(err, htlc.ErrAlreadyRedeemed) || errors.Is(err, htlc.ErrAlreadyUnlocked) ||
		errors.Is(err, htlc.ErrAlreadyLocked) || errors.Is(err, htlc.ErrAlreadyUncommitted) ||
		errors.Is(err, htlc.ErrNotPastTimelock) || errors.Is(err, htlc.ErrHashlockNoMatch) ||
		errors.Is(err, htlc.ErrHashlockNotSet) || errors.Is(err, htlc.ErrHashlockAlreadySet) ||
		errors.Is(err, htlc.ErrIDInUse) || errors.Is(err, htlc.ErrInsufficientFunds) ||
		errors.Is(err, htlc.ErrInvalidState):
		status = http.StatusConflict
		code = codeHTLCConflict
		message = "conflict"
	}
	writeError(w, status, id, code, message, data)
}
