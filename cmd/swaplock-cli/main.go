package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"swaplock/crypto"
	"swaplock/native/htlc"
)

var rpcEndpoint = defaultRPCEndpoint() // Defaults to localhost, can be overridden via RPC_URL or --rpc flag
var rpcAuthToken = os.Getenv("SWAPLOCK_RPC_TOKEN")

func main() {
	args := os.Args[1:]
	var err error
	args, err = applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(args) < 1 {
		printUsage()
		return
	}

	command := args[0]
	rest := args[1:]
	switch command {
	case "generate-key":
		generateKey()
	case "secret":
		generateSecret(rest)
	case "commit":
		runCommit(rest)
	case "lock":
		runLock(rest)
	case "lock-commit":
		runLockCommit(rest)
	case "add-lock":
		runAddLock(rest)
	case "redeem":
		runRedeem(rest)
	case "uncommit":
		runRefund("htlc_uncommit", rest)
	case "unlock":
		runRefund("htlc_unlock", rest)
	case "get-commit":
		runGet("htlc_getCommit", rest)
	case "get-lock":
		runGet("htlc_getLock", rest)
	case "lock-of-commit":
		runLockOfCommit(rest)
	case "balance":
		runBalance(rest)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: swaplock-cli [--rpc <url>] <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  generate-key                     Create a new keypair in wallet.key")
	fmt.Println("  secret [-rounds 1|2]             Generate a fresh secret and its hashlock")
	fmt.Println("  commit                           Fund a pre-commit escrow (hashlock supplied later)")
	fmt.Println("  lock                             Fund a hashlocked escrow")
	fmt.Println("  lock-commit                      Convert a commit into a lock (sender or messenger)")
	fmt.Println("  add-lock                         Convert own commit with a fresh timelock")
	fmt.Println("  redeem                           Claim a lock by revealing the secret")
	fmt.Println("  uncommit                         Refund an expired commit")
	fmt.Println("  unlock                           Refund an expired lock")
	fmt.Println("  get-commit | get-lock            Inspect an escrow record")
	fmt.Println("  lock-of-commit                   Resolve the lock id a commit converted into")
	fmt.Println("  balance                          Query an address balance")
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--rpc" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --rpc")
			}
			rpcEndpoint = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--rpc=") {
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

func generateKey() {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		panic(err)
	}

	fileName := "wallet.key"
	if err := os.WriteFile(fileName, key.Bytes(), 0600); err != nil {
		panic(fmt.Sprintf("Failed to save key to %s: %v", fileName, err))
	}

	fmt.Printf("Generated new key and saved to %s\n", fileName)
	fmt.Printf("Your public address is: %s\n", key.PubKey().Address().String())
}

func generateSecret(args []string) {
	fs := flag.NewFlagSet("secret", flag.ExitOnError)
	rounds := fs.Int("rounds", 1, "Hash rounds of the target deployment (1 or 2)")
	_ = fs.Parse(args)

	scheme, err := htlc.ParseHashScheme(*rounds)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	secret, hashlock, err := htlc.GenerateSecret(scheme)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("secret:   0x%s\n", hex.EncodeToString(secret))
	fmt.Printf("hashlock: 0x%s\n", hex.EncodeToString(hashlock[:]))
	fmt.Println("Keep the secret private until the counterparty lock is in place.")
}

func escrowFlags(fs *flag.FlagSet) (sender, receiver, messenger, asset, amount *string, timelock *int64, salt *uint64, route *routeFlags) {
	sender = fs.String("sender", "", "Sender address (bech32)")
	receiver = fs.String("receiver", "", "Receiver address (bech32)")
	messenger = fs.String("messenger", "", "Messenger address (bech32, optional)")
	asset = fs.String("asset", "", "Asset symbol")
	amount = fs.String("amount", "", "Amount in base units")
	timelock = fs.Int64("timelock", 0, "Refund deadline as a unix timestamp")
	salt = fs.Uint64("salt", 0, "Disambiguation salt agreed off-chain")
	route = &routeFlags{}
	fs.StringVar(&route.dstChain, "dst-chain", "", "Destination chain name")
	fs.StringVar(&route.dstAsset, "dst-asset", "", "Destination asset")
	fs.StringVar(&route.dstAddress, "dst-address", "", "Destination address")
	fs.StringVar(&route.srcAsset, "src-asset", "", "Source-side asset label")
	return
}

type routeFlags struct {
	dstChain, dstAsset, dstAddress, srcAsset string
}

func (r *routeFlags) toMap() map[string]interface{} {
	out := map[string]interface{}{}
	if r.dstChain != "" {
		out["dstChain"] = r.dstChain
	}
	if r.dstAsset != "" {
		out["dstAsset"] = r.dstAsset
	}
	if r.dstAddress != "" {
		out["dstAddress"] = r.dstAddress
	}
	if r.srcAsset != "" {
		out["srcAsset"] = r.srcAsset
	}
	return out
}

func runCommit(args []string) {
	fs := flag.NewFlagSet("commit", flag.ExitOnError)
	sender, receiver, messenger, asset, amount, timelock, salt, route := escrowFlags(fs)
	_ = fs.Parse(args)

	params := map[string]interface{}{
		"sender":   *sender,
		"receiver": *receiver,
		"asset":    *asset,
		"amount":   *amount,
		"timelock": *timelock,
		"route":    route.toMap(),
	}
	if *messenger != "" {
		params["messenger"] = *messenger
	}
	if *salt != 0 {
		params["salt"] = *salt
	}
	callAndPrint("htlc_commit", params, true)
}

func runLock(args []string) {
	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	sender, receiver, _, asset, amount, timelock, salt, route := escrowFlags(fs)
	hashlock := fs.String("hashlock", "", "Hashlock (0x-prefixed 32 bytes)")
	_ = fs.Parse(args)

	params := map[string]interface{}{
		"sender":   *sender,
		"receiver": *receiver,
		"asset":    *asset,
		"amount":   *amount,
		"timelock": *timelock,
		"hashlock": *hashlock,
		"route":    route.toMap(),
	}
	if *salt != 0 {
		params["salt"] = *salt
	}
	callAndPrint("htlc_lock", params, true)
}

func runLockCommit(args []string) {
	fs := flag.NewFlagSet("lock-commit", flag.ExitOnError)
	caller := fs.String("caller", "", "Caller address (sender or messenger)")
	commitID := fs.String("commit-id", "", "Commit escrow id")
	lockID := fs.String("lock-id", "", "Lock escrow id agreed off-chain")
	hashlock := fs.String("hashlock", "", "Hashlock (0x-prefixed 32 bytes)")
	_ = fs.Parse(args)

	callAndPrint("htlc_lockCommit", map[string]interface{}{
		"caller":   *caller,
		"commitId": *commitID,
		"lockId":   *lockID,
		"hashlock": *hashlock,
	}, true)
}

func runAddLock(args []string) {
	fs := flag.NewFlagSet("add-lock", flag.ExitOnError)
	sender := fs.String("sender", "", "Sender address")
	commitID := fs.String("commit-id", "", "Commit escrow id")
	lockID := fs.String("lock-id", "", "Lock escrow id agreed off-chain")
	hashlock := fs.String("hashlock", "", "Hashlock (0x-prefixed 32 bytes)")
	timelock := fs.Int64("timelock", 0, "Fresh refund deadline as a unix timestamp")
	_ = fs.Parse(args)

	callAndPrint("htlc_addLock", map[string]interface{}{
		"sender":   *sender,
		"commitId": *commitID,
		"lockId":   *lockID,
		"hashlock": *hashlock,
		"timelock": *timelock,
	}, true)
}

func runRedeem(args []string) {
	fs := flag.NewFlagSet("redeem", flag.ExitOnError)
	caller := fs.String("caller", "", "Caller address")
	id := fs.String("id", "", "Lock escrow id")
	secret := fs.String("secret", "", "Secret preimage (0x-prefixed)")
	_ = fs.Parse(args)

	callAndPrint("htlc_redeem", map[string]interface{}{
		"caller": *caller,
		"id":     *id,
		"secret": *secret,
	}, true)
}

func runRefund(method string, args []string) {
	fs := flag.NewFlagSet(method, flag.ExitOnError)
	sender := fs.String("sender", "", "Sender address")
	id := fs.String("id", "", "Escrow id")
	_ = fs.Parse(args)

	callAndPrint(method, map[string]interface{}{
		"sender": *sender,
		"id":     *id,
	}, true)
}

func runGet(method string, args []string) {
	fs := flag.NewFlagSet(method, flag.ExitOnError)
	id := fs.String("id", "", "Escrow id")
	_ = fs.Parse(args)

	callAndPrint(method, map[string]interface{}{"id": *id}, false)
}

func runLockOfCommit(args []string) {
	fs := flag.NewFlagSet("lock-of-commit", flag.ExitOnError)
	commitID := fs.String("commit-id", "", "Commit escrow id")
	_ = fs.Parse(args)

	callAndPrint("htlc_getLockIdByCommitId", map[string]interface{}{"commitId": *commitID}, false)
}

func runBalance(args []string) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	address := fs.String("address", "", "Address (bech32)")
	asset := fs.String("asset", "", "Asset symbol (defaults to the native coin)")
	_ = fs.Parse(args)

	params := map[string]interface{}{"address": *address}
	if *asset != "" {
		params["asset"] = *asset
	}
	callAndPrint("swaplock_getBalance", params, false)
}

func callAndPrint(method string, params map[string]interface{}, authenticated bool) {
	payload, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  []interface{}{params},
	})
	resp, err := doRPCRequest(payload, authenticated)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error calling node: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int         `json:"code"`
			Message string      `json:"message"`
			Data    interface{} `json:"data"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to decode response from node")
		os.Exit(1)
	}
	if rpcResp.Error != nil {
		fmt.Fprintf(os.Stderr, "Error from node: %s (%v)\n", rpcResp.Error.Message, rpcResp.Error.Data)
		os.Exit(1)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, rpcResp.Result, "", "  "); err != nil {
		fmt.Println(string(rpcResp.Result))
		return
	}
	fmt.Println(pretty.String())
}

func doRPCRequest(payload []byte, authenticated bool) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, rpcEndpoint, bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authenticated {
		token := strings.TrimSpace(rpcAuthToken)
		if token == "" {
			return nil, fmt.Errorf("SWAPLOCK_RPC_TOKEN must be set for this command")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 15 * time.Second}
	return client.Do(req)
}
