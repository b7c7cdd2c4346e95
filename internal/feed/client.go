// Package feed manages the upstream gRPC firehose subscription: account
// updates for bonding-curve accounts and transaction envelopes for the
// pump.fun program, reconnecting with exponential backoff on disconnect.
package feed

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	geyserpb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"

	"github.com/aristath/pumpstream/internal/solana"
)

// AccountUpdate is the normalized form of an inbound account-state
// change, decoupled from the wire message so the rest of the pipeline
// never imports the geyser proto package directly.
type AccountUpdate struct {
	Pubkey string
	Owner  string
	Data   []byte
	Slot   uint64
}

// TransactionUpdate is the normalized form of an inbound transaction
// envelope.
type TransactionUpdate struct {
	Signature    string
	Slot         uint64
	AccountKeys  []string
	LogMessages  []string
	Instructions []InstructionData
	Failed       bool

	// FeePayer is the transaction's first signer (accountKeys[0] by the
	// Solana message convention), recorded as the user address.
	FeePayer string
	// Fee is the transaction fee in lamports, from the transaction meta.
	Fee uint64
}

// InstructionData is a single top-level instruction's program id and raw
// data, enough to recognize pump.fun create-instruction discriminators.
type InstructionData struct {
	ProgramID string
	Data      []byte
}

// Subscription carries the two channels consumers read from; both are
// closed when the subscription's context is cancelled.
type Subscription struct {
	Accounts     <-chan AccountUpdate
	Transactions <-chan TransactionUpdate
}

const (
	baseReconnectDelay = 5 * time.Second
	maxReconnectDelay  = 5 * time.Minute
	maxLoggedAttempts  = 10
)

// Client manages the subscription lifecycle, reconnecting with
// exponential backoff. This mirrors the reconnect-loop shape used
// elsewhere in this codebase for long-lived streaming connections: a
// guarded reconnecting flag, a computed backoff delay, and an attempt
// counter that resets to zero on a successful (re)connect.
type Client struct {
	endpoint string
	token    string
	insecure bool

	log zerolog.Logger

	mu           sync.Mutex
	reconnecting bool
	attempt      int
}

// New builds a Client for endpoint. If token is non-empty it is sent as
// an "x-token" request metadata header on every call, matching the
// Yellowstone Geyser authentication convention.
func New(endpoint, token string, log zerolog.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		log:      log.With().Str("component", "feed.Client").Logger(),
	}
}

// Subscribe establishes the subscription and returns channels delivering
// normalized updates until ctx is cancelled. Reconnection happens
// transparently inside the returned channels' producer goroutine;
// callers only see a gap in delivery, never a channel close, until ctx
// is done.
func (c *Client) Subscribe(ctx context.Context) *Subscription {
	accounts := make(chan AccountUpdate, 1024)
	transactions := make(chan TransactionUpdate, 1024)

	go c.run(ctx, accounts, transactions)

	return &Subscription{Accounts: accounts, Transactions: transactions}
}

func (c *Client) run(ctx context.Context, accounts chan<- AccountUpdate, transactions chan<- TransactionUpdate) {
	defer close(accounts)
	defer close(transactions)

	for {
		if ctx.Err() != nil {
			return
		}

		if err := c.connectAndStream(ctx, accounts, transactions); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logDisconnect(err)
			c.sleepBackoff(ctx)
			continue
		}

		// connectAndStream only returns errors (a cancelled ctx surfaces
		// as a Recv error, handled above); a nil return ends the loop.
		return
	}
}

func (c *Client) connectAndStream(ctx context.Context, accounts chan<- AccountUpdate, transactions chan<- TransactionUpdate) error {
	creds := c.transportCredentials()

	conn, err := grpc.NewClient(c.endpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return err
	}
	defer conn.Close()

	client := geyserpb.NewGeyserClient(conn)

	streamCtx := ctx
	if c.token != "" {
		streamCtx = metadata.AppendToOutgoingContext(ctx, "x-token", c.token)
	}

	stream, err := client.Subscribe(streamCtx)
	if err != nil {
		return err
	}

	if err := stream.Send(c.subscribeRequest()); err != nil {
		return err
	}

	c.resetAttempt()
	c.log.Info().Str("endpoint", c.endpoint).Msg("subscription established")

	for {
		update, err := stream.Recv()
		if err != nil {
			return err
		}

		c.dispatch(update, accounts, transactions)
	}
}

func (c *Client) transportCredentials() credentials.TransportCredentials {
	if c.insecure {
		return insecure.NewCredentials()
	}
	return credentials.NewTLS(nil)
}

// subscribeRequest builds a SubscribeRequest filtered to the pump.fun
// program: accounts owned by the program, and transactions that
// reference it, excluding votes and failed transactions.
func (c *Client) subscribeRequest() *geyserpb.SubscribeRequest {
	return &geyserpb.SubscribeRequest{
		Accounts: map[string]*geyserpb.SubscribeRequestFilterAccounts{
			"pumpfun": {Owner: []string{solana.PumpFunProgramID}},
		},
		Transactions: map[string]*geyserpb.SubscribeRequestFilterTransactions{
			"pumpfun": {
				AccountInclude: []string{solana.PumpFunProgramID},
				Vote:           boolPtr(false),
				Failed:         boolPtr(false),
			},
		},
	}
}

func boolPtr(b bool) *bool { return &b }

func (c *Client) dispatch(update *geyserpb.SubscribeUpdate, accounts chan<- AccountUpdate, transactions chan<- TransactionUpdate) {
	switch payload := update.UpdateOneof.(type) {
	case *geyserpb.SubscribeUpdate_Account:
		acct := payload.Account.Account
		accounts <- AccountUpdate{
			Pubkey: encodeOrEmpty(acct.Pubkey),
			Owner:  encodeOrEmpty(acct.Owner),
			Data:   acct.Data,
			Slot:   update.GetAccount().Slot,
		}
	case *geyserpb.SubscribeUpdate_Transaction:
		tx := payload.Transaction.Transaction
		accountKeys := decodeAccountKeys(tx)
		feePayer := ""
		if len(accountKeys) > 0 {
			feePayer = accountKeys[0]
		}
		transactions <- TransactionUpdate{
			Signature:    encodeOrEmpty(tx.Signature),
			Slot:         payload.Transaction.Slot,
			AccountKeys:  accountKeys,
			LogMessages:  tx.Meta.GetLogMessages(),
			Instructions: decodeInstructions(tx),
			Failed:       tx.Meta.GetErr() != nil,
			FeePayer:     feePayer,
			Fee:          tx.Meta.GetFee(),
		}
	case *geyserpb.SubscribeUpdate_Ping:
		// keepalive only
	}
}

func encodeOrEmpty(raw []byte) string {
	if len(raw) != 32 {
		return ""
	}
	addr, err := solana.EncodePubkey(raw)
	if err != nil {
		return ""
	}
	return addr
}

func decodeAccountKeys(tx *geyserpb.SubscribeUpdateTransactionInfo) []string {
	keys := tx.GetTransaction().GetMessage().GetAccountKeys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, encodeOrEmpty(k))
	}
	return out
}

func decodeInstructions(tx *geyserpb.SubscribeUpdateTransactionInfo) []InstructionData {
	accountKeys := decodeAccountKeys(tx)
	instrs := tx.GetTransaction().GetMessage().GetInstructions()
	out := make([]InstructionData, 0, len(instrs))
	for _, instr := range instrs {
		idx := int(instr.GetProgramIdIndex())
		programID := ""
		if idx >= 0 && idx < len(accountKeys) {
			programID = accountKeys[idx]
		}
		out = append(out, InstructionData{ProgramID: programID, Data: instr.GetData()})
	}
	return out
}

func (c *Client) logDisconnect(err error) {
	c.mu.Lock()
	attempt := c.attempt
	c.attempt++
	c.mu.Unlock()

	event := c.log.Warn()
	if attempt >= maxLoggedAttempts {
		event = c.log.Debug()
	}
	event.Err(err).Int("attempt", attempt).Msg("subscription disconnected, reconnecting")
}

func (c *Client) sleepBackoff(ctx context.Context) {
	c.mu.Lock()
	attempt := c.attempt
	c.mu.Unlock()

	delay := time.Duration(float64(baseReconnectDelay) * math.Pow(2, float64(attempt)))
	if delay > maxReconnectDelay {
		delay = maxReconnectDelay
	}

	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

func (c *Client) resetAttempt() {
	c.mu.Lock()
	c.attempt = 0
	c.mu.Unlock()
}
