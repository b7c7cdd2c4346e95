package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aristath/pumpstream/internal/analytics/holders"
)

// TokenProgramID is the SPL Token program address that owns every token
// account, used as the getProgramAccounts filter target.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// tokenAccountLayoutSize is the fixed size of an SPL token account, per
// the SPL Token program's account layout (mint:32, owner:32, amount:8,
// plus delegate/state/native/close-authority fields we don't need).
const tokenAccountLayoutSize = 165

// RPCClient is a minimal JSON-RPC client over a Solana RPC endpoint,
// used only for getProgramAccounts lookups of a mint's token accounts.
// There is no ecosystem Solana RPC client among the example repos, so
// this follows the same plain net/http + encoding/json shape used
// elsewhere in this codebase for simple authenticated HTTP APIs.
type RPCClient struct {
	endpoint   string
	httpClient *http.Client
}

func NewRPCClient(endpoint string) *RPCClient {
	return &RPCClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcAccount struct {
	Pubkey  string `json:"pubkey"`
	Account struct {
		Data []string `json:"data"`
	} `json:"account"`
}

type rpcResponse struct {
	Result []rpcAccount `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// FetchHolderAccounts lists every SPL token account for tokenAddress via
// getProgramAccounts filtered by account size and mint offset, decoding
// each base64 account blob locally rather than requesting jsonParsed
// (keeping the wire format identical across RPC providers). Implements
// holders.RPCClient.
func (c *RPCClient) FetchHolderAccounts(ctx context.Context, tokenAddress string) ([]holders.HolderAccount, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getProgramAccounts",
		Params: []interface{}{
			TokenProgramID,
			map[string]interface{}{
				"encoding": "base64",
				"filters": []interface{}{
					map[string]interface{}{"dataSize": tokenAccountLayoutSize},
					map[string]interface{}{
						"memcmp": map[string]interface{}{
							"offset": 0,
							"bytes":  tokenAddress,
						},
					},
				},
			},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode rpc request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("rpc request: %w", err)
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("decode rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc error: %s", rpcResp.Error.Message)
	}

	accounts := make([]holders.HolderAccount, 0, len(rpcResp.Result))
	for _, a := range rpcResp.Result {
		if len(a.Account.Data) == 0 {
			continue
		}
		account, ok := decodeTokenAccount(a.Account.Data[0])
		if !ok {
			continue
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// decodeTokenAccount extracts owner (bytes 32..64) and raw amount (bytes
// 64..72, little-endian u64) from a base64-encoded SPL token account.
// Zero-balance accounts (closed/emptied token accounts, commonly
// returned by getProgramAccounts) are filtered out here: holder
// concentration only ever considers non-zero holders (§4.5).
func decodeTokenAccount(b64 string) (holders.HolderAccount, bool) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil || len(raw) < 72 {
		return holders.HolderAccount{}, false
	}
	amount := binary.LittleEndian.Uint64(raw[64:72])
	if amount == 0 {
		return holders.HolderAccount{}, false
	}
	owner, err := EncodePubkey(raw[32:64])
	if err != nil {
		return holders.HolderAccount{}, false
	}
	return holders.HolderAccount{Owner: owner, Balance: float64(amount)}, true
}
