package rpc

import (
	"encoding/json"

	"github.com/savings-vault/vault-cranker/model/solana"
)

const jsonRPCVersion = "2.0"

const (
	methodGetGenesisHash       = "getGenesisHash"
	methodGetAccountInfo       = "getAccountInfo"
	methodGetLatestBlockhash   = "getLatestBlockhash"
	methodSendTransaction      = "sendTransaction"
	methodGetSignatureStatuses = "getSignatureStatuses"
)

const encodingBase64 = "base64"

// request outcomes reported to metrics
const (
	statusOK             = "ok"
	statusRPCError       = "rpc_error"
	statusTransportError = "transport_error"
	statusCircuitOpen    = "circuit_open"
)

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
}

type commitmentConfig struct {
	Commitment solana.Commitment `json:"commitment,omitempty"`
}

type dataSlice struct {
	Offset uint64 `json:"offset"`
	Length uint64 `json:"length"`
}

type accountInfoConfig struct {
	Encoding   string            `json:"encoding"`
	Commitment solana.Commitment `json:"commitment,omitempty"`
	DataSlice  *dataSlice        `json:"dataSlice,omitempty"`
}

type sendTransactionConfig struct {
	Encoding            string            `json:"encoding"`
	SkipPreflight       bool              `json:"skipPreflight"`
	PreflightCommitment solana.Commitment `json:"preflightCommitment,omitempty"`
	MaxRetries          *uint             `json:"maxRetries,omitempty"`
}

type signatureStatusConfig struct {
	SearchTransactionHistory bool `json:"searchTransactionHistory"`
}

type responseContext struct {
	Slot uint64 `json:"slot"`
}

type accountInfoResult struct {
	Context responseContext `json:"context"`
	Value   json.RawMessage `json:"value"`
}

type latestBlockhashResult struct {
	Context responseContext `json:"context"`
	Value   struct {
		Blockhash            solana.Hash `json:"blockhash"`
		LastValidBlockHeight uint64      `json:"lastValidBlockHeight"`
	} `json:"value"`
}

type signatureStatusesResult struct {
	Context responseContext           `json:"context"`
	Value   []*solana.SignatureStatus `json:"value"`
}
