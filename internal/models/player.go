package models

import (
	"strings"
	"time"
)

// PlayerID is the canonical key for a player, derived from the wallet
// address. It stays stable across reconnects so a returning participant
// picks up their existing record.
type PlayerID string

// PlayerIDFromWallet derives the canonical player id from a wallet address.
func PlayerIDFromWallet(address string) PlayerID {
	return PlayerID(strings.ToLower(strings.TrimSpace(address)))
}

// Player is a participant record in the replicated players slot.
type Player struct {
	ID            PlayerID  `json:"id"`
	Nickname      string    `json:"nickname"`
	HasPaid       bool      `json:"has_paid"`
	IsReady       bool      `json:"is_ready"`
	WalletAddress string    `json:"wallet_address,omitempty"`
	PaymentTxHash string    `json:"payment_tx_hash,omitempty"`
	JoinedAt      time.Time `json:"joined_at"`
}

// Ready reports whether the player has both deposited and readied up.
func (p Player) Ready() bool {
	return p.HasPaid && p.IsReady
}
