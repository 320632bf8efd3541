// Package wallet implements the internal wallet ledger backed by Redis.
// Balances are integers in minor currency units; debits are atomic via a Lua
// script so concurrent attempts can never overdraw an account.
package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DebitStatus is the outcome of an atomic debit attempt.
type DebitStatus string

const (
	DebitCompleted           DebitStatus = "completed"
	DebitInsufficientBalance DebitStatus = "insufficient_balance"
	DebitAccountNotFound     DebitStatus = "account_not_found"
)

// DebitResult reports the outcome and, for completed debits, the remaining
// balance in minor units.
type DebitResult struct {
	Status  DebitStatus
	Balance int64
}

// debitScript checks the balance, decrements it, and journals the entry in
// one atomic step. Returns -1 when the account key does not exist, -2 when
// the balance is too low, otherwise the new balance.
var debitScript = redis.NewScript(`
local balance = redis.call('GET', KEYS[1])
if not balance then
  return -1
end
balance = tonumber(balance)
local amount = tonumber(ARGV[1])
if balance < amount then
  return -2
end
redis.call('DECRBY', KEYS[1], ARGV[1])
redis.call('LPUSH', KEYS[2], ARGV[2])
return balance - amount
`)

// RedisLedger is the Ledger implementation over a shared Redis client.
type RedisLedger struct {
	client *redis.Client
}

// NewRedisLedger wraps an existing Redis client.
func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func balanceKey(accountID, currency string) string {
	return fmt.Sprintf("wallet:%s:%s:balance", accountID, strings.ToLower(currency))
}

func journalKey(accountID, currency string) string {
	return fmt.Sprintf("wallet:%s:%s:journal", accountID, strings.ToLower(currency))
}

type journalEntry struct {
	Type      string    `json:"type"`
	Amount    int64     `json:"amount"`
	Reference string    `json:"reference"`
	Timestamp time.Time `json:"timestamp"`
}

// interpretDebitReply maps the script's integer reply to a DebitResult.
func interpretDebitReply(reply int64) *DebitResult {
	switch reply {
	case -1:
		return &DebitResult{Status: DebitAccountNotFound}
	case -2:
		return &DebitResult{Status: DebitInsufficientBalance}
	default:
		return &DebitResult{Status: DebitCompleted, Balance: reply}
	}
}

// Debit atomically withdraws amount from the account's balance and appends a
// journal entry. Insufficient funds and unknown accounts are results, not
// errors; errors mean the ledger itself could not be reached.
func (l *RedisLedger) Debit(ctx context.Context, accountID, currency string, amount int64, reference string) (*DebitResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	entry, err := json.Marshal(journalEntry{
		Type:      "debit",
		Amount:    amount,
		Reference: reference,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal journal entry: %w", err)
	}

	keys := []string{balanceKey(accountID, currency), journalKey(accountID, currency)}
	reply, err := debitScript.Run(ctx, l.client, keys, amount, string(entry)).Int64()
	if err != nil {
		return nil, fmt.Errorf("run debit script: %w", err)
	}
	return interpretDebitReply(reply), nil
}

// Ping verifies the ledger backend is reachable.
func (l *RedisLedger) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
