package provider

import (
	"context"
)

// ClientInterface defines the methods the sync engine and reconciler
// require from the provider API client.
type ClientInterface interface {
	// SyncTransactions fetches one page of the transaction change stream.
	// An empty cursor requests the full initial sync.
	SyncTransactions(ctx context.Context, accessToken, cursor string) (*SyncPage, error)

	// GetAccounts fetches the current account list for a connection.
	GetAccounts(ctx context.Context, accessToken string) ([]Account, error)
}
