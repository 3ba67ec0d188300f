// Package rpc serves the ledger runtime over gRPC and provides a client for it.
//
// Service: xdao.claimledger.v1.Ledger (see ledger.proto).
package rpc
