// Package model defines the boundary types shared by the ledger, the claim
// authorizer and the transport layers: identifiers, amounts, events and the
// structured error taxonomy.
//
// Errors returned by any operation in this module are *Error values (or wrap
// one). Branch on Kind or RuleID; Error() strings may evolve.
package model
