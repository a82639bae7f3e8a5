// Package errors provides the structured error handling used across
// tactics-api.
//
// It provides:
//   - Structured errors with codes, messages, and metadata
//   - Error context preservation through wrapping
//   - Validation error helpers for config and input checking
//   - Type-safe error checking
//
// # Basic Usage
//
// Creating errors:
//
//	err := errors.NotFound("encounter not found")
//	err := errors.InvalidArgumentf("unknown action kind: %s", kind)
//
// Adding metadata:
//
//	err := errors.FailedPrecondition("not this stack's turn").
//	    WithMeta("stack_id", stackID)
//
// Wrapping errors:
//
//	if err := repo.Get(ctx, input); err != nil {
//	    return errors.Wrap(err, "failed to load encounter")
//	}
//
// # Error Semantics
//
// The combat engine maps its failure taxonomy onto codes:
//   - Rejected actions (illegal destination, out of range, insufficient
//     mana): InvalidArgument or FailedPrecondition. State is unchanged and
//     the caller may submit another action.
//   - Data integrity problems (unknown ability id in a stat block):
//     DataLoss. The engine logs and treats the ability as a no-op.
//   - Invariant violations (action against a dead stack, double occupancy):
//     Internal. These indicate an engine bug; only the current action
//     aborts.
//
// # Validation Errors
//
// Using the validation builder:
//
//	vb := errors.NewValidationBuilder()
//	if c.Roller == nil {
//	    vb.RequiredField("Roller")
//	}
//	return vb.Build()
package errors
