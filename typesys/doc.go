// Package typesys resolves field types and static storage addresses for a
// .NET runtime target.
//
// The package has three cooperating pieces. A Catalog canonicalizes type
// descriptors (basic types, arrays, pointers, registered classes). A Field
// is an immutable descriptor built from raw metadata whose declared type is
// resolved lazily, trying three strategies in order: decoding the
// compressed signature, sampling live instances across execution domains,
// and falling back to the basic type for the element tag. A StaticLocator
// turns a field plus an execution domain into the absolute address holding
// the field's value, honoring the target runtime's shared-module
// initialization flags.
//
// Nothing in this package throws away a query over bad data: malformed
// signatures, unreadable memory, and uninitialized classes all degrade to
// sentinel results (the Unresolved type, a zero address) that callers can
// detect and skip.
package typesys
