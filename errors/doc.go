// Package errors provides structured error types for the load and parse
// surfaces of clrscope.
//
// Errors carry a Phase (where in processing the failure occurred) and a Kind
// (what went wrong), plus an optional path, detail message, and cause chain.
// Two structured errors match under errors.Is when their Phase and Kind
// agree, which lets callers branch on failure category without string
// comparison.
//
// The resolution core itself does not return these errors: per its failure
// model, it degrades to sentinel values (zero addresses, unresolved types).
// This package serves the outer surfaces where a hard failure is the right
// answer, such as opening a corrupt dump file.
package errors
