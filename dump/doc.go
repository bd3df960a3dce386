// Package dump provides Target implementations over captured memory
// images.
//
// Minidump parses the Windows minidump container: the stream directory,
// module list, captured memory ranges (both 32-bit and 64-bit range
// lists), and the system-info architecture check. It serves reads by
// mapping target addresses to file offsets through a sorted range table.
//
// MemoryTarget is the programmatic alternative: callers register address
// ranges and modules directly. Tests use it as a fixture, and embedders
// use it to adapt their own capture mechanisms without writing a full
// Target.
package dump
