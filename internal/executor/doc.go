// Package executor runs external provisioning commands.
//
// An [Invocation] is a command template plus optional environment entries.
// [Resolve] splits the template into argv with shell-word rules and then
// substitutes every ${name} placeholder per argument, so a bound value never
// changes the argument count. [Executor.Execute] resolves and runs the
// result through a [Runner]; [ProcessRunner] is the real implementation.
//
// The executor never interprets exit codes or output. That is left to the
// caller (see internal/provisioning).
package executor
