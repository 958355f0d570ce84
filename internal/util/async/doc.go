// Package async provides utilities for parallel task execution with
// error collection.
//
// [RunParallel] executes independent operations concurrently and returns
// every error joined. The doctor command uses it to probe tool versions.
package async
