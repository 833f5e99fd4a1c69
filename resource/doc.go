// Package resource governs the memory, loader concurrency and IO bandwidth
// of a learning run.
//
//   - Memory: search nodes and permutation cache entries are charged to the
//     controller. TryAcquireMemory is fail-fast; a refusal ends the search the
//     same way the node budget does.
//   - Workers: bounds how many dataset files are fetched in parallel.
//   - IO: token bucket throttling of dataset reads from object storage.
//
// A nil *Controller is valid and imposes no limits.
package resource
