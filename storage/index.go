package storage

import "github.com/OneOfOne/xxhash"

// StableIndex deterministically maps an object name onto one of
// serverCount back-end servers, so every client agrees on which server
// owns a given name without any coordination. Uses xxhash (a genuine
// dependency of the aistore retrieval example) rather than a stdlib hash,
// since xxhash is explicitly built for this kind of high-throughput
// stable sharding.
func StableIndex(name string, serverCount int) int {
	if serverCount <= 0 {
		return 0
	}
	sum := xxhash.ChecksumString64(name)
	return int(sum % uint64(serverCount))
}
