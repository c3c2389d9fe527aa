package respd

import (
	"github.com/zeebo/xxh3"

	"github.com/pior/respd/internal"
)

// SelectServerFunc picks the server address for a key from the current
// server list.
type SelectServerFunc func(key []byte, servers []string) (string, error)

// DefaultSelectServer hashes the key with xxh3 and maps it to a server
// with Jump consistent hashing, which moves few keys when the server
// list grows or shrinks. A single server is returned directly.
func DefaultSelectServer(key []byte, servers []string) (string, error) {
	switch len(servers) {
	case 0:
		return "", ErrNoServers
	case 1:
		return servers[0], nil
	}

	index := internal.JumpHash(xxh3.Hash(key), len(servers))
	return servers[index], nil
}

// staticSelector always selects the same index, for tests.
func staticSelector(index int) SelectServerFunc {
	return func(key []byte, servers []string) (string, error) {
		if len(servers) == 0 {
			return "", ErrNoServers
		}
		return servers[index%len(servers)], nil
	}
}
