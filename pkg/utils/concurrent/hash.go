package concurrent

import (
	"hash/fnv"
)

// HashString FNV-1a, 字符串 Key 分布均匀
func HashString(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
