// Package checksum 内容摘要，用于缓存文件的 ETag
package checksum

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Sum64 计算 XXHash64
func Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Verify 校验 XXHash64
func Verify(data []byte, expected uint64) bool {
	return Sum64(data) == expected
}

// ETag 生成强校验 ETag，形如 "1a2b3c"
func ETag(data []byte) string {
	return strconv.Quote(strconv.FormatUint(Sum64(data), 16))
}

// Digest 增量计算
type Digest struct {
	d *xxhash.Digest
}

func NewDigest() *Digest {
	return &Digest{d: xxhash.New()}
}

func (d *Digest) Write(p []byte) (int, error) {
	return d.d.Write(p)
}

func (d *Digest) Sum64() uint64 {
	return d.d.Sum64()
}
