// Package crypto 请求签名用到的摘要工具
package crypto

import (
	"crypto/md5"
	"encoding/hex"
)

// MD5Hash 十六进制小写 MD5
func MD5Hash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// MD5HashString 字符串 MD5
func MD5HashString(s string) string {
	return MD5Hash([]byte(s))
}

// MD5Verify 比对摘要
func MD5Verify(data []byte, expected string) bool {
	return MD5Hash(data) == expected
}
