package client

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/gachalogs/pkg/crypto"
)

const nonceAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Signer 米游社请求签名
type Signer struct {
	salt       string
	version    string
	clientType string
	userAgent  string
	referer    string
	now        func() time.Time
}

// NewSigner 创建签名器
func NewSigner(cfg *Config) *Signer {
	return &Signer{
		salt:       cfg.Salt,
		version:    cfg.ClientVersion,
		clientType: cfg.ClientType,
		userAgent:  cfg.UserAgent,
		referer:    cfg.Referer,
		now:        time.Now,
	}
}

// DS 动态签名 "t,r,md5(salt=<salt>&t=<t>&r=<r>)"，每次调用随机数不同
func (s *Signer) DS() string {
	t := s.now().Unix()
	r := nonce(6)
	sum := crypto.MD5HashString(fmt.Sprintf("salt=%s&t=%d&r=%s", s.salt, t, r))
	return fmt.Sprintf("%d,%s,%s", t, r, sum)
}

// DeviceID 由 Cookie 推导的设备指纹，同一 Cookie 恒定
func DeviceID(cookie string) string {
	return uuid.NewMD5(uuid.NameSpaceURL, []byte(cookie)).String()
}

// Apply 写入签名请求头
func (s *Signer) Apply(h http.Header, cookie string) {
	h.Set("DS", s.DS())
	h.Set("x-rpc-app_version", s.version)
	h.Set("x-rpc-client_type", s.clientType)
	h.Set("x-rpc-device_id", DeviceID(cookie))
	h.Set("User-Agent", s.userAgent)
	h.Set("Referer", s.referer)
	if cookie != "" {
		h.Set("Cookie", cookie)
	}
}

func nonce(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	for i, b := range buf {
		buf[i] = nonceAlphabet[int(b)%len(nonceAlphabet)]
	}
	return string(buf)
}
