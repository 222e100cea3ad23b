package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prefix 标识配置文件中已加密的值
const Prefix = "ENC:"

var ErrNotSealed = errors.New("value is not sealed")

// Crypter 用 AES-256-GCM 加解密配置中的敏感字段
type Crypter struct {
	gcm cipher.AEAD
}

func NewCrypter(key []byte) (*Crypter, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key size: expected %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Crypter{gcm: gcm}, nil
}

// Seal 加密明文, 输出 ENC:<base64(nonce+ciphertext)>
func (c *Crypter) Seal(plaintext string) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return Prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open 解密 Seal 的输出
func (c *Crypter) Open(encoded string) (string, error) {
	if !IsSealed(encoded) {
		return "", ErrNotSealed
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encoded, Prefix))
	if err != nil {
		return "", fmt.Errorf("decode sealed value: %w", err)
	}
	nonceSize := c.gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}
	plaintext, err := c.gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}

// Reveal 对加密值解密, 明文值原样返回
func (c *Crypter) Reveal(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	return c.Open(value)
}

func IsSealed(s string) bool {
	return strings.HasPrefix(s, Prefix)
}
