// Package ccavenue encrypts and decrypts CCAvenue request and response
// payloads with the merchant working key.
package ccavenue

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/hex"
	"errors"
)

var (
	ErrInvalidCiphertext = errors.New("ccavenue: invalid ciphertext")
	ErrInvalidPadding    = errors.New("ccavenue: invalid padding")
)

var iv = []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}

func newCipher(workingKey string) (cipher.Block, error) {
	key := md5.Sum([]byte(workingKey))
	return aes.NewCipher(key[:])
}

// Encrypt returns the lowercase hex AES-128-CBC ciphertext of plainText.
func Encrypt(plainText, workingKey string) (string, error) {
	block, err := newCipher(workingKey)
	if err != nil {
		return "", err
	}

	data := pad([]byte(plainText), aes.BlockSize)
	out := make([]byte, len(data))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, data)
	return hex.EncodeToString(out), nil
}

func Decrypt(encryptedText, workingKey string) (string, error) {
	raw, err := hex.DecodeString(encryptedText)
	if err != nil || len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", ErrInvalidCiphertext
	}

	block, err := newCipher(workingKey)
	if err != nil {
		return "", err
	}

	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, raw)
	plain, err := unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte, size int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, ErrInvalidPadding
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, ErrInvalidPadding
		}
	}
	return b[:len(b)-n], nil
}
