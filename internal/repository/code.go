package repository

import (
	"crypto/rand"
	"fmt"
)

const (
	DefaultCodeLength = 6

	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_-"
)

type CodeGenerator interface {
	Generate() (string, error)
}

type randomCode struct {
	length int
}

// NewCodeGenerator - returns a generator of url-safe random codes of the given length.
func NewCodeGenerator(length int) CodeGenerator {
	if length <= 0 {
		length = DefaultCodeLength
	}
	return &randomCode{length: length}
}

func (that *randomCode) Generate() (string, error) {
	buf := make([]byte, that.length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	// 64 symbols, so the low six bits pick one uniformly
	for i, b := range buf {
		buf[i] = codeAlphabet[b&63]
	}

	return string(buf), nil
}
