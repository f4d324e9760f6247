package service

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/ezloteam/cote/domain"
)

// Key derivation parameters of the shared-key cipher. Every peer of a network must use the same values.
const (
	keySalt       = "node-discover"
	keyIterations = 4096
	keySize       = 32
)

// ErrEmptyPayload is returned by Codec.Decode for a zero-length payload: the sender has departed.
var ErrEmptyPayload = errors.New("empty payload")

// Codec turns envelopes into wire payloads: JSON text, optionally AES-256-CBC encrypted with a random IV prefix.
// The cipher carries no authentication tag; tampered or foreign-keyed payloads fail as decode errors.
type Codec struct {
	block cipher.Block
}

// NewCodec creates a codec. An empty key selects plain JSON.
func NewCodec(key string) *Codec {
	c := &Codec{}
	if key == "" {
		return c
	}
	derived := pbkdf2.Key([]byte(key), []byte(keySalt), keyIterations, keySize, sha256.New)
	block, err := aes.NewCipher(derived)
	if err != nil {
		// 32 byte keys are always valid for AES-256.
		panic(fmt.Sprintf("service.codec.go: %v", err))
	}
	c.block = block
	return c
}

// Keyed reports whether payloads are encrypted.
func (c *Codec) Keyed() bool {
	return c.block != nil
}

// Encode serializes env and encrypts it when a key is configured.
func (c *Codec) Encode(env domain.Envelope) ([]byte, error) {
	plain, err := json.Marshal(env)
	if err != nil {
		return nil, NewBadParameterError("cannot serialize envelope", err)
	}
	if c.block == nil {
		return plain, nil
	}

	bs := c.block.BlockSize()
	padded := pkcs7Pad(plain, bs)
	out := make([]byte, bs+len(padded))
	iv := out[:bs]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, NewInternalServerError("cannot generate iv", err)
	}
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out[bs:], padded)
	return out, nil
}

// Decode reverses Encode. A zero-length payload yields ErrEmptyPayload; anything that does not decrypt
// or parse into an envelope yields a decode_error.
func (c *Codec) Decode(payload []byte) (domain.Envelope, error) {
	var env domain.Envelope
	if len(payload) == 0 {
		return env, ErrEmptyPayload
	}

	plain := payload
	if c.block != nil {
		bs := c.block.BlockSize()
		if len(payload) < 2*bs || len(payload)%bs != 0 {
			return env, NewDecodeError("ciphertext has invalid length", nil)
		}
		buf := make([]byte, len(payload)-bs)
		cipher.NewCBCDecrypter(c.block, payload[:bs]).CryptBlocks(buf, payload[bs:])
		var ok bool
		if plain, ok = pkcs7Unpad(buf, bs); !ok {
			return env, NewDecodeError("invalid padding", nil)
		}
	}

	if err := json.Unmarshal(plain, &env); err != nil {
		return domain.Envelope{}, NewDecodeError("malformed envelope", err)
	}
	if env.Event == "" && env.IID == "" {
		return domain.Envelope{}, NewDecodeError("envelope without event and iid", nil)
	}
	return env, nil
}

func pkcs7Pad(b []byte, bs int) []byte {
	n := bs - len(b)%bs
	return append(append(make([]byte, 0, len(b)+n), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, bs int) ([]byte, bool) {
	if len(b) == 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > bs || n > len(b) {
		return nil, false
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
