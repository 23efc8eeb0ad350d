package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// nonceSize is the AES-GCM nonce length in bytes.
const nonceSize = 12

// maxPlaintext bounds the serialized payload size so a hostile client
// cannot make the server buffer arbitrary amounts of data.
const maxPlaintext = 1 << 20

var (
	// ErrDecryption is returned for every failure while opening an
	// envelope: bad base64, wrong nonce length, tampered ciphertext or a
	// mismatched key.  Callers get one opaque error so the failure mode
	// cannot be probed from outside.
	ErrDecryption = errors.New("crypto: envelope decryption failed")

	// ErrPayloadTooLarge is returned by Seal when the serialized payload
	// exceeds maxPlaintext.
	ErrPayloadTooLarge = errors.New("crypto: payload exceeds size limit")
)

// Envelope is the wire form of one encrypted JSON value.  Both fields are
// base64 encoded.  An envelope is ephemeral: it is built per request or
// response and never stored.
type Envelope struct {
	Ciphertext string `json:"ciphertext"`
	Nonce      string `json:"nonce"`
}

// Seal serializes v to JSON and encrypts it with AES-256-GCM under key.
// A fresh random nonce is generated on every call; reusing a nonce under
// the same key breaks GCM confidentiality, so the nonce is never derived
// from the payload or a counter.
func Seal(v any, key []byte) (Envelope, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, fmt.Errorf("seal: marshal: %w", err)
	}
	if len(plaintext) > maxPlaintext {
		return Envelope{}, ErrPayloadTooLarge
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return Envelope{}, fmt.Errorf("seal: nonce: %w", err)
	}

	aead, err := newAEAD(key)
	if err != nil {
		return Envelope{}, err
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	return Envelope{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// Open decrypts env with key and unmarshals the plaintext JSON into v.
// Any authentication or shape failure yields ErrDecryption; a partially
// garbled result is never produced.
func Open(env Envelope, key []byte, v any) error {
	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return ErrDecryption
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil || len(nonce) != nonceSize {
		return ErrDecryption
	}

	aead, err := newAEAD(key)
	if err != nil {
		return err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return ErrDecryption
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return ErrDecryption
	}
	return nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aead: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aead: %w", err)
	}
	return aead, nil
}
