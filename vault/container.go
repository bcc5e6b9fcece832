package vault

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/jmcleod/confidant/internal/uuid"
)

// separator delimits the header from the archive ciphertext. The header is
// Base64 text and can never contain 0xFF.
var separator = bytes.Repeat([]byte{0xFF}, 16)

// encodeContainer builds Base64(JSON(cfg)) || separator || payload.
func encodeContainer(cfg *Config, payload []byte) ([]byte, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling container header: %w", err)
	}
	header := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(header, raw)

	out := make([]byte, 0, len(header)+len(separator)+len(payload))
	out = append(out, header...)
	out = append(out, separator...)
	out = append(out, payload...)
	return out, nil
}

// splitContainer parses the header and returns it with the payload region.
// The first separator occurrence delimits the two.
func splitContainer(data []byte) (*Config, []byte, error) {
	idx := bytes.Index(data, separator)
	if idx < 0 {
		return nil, nil, fmt.Errorf("container separator not found")
	}
	header := data[:idx]
	payload := data[idx+len(separator):]

	raw := make([]byte, base64.StdEncoding.DecodedLen(len(header)))
	n, err := base64.StdEncoding.Decode(raw, header)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding container header: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(raw[:n], &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing container header: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}
	return &cfg, payload, nil
}

// spliceContainer replaces the payload region and keeps the header bytes
// untouched.
func spliceContainer(data, payload []byte) ([]byte, error) {
	idx := bytes.Index(data, separator)
	if idx < 0 {
		return nil, fmt.Errorf("container separator not found")
	}
	end := idx + len(separator)
	out := make([]byte, 0, end+len(payload))
	out = append(out, data[:end]...)
	out = append(out, payload...)
	return out, nil
}

func (c *Config) validate() error {
	switch {
	case c.Ver != configVersion:
		return fmt.Errorf("unsupported container version %d", c.Ver)
	case !uuid.Valid(c.InstanceID):
		return fmt.Errorf("container header has an invalid instance ID")
	case len(c.ContainerPublicKey) != 32:
		return fmt.Errorf("container public key has %d bytes", len(c.ContainerPublicKey))
	case len(c.ConfSalt) == 0:
		return fmt.Errorf("container header has no confsalt")
	case c.KeyStore == nil || c.RecoveryStore == nil:
		return fmt.Errorf("container header is missing a wrapped auth secret")
	case c.PhraseStore == nil || c.RecPhraseStore == nil:
		return fmt.Errorf("container header is missing a canary")
	}
	return nil
}
