// Package codec turns a quiz configuration into a token that fits in a single query
// value, and back.
//
// A token is the canonical JSON of the configuration, base64 encoded over its UTF-8
// bytes, then query-escaped. Encoding the bytes (not UTF-16 code units) is what keeps
// emoji and accented letters intact.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"gift-quiz-service/internal/domain"
)

// QueryParam is the query parameter carrying a token in share links.
const QueryParam = "data"

// ErrMalformedToken matches every *MalformedTokenError with errors.Is.
var ErrMalformedToken = errors.New("malformed token")

// Decode stages reported by MalformedTokenError.
const (
	StageUnescape = "unescape"
	StageBase64   = "base64"
	StageUTF8     = "utf8"
	StageJSON     = "json"
	StageValidate = "validate"
)

// MalformedTokenError reports which decode stage rejected a token.
type MalformedTokenError struct {
	Stage string
	Err   error
}

func (e *MalformedTokenError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed token (%s)", e.Stage)
	}
	return fmt.Sprintf("malformed token (%s): %v", e.Stage, e.Err)
}

func (e *MalformedTokenError) Unwrap() error { return e.Err }

func (e *MalformedTokenError) Is(target error) bool { return target == ErrMalformedToken }

// Marshal returns the canonical JSON text of cfg: no HTML escaping, no trailing newline.
func Marshal(cfg domain.QuizConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("marshal quiz config: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Encode serializes cfg into a URL-safe token.
func Encode(cfg domain.QuizConfig) (string, error) {
	raw, err := Marshal(cfg)
	if err != nil {
		return "", err
	}
	return url.QueryEscape(base64.StdEncoding.EncodeToString(raw)), nil
}

// Decode reverses Encode. Every failure is a *MalformedTokenError.
//
// Unescaping keeps '+' literal, so a token the HTTP layer has already unescaped
// decodes the same as the raw one.
func Decode(token string) (domain.QuizConfig, error) {
	unescaped, err := url.PathUnescape(strings.TrimSpace(token))
	if err != nil {
		return domain.QuizConfig{}, &MalformedTokenError{Stage: StageUnescape, Err: err}
	}

	raw, err := decodeBase64(unescaped)
	if err != nil {
		return domain.QuizConfig{}, &MalformedTokenError{Stage: StageBase64, Err: err}
	}
	if !utf8.Valid(raw) {
		return domain.QuizConfig{}, &MalformedTokenError{Stage: StageUTF8, Err: errors.New("payload is not valid UTF-8")}
	}

	cfg, err := Unmarshal(raw)
	if err != nil {
		var malformed *MalformedTokenError
		if errors.As(err, &malformed) {
			return domain.QuizConfig{}, malformed
		}
		return domain.QuizConfig{}, &MalformedTokenError{Stage: StageJSON, Err: err}
	}
	return cfg, nil
}

// Unmarshal parses and validates canonical JSON text, as stored under customQuizData.
func Unmarshal(raw []byte) (domain.QuizConfig, error) {
	var cfg domain.QuizConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return domain.QuizConfig{}, &MalformedTokenError{Stage: StageJSON, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return domain.QuizConfig{}, &MalformedTokenError{Stage: StageValidate, Err: err}
	}
	return cfg, nil
}

func decodeBase64(s string) ([]byte, error) {
	if strings.HasSuffix(s, "=") || len(s)%4 == 0 {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}
