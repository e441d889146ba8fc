package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Empty encodings for JSON columns.
const (
	EmptyJSONMap  = "{}"
	EmptyJSONList = "[]"
)

// DecodeMap parses a JSON object column. Empty text decodes to an empty map.
// Text that is not a JSON object returns an error wrapping ErrDecode.
func DecodeMap(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if m == nil {
		// JSON null is not an object.
		return nil, fmt.Errorf("%w: expected object, got null", ErrDecode)
	}
	return m, nil
}

// EncodeMap serializes m for a JSON object column. A nil map encodes as "{}".
// The encoding is rejected with ErrInvalidJSON unless decoding it and
// encoding again yields the same text, so values that cannot survive a round
// trip (integers beyond float64 precision, for example) are never stored.
func EncodeMap(m map[string]any) (string, error) {
	if m == nil {
		return EmptyJSONMap, nil
	}
	return encodeRoundTrip(m, func() any { return &map[string]any{} })
}

// DecodeList parses a JSON array of objects, as used by relationship history.
func DecodeList(raw string) ([]map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return []map[string]any{}, nil
	}
	var l []map[string]any
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if l == nil {
		l = []map[string]any{}
	}
	return l, nil
}

// EncodeList serializes a list of objects with the same round-trip rule as
// EncodeMap. A nil list encodes as "[]".
func EncodeList(l []map[string]any) (string, error) {
	if l == nil {
		return EmptyJSONList, nil
	}
	return encodeRoundTrip(l, func() any { return &[]map[string]any{} })
}

// NormalizeMap validates raw text headed for a JSON object column. Empty
// text becomes "{}". Text that does not decode to an object, repeats a key
// within one object, or holds a number that float64 cannot represent
// returns an error wrapping ErrInvalidJSON.
func NormalizeMap(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return EmptyJSONMap, nil
	}
	if _, err := DecodeMap(raw); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if err := checkLossless(raw); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return raw, nil
}

// NormalizeList is NormalizeMap for JSON array columns.
func NormalizeList(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return EmptyJSONList, nil
	}
	if _, err := DecodeList(raw); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if err := checkLossless(raw); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return raw, nil
}

// checkLossless reports text that decodes without error but loses data on
// the way: a key repeated within one object keeps only its last value, and
// a number is read as the nearest float64. raw must already be valid JSON.
func checkLossless(raw string) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	return walkLossless(dec)
}

func walkLossless(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			seen := map[string]bool{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return err
				}
				key, ok := keyTok.(string)
				if !ok {
					return errors.New("object key is not a string")
				}
				if seen[key] {
					return fmt.Errorf("duplicate key %q", key)
				}
				seen[key] = true
				if err := walkLossless(dec); err != nil {
					return err
				}
			}
		case '[':
			for dec.More() {
				if err := walkLossless(dec); err != nil {
					return err
				}
			}
		}
		// Closing delimiter.
		_, err := dec.Token()
		return err
	case json.Number:
		return checkNumber(string(t))
	}
	return nil
}

// checkNumber accepts a number literal whose value equals the shortest
// decimal form of the float64 it decodes to, so 0.1 and 1.0 pass and
// 12345678901234567891 fails.
func checkNumber(lit string) error {
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return fmt.Errorf("number %s does not fit float64", lit)
	}
	want, ok := new(big.Rat).SetString(lit)
	if !ok {
		return fmt.Errorf("number %s is malformed", lit)
	}
	got, _ := new(big.Rat).SetString(strconv.FormatFloat(f, 'g', -1, 64))
	if got == nil || want.Cmp(got) != 0 {
		return fmt.Errorf("number %s loses precision as float64", lit)
	}
	return nil
}

func marshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func encodeRoundTrip(v any, fresh func() any) (string, error) {
	first, err := marshalCompact(v)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	back := fresh()
	if err := json.Unmarshal(first, back); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	second, err := marshalCompact(back)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if !bytes.Equal(first, second) {
		return "", fmt.Errorf("%w: value does not survive a JSON round trip", ErrInvalidJSON)
	}
	return string(first), nil
}
