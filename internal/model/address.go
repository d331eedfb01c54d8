package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// NoneProvided is rendered wherever an address or contact cannot be decoded.
const NoneProvided = "None Provided"

// AddressKind tags the shape an address was stored in.
type AddressKind int

const (
	// AddressAbsent means nothing usable was stored.
	AddressAbsent AddressKind = iota
	// AddressStructured means a JSON object, stored natively or JSON-encoded
	// inside a string.
	AddressStructured
	// AddressLegacy means a free-form text address.
	AddressLegacy
)

// addressFieldOrder is the rendering order for well-known keys; any other keys
// follow alphabetically.
var addressFieldOrder = []string{
	"label", "line1", "street", "line2", "building", "apartment", "villa",
	"area", "district", "city", "emirate", "state", "postalCode", "country",
}

// Address is the decoded form of a user's semi-structured address column.
type Address struct {
	Kind   AddressKind
	Fields map[string]string
	Text   string
}

// DecodeAddress never fails: anything it cannot interpret is AddressAbsent.
func DecodeAddress(raw json.RawMessage) Address {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Address{}
	}

	switch trimmed[0] {
	case '{':
		return decodeAddressObject(trimmed)
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Address{}
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return Address{}
		}
		if strings.HasPrefix(s, "{") {
			if addr := decodeAddressObject([]byte(s)); addr.Kind == AddressStructured {
				return addr
			}
		}
		return Address{Kind: AddressLegacy, Text: s}
	default:
		return Address{}
	}
}

func decodeAddressObject(data []byte) Address {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return Address{}
	}
	fields := make(map[string]string, len(obj))
	for k, v := range obj {
		var s string
		switch val := v.(type) {
		case nil:
			continue
		case string:
			s = strings.TrimSpace(val)
		case float64, bool:
			s = fmt.Sprint(val)
		default:
			continue
		}
		if s != "" {
			fields[k] = s
		}
	}
	if len(fields) == 0 {
		return Address{}
	}
	return Address{Kind: AddressStructured, Fields: fields}
}

// IsEmpty reports whether the address cannot be used for delivery.
func (a Address) IsEmpty() bool {
	return a.Kind == AddressAbsent
}

// String renders the address on a single line, or NoneProvided.
func (a Address) String() string {
	switch a.Kind {
	case AddressLegacy:
		return a.Text
	case AddressStructured:
		parts := make([]string, 0, len(a.Fields))
		seen := make(map[string]bool, len(addressFieldOrder))
		for _, key := range addressFieldOrder {
			seen[key] = true
			if v, ok := a.Fields[key]; ok {
				parts = append(parts, v)
			}
		}
		rest := make([]string, 0)
		for key := range a.Fields {
			if !seen[key] {
				rest = append(rest, key)
			}
		}
		sort.Strings(rest)
		for _, key := range rest {
			parts = append(parts, a.Fields[key])
		}
		return strings.Join(parts, ", ")
	default:
		return NoneProvided
	}
}
