// Package record defines the string record shared by every stage of the
// pipeline, along with its deduplication and ordering rules.
package record

import (
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// SizeUnknown is used when the source command does not report a size.
const SizeUnknown = "N/A"

// Record types. Records from the plain listing commands carry no type.
const (
	TypeClass       = "class"
	TypeStringTable = "string_table"
)

// Record is one string reported by radare2 for a DEX file.
type Record struct {
	HexID   string `json:"hex_id"`
	Size    string `json:"size"`
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

// Key identifies duplicate records.
type Key struct {
	HexID   string
	Content string
}

// Key returns the deduplication key of r. Size and Type do not take part.
func (r Record) Key() Key {
	return Key{HexID: r.HexID, Content: r.Content}
}

// Address returns the numeric value of HexID. ok is false when HexID is not
// a well-formed 0x-prefixed hexadecimal number, in which case the value is 0.
func (r Record) Address() (addr uint64, ok bool) {
	return ParseAddress(r.HexID)
}

// ParseAddress parses a 0x-prefixed hexadecimal address.
func ParseAddress(s string) (uint64, bool) {
	if !strings.HasPrefix(s, "0x") {
		return 0, false
	}
	v, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// WellFormedAddress reports whether s is a 0x-prefixed hexadecimal number
// of any width.
func WellFormedAddress(s string) bool {
	_, ok := wideAddress(s)
	return ok
}

// wideAddress parses s without a width limit.
func wideAddress(s string) (*big.Int, bool) {
	digits, found := strings.CutPrefix(s, "0x")
	if !found || digits == "" || digits[0] == '+' || digits[0] == '-' {
		return nil, false
	}
	return new(big.Int).SetString(digits, 16)
}

// compareAddresses orders two HexIDs numerically. Malformed values count
// as 0.
func compareAddresses(a, b string) int {
	av, aok := ParseAddress(a)
	bv, bok := ParseAddress(b)
	if aok && bok {
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	}

	zero := new(big.Int)
	aw, ok := wideAddress(a)
	if !ok {
		aw = zero
	}
	bw, ok := wideAddress(b)
	if !ok {
		bw = zero
	}
	return aw.Cmp(bw)
}

// FormatAddress renders an address the way radare2 prints it in listings.
func FormatAddress(v int64) string {
	if v < 0 {
		return "-0x" + strconv.FormatUint(uint64(-v), 16)
	}
	return "0x" + strconv.FormatUint(uint64(v), 16)
}

// Dedupe returns the records with duplicate keys removed. The first
// occurrence of each key is kept and relative order is preserved.
func Dedupe(records []Record) []Record {
	seen := make(map[Key]struct{}, len(records))
	unique := make([]Record, 0, len(records))
	for _, r := range records {
		k := r.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}

// Sort orders records in place by ascending address. Malformed addresses
// sort as 0; ties keep their relative order.
func Sort(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return compareAddresses(a.HexID, b.HexID)
	})
}

// Normalize dedupes and sorts records, returning a new slice.
func Normalize(records []Record) []Record {
	out := Dedupe(records)
	Sort(out)
	return out
}
