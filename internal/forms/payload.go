package forms

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Callback payload grammar. Every interactive prompt gets a fresh nonce, so
// clicks on buttons from an older prompt in the same chat decode as stale
// and are ignored.
//
//	qslct:<nonce>:<idx>          select an option
//	qmltslct:<nonce>:<idx>:<+|-> tick / untick an option
//	qmltslct:<nonce>:$           confirm the multi-select
const (
	selectTag      = "qslct"
	multiSelectTag = "qmltslct"
	confirmMark    = "$"
)

type clickKind int

const (
	clickNone clickKind = iota
	clickSelect
	clickTick
	clickUntick
	clickConfirm
)

type click struct {
	kind   clickKind
	option int
}

var stale = click{kind: clickNone}

const nonceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// newNonce returns a fresh random per-invocation keyboard id.
func newNonce() string {
	b := make([]byte, 16)
	for i := range b {
		b[i] = nonceAlphabet[rand.Intn(len(nonceAlphabet))]
	}
	return string(b)
}

func encodeSelect(nonce string, index int) string {
	return fmt.Sprintf("%s:%s:%d", selectTag, nonce, index)
}

func encodeToggle(nonce string, index int, selected bool) string {
	sign := "+"
	if selected {
		sign = "-"
	}
	return fmt.Sprintf("%s:%s:%d:%s", multiSelectTag, nonce, index, sign)
}

func encodeConfirm(nonce string) string {
	return fmt.Sprintf("%s:%s:%s", multiSelectTag, nonce, confirmMark)
}

// decodeSelect parses a select payload against the current nonce. Anything
// that doesn't match exactly is stale.
func decodeSelect(nonce, data string, optionCount int) click {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != selectTag || parts[1] != nonce {
		return stale
	}
	index, ok := parseIndex(parts[2], optionCount)
	if !ok {
		return stale
	}
	return click{kind: clickSelect, option: index}
}

// decodeMultiSelect parses a multi-select payload against the current nonce.
func decodeMultiSelect(nonce, data string, optionCount int) click {
	parts := strings.Split(data, ":")
	if len(parts) < 3 || parts[0] != multiSelectTag || parts[1] != nonce {
		return stale
	}
	switch len(parts) {
	case 3:
		if parts[2] == confirmMark {
			return click{kind: clickConfirm}
		}
		return stale
	case 4:
		index, ok := parseIndex(parts[2], optionCount)
		if !ok {
			return stale
		}
		switch parts[3] {
		case "+":
			return click{kind: clickTick, option: index}
		case "-":
			return click{kind: clickUntick, option: index}
		}
		return stale
	default:
		return stale
	}
}

func parseIndex(s string, count int) (int, bool) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= count {
		return 0, false
	}
	return n, true
}

// Ordinal parses a "/N" position command, as in "/2" for the second option.
func Ordinal(text string) (int, bool) {
	if !strings.HasPrefix(text, "/") {
		return 0, false
	}
	n, err := strconv.Atoi(text[1:])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
