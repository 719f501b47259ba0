package service

import (
	"encoding/base64"
	"strconv"
	"strings"

	perr "ringroster/internal/platform/errors"
)

const cursorPrefix = "o:"

// EncodeCursor makes the opaque cursor for an offset
func EncodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

// DecodeCursor returns the offset in c; the empty cursor is offset zero
func DecodeCursor(c string) (int, error) {
	if c == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(c, "="))
	if err != nil {
		return 0, badCursor()
	}
	s, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, badCursor()
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, badCursor()
	}
	return n, nil
}

func badCursor() error {
	return perr.WithField(perr.InvalidArgf("cursor is not valid"), "cursor")
}
