package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPageSize bounds how many resources one list call returns.
const DefaultPageSize = 32

// ParseCursor decodes an opaque list cursor into a start offset. An
// empty cursor means the beginning; anything unparseable is an invalid
// argument from the client.
func ParseCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, ok := strings.CutPrefix(cursor, "offset:")
	if !ok {
		return 0, fmt.Errorf("malformed cursor: %q", cursor)
	}
	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("malformed cursor: %q", cursor)
	}
	return offset, nil
}

// NextCursor returns the cursor for the page after [offset,
// offset+pageSize), or "" when that page already reached the end.
func NextCursor(offset, pageSize, total int) string {
	next := offset + pageSize
	if next >= total {
		return ""
	}
	return "offset:" + strconv.Itoa(next)
}
