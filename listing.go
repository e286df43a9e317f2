package ftpsync

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ListingParser turns one raw LIST line into an Entry.
//
// Parsers return an error wrapping ErrListingParse for lines they do not
// understand. A custom parser can be installed with WithListingParser for
// servers whose listing format differs from Unix "ls -l".
type ListingParser interface {
	Parse(line string) (Entry, error)
}

// UnixParser parses Unix-style listing lines:
//
//	-rw-r--r--   1 ftp      ftp      11134012 Mar 01  2018 ipg150519.tar.gz
//
// The fifth field is the size, the last field is the name and everything in
// between is kept verbatim (single-spaced) as the modification date. Names
// containing spaces are therefore not supported, and lines that are not
// valid UTF-8 are rejected.
type UnixParser struct{}

// minUnixFields is perms, links, owner, group, size and name.
const minUnixFields = 6

// Parse implements ListingParser.
func (p *UnixParser) Parse(line string) (Entry, error) {
	fields := strings.Fields(line)
	if len(fields) < minUnixFields {
		return Entry{}, fmt.Errorf("%w: %d fields, want at least %d: %q",
			ErrListingParse, len(fields), minUnixFields, line)
	}

	// The ledger stores names as JSON strings, which cannot carry raw
	// non-UTF-8 bytes. Such lines need a server encoding (ftpconn.WithEncoding).
	if !utf8.ValidString(line) {
		return Entry{}, fmt.Errorf("%w: not valid UTF-8: %q", ErrListingParse, line)
	}

	size, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil || size < 0 {
		return Entry{}, fmt.Errorf("%w: invalid size %q: %q", ErrListingParse, fields[4], line)
	}

	last := len(fields) - 1
	return Entry{
		Name:         fields[last],
		Size:         size,
		ModifiedDate: strings.Join(fields[5:last], " "),
	}, nil
}

// ParseListLine parses a single line with the default UnixParser.
func ParseListLine(line string) (Entry, error) {
	var p UnixParser
	return p.Parse(line)
}

// ParseListing parses raw listing lines in order.
//
// Lines the parser rejects are skipped and logged at warn level; they never
// abort the listing. Servers routinely emit lines such as "total 24" that
// carry no entry. Blank lines are dropped silently. A nil parser means
// UnixParser and a nil logger disables logging.
func ParseListing(lines []string, parser ListingParser, logger *slog.Logger) []Entry {
	if parser == nil {
		parser = &UnixParser{}
	}

	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := parser.Parse(line)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping unparseable listing line", "raw", line, "error", err)
			}
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
