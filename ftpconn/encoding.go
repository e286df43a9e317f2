package ftpconn

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// lookupEncoding maps a charset name to an encoding. UTF-8 and ASCII map
// to nil, which means no conversion.
func lookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "utf-8", "utf8", "ascii", "us-ascii":
		return nil, nil
	case "ebcdic", "ebcdic-us", "cp037":
		return charmap.CodePage037, nil
	case "ebcdic-1047", "cp1047":
		return charmap.CodePage1047, nil
	case "ebcdic-1140", "cp1140":
		return charmap.CodePage1140, nil
	case "big5", "big-5", "cp950", "windows-950":
		return traditionalchinese.Big5, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	return enc, nil
}

// encode converts s from UTF-8 to the server charset.
func (c *Client) encode(s string) (string, error) {
	if c.charset == nil {
		return s, nil
	}
	out, _, err := transform.String(c.charset.NewEncoder(), s)
	if err != nil {
		return "", fmt.Errorf("%q: %w", s, err)
	}
	return out, nil
}

// decode converts s from the server charset to UTF-8. Bytes that cannot be
// decoded become U+FFFD.
func (c *Client) decode(s string) string {
	if c.charset == nil {
		return s
	}
	out, _, err := transform.String(c.charset.NewDecoder(), s)
	if err != nil {
		return s
	}
	return out
}
