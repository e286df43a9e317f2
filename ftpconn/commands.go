package ftpconn

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gonzalop/ftpsync/internal/ratelimit"
)

// List returns the raw lines of a LIST of path. An empty path lists the
// current directory. Lines are decoded from the server charset but
// otherwise left exactly as the server sent them; blank lines are dropped.
// Lines longer than maxListLine are dropped with a warning.
func (c *Client) List(path string) ([]string, error) {
	if err := c.Type("A"); err != nil {
		return nil, err
	}

	var args []string
	if path != "" {
		args = append(args, path)
	}

	dataConn, err := c.cmdDataConn("LIST", args...)
	if err != nil {
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(dataConn)
	scanner.Buffer(make([]byte, 0, 4096), 2*maxListLine)
	scanner.Split(splitListLines(maxListLine, func() {
		c.logger.Warn("dropping overlong listing line", "path", path, "limit", maxListLine)
	}))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		lines = append(lines, c.decode(line))
	}
	scanErr := scanner.Err()

	if err := c.finishDataConn(dataConn); err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, fmt.Errorf("failed to read listing: %w", scanErr)
	}

	return lines, nil
}

// maxListLine bounds a single LIST line. No real entry comes close.
const maxListLine = 64 * 1024

// splitListLines is bufio.ScanLines with a length cap: a line reaching limit
// bytes or more is discarded up to its end and dropped is called once for
// it.
func splitListLines(limit int, dropped func()) bufio.SplitFunc {
	skipping := false
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			if !skipping && i < limit {
				return i + 1, data[:i], nil
			}
			if !skipping {
				dropped()
			}
			skipping = false
			return i + 1, nil, nil
		}
		if len(data) >= limit {
			if !skipping {
				skipping = true
				dropped()
			}
			return len(data), nil, nil
		}
		if atEOF && len(data) > 0 {
			if skipping {
				return len(data), nil, nil
			}
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}

// ChangeDir changes the current working directory.
func (c *Client) ChangeDir(path string) error {
	_, err := c.expect2xx("CWD", path)
	return err
}

// CurrentDir returns the current working directory.
func (c *Client) CurrentDir() (string, error) {
	resp, err := c.expectCode(257, "PWD")
	if err != nil {
		return "", err
	}

	// 257 "/path" is the current directory
	start := strings.Index(resp.Message, "\"")
	if start == -1 {
		return "", fmt.Errorf("invalid PWD response: %s", resp.Message)
	}
	end := strings.LastIndex(resp.Message, "\"")
	if end <= start {
		return "", fmt.Errorf("invalid PWD response: %s", resp.Message)
	}

	// Embedded quotes are doubled
	return strings.ReplaceAll(resp.Message[start+1:end], `""`, `"`), nil
}

// Size returns the size of a remote file in bytes.
// Servers answer 550 for directories, which surfaces as a *ProtocolError.
func (c *Client) Size(path string) (int64, error) {
	// SIZE is only well defined in binary mode
	if err := c.Type("I"); err != nil {
		return 0, err
	}

	resp, err := c.expectCode(213, "SIZE", path)
	if err != nil {
		return 0, err
	}

	size, err := strconv.ParseInt(strings.TrimSpace(resp.Message), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid SIZE response: %s", resp.Message)
	}

	return size, nil
}

// Retrieve downloads a remote file in binary mode and writes it to w.
// A bandwidth limit set with WithBandwidthLimit applies.
func (c *Client) Retrieve(path string, w io.Writer) error {
	if err := c.Type("I"); err != nil {
		return err
	}

	dataConn, err := c.cmdDataConn("RETR", path)
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(w, ratelimit.NewReader(dataConn, c.limiter))

	if err := c.finishDataConn(dataConn); err != nil {
		return err
	}
	if copyErr != nil {
		return fmt.Errorf("transfer failed: %w", copyErr)
	}

	return nil
}
