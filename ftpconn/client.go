package ftpconn

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/gonzalop/ftpsync/internal/ratelimit"
	"golang.org/x/text/encoding"
)

// Client is an FTP control connection.
//
// A Client carries one command at a time and is not safe for concurrent
// use. Open one Client per goroutine when parallel transfers are needed.
type Client struct {
	// conn is the underlying network connection (control channel)
	conn net.Conn

	// reader is a buffered reader for the control channel
	reader *bufio.Reader

	// tlsConfig is the TLS configuration (if TLS is enabled)
	tlsConfig *tls.Config

	// tlsMode indicates whether TLS is disabled, explicit, or implicit
	tlsMode tlsMode

	// timeout applies to the connection and every read/write
	timeout time.Duration

	logger *slog.Logger
	dialer *net.Dialer

	host string
	port string

	// disableEPSV is set by option or after the server answered 502
	disableEPSV bool

	// charset is the server's file name encoding; nil means UTF-8
	charset encoding.Encoding

	// limiter throttles downloads; nil means unlimited
	limiter *ratelimit.Limiter

	// currentType tracks the current transfer type to avoid redundant TYPE commands
	currentType string

	closed bool
}

// Dial connects to an FTP server at the given address.
// The address should be in the form "host:port".
//
// Example:
//
//	client, err := ftpconn.Dial("ftp.example.com:21")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Quit()
//
// Example with Explicit TLS:
//
//	client, err := ftpconn.Dial("ftp.example.com:21",
//	    ftpconn.WithExplicitTLS(&tls.Config{ServerName: "ftp.example.com"}),
//	)
func Dial(addr string, options ...Option) (*Client, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	c := &Client{
		host:    host,
		port:    port,
		timeout: 30 * time.Second,
		tlsMode: tlsModeNone,
		dialer:  &net.Dialer{},
		logger:  slog.New(slog.DiscardHandler),
	}

	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	c.dialer.Timeout = c.timeout

	if err := c.connect(); err != nil {
		return nil, err
	}

	return c, nil
}

// Connect connects to an FTP server using a URL, logs in and changes to
// the URL path if there is one.
// Supported schemes: "ftp", "ftps" (implicit), "ftp+explicit" (explicit TLS).
// Format: scheme://[user:password@]host[:port][/path]
//
// Without user info the login is anonymous. Options are applied after the
// ones derived from the scheme.
func Connect(urlStr string, options ...Option) (*Client, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	addr, schemeOpts, err := AddrFromURL(u)
	if err != nil {
		return nil, err
	}

	c, err := Dial(addr, append(schemeOpts, options...)...)
	if err != nil {
		return nil, err
	}

	user := u.User.Username()
	pass, hasPass := u.User.Password()
	if user == "" {
		user = "anonymous"
		pass = "anonymous@"
	} else if !hasPass {
		pass = ""
	}

	if err := c.Login(user, pass); err != nil {
		_ = c.Quit()
		return nil, fmt.Errorf("login failed: %w", err)
	}

	if u.Path != "" && u.Path != "/" {
		if err := c.ChangeDir(u.Path); err != nil {
			_ = c.Quit()
			return nil, fmt.Errorf("failed to change directory: %w", err)
		}
	}

	return c, nil
}

// AddrFromURL returns the "host:port" address of an ftp, ftps or
// ftp+explicit URL, with the TLS option its scheme implies.
func AddrFromURL(u *url.URL) (string, []Option, error) {
	host := u.Hostname()
	port := u.Port()
	var options []Option

	switch strings.ToLower(u.Scheme) {
	case "ftp":
		if port == "" {
			port = "21"
		}
	case "ftps":
		if port == "" {
			port = "990"
		}
		options = append(options, WithImplicitTLS(&tls.Config{ServerName: host}))
	case "ftp+explicit":
		if port == "" {
			port = "21"
		}
		options = append(options, WithExplicitTLS(&tls.Config{ServerName: host}))
	default:
		return "", nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	if host == "" {
		return "", nil, fmt.Errorf("missing host in URL")
	}
	return net.JoinHostPort(host, port), options, nil
}

// connect establishes the control connection and handles the initial handshake.
func (c *Client) connect() error {
	addr := net.JoinHostPort(c.host, c.port)
	c.logger.Debug("connecting to ftp server", "addr", addr, "tls_mode", c.tlsMode)

	conn, err := c.dialer.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	c.conn = conn

	if c.tlsMode == tlsModeImplicit {
		if err := c.handshake("implicit"); err != nil {
			conn.Close()
			return err
		}
	}

	c.reader = bufio.NewReader(c.conn)

	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			c.conn.Close()
			return fmt.Errorf("failed to set read deadline: %w", err)
		}
	}

	resp, err := readResponse(c.reader)
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("failed to read greeting: %w", err)
	}
	c.logger.Debug("ftp greeting", "code", resp.Code, "message", resp.Message)

	if resp.Code != 220 {
		c.conn.Close()
		return &ProtocolError{
			Command:  "CONNECT",
			Response: resp.Message,
			Code:     resp.Code,
		}
	}

	if c.tlsMode == tlsModeExplicit {
		if err := c.upgradeToTLS(); err != nil {
			c.conn.Close()
			return err
		}
	}

	return nil
}

// handshake wraps the control connection in TLS.
func (c *Client) handshake(mode string) error {
	c.logger.Debug("starting TLS handshake", "mode", mode)
	tlsConn := tls.Client(c.conn, c.tlsConfig)

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return fmt.Errorf("failed to set deadline: %w", err)
		}
	}

	if err := tlsConn.Handshake(); err != nil {
		return fmt.Errorf("TLS handshake failed: %w", err)
	}
	c.logger.Debug("TLS handshake complete", "mode", mode)

	c.conn = tlsConn
	return nil
}

// upgradeToTLS upgrades the connection to TLS using AUTH TLS.
func (c *Client) upgradeToTLS() error {
	if _, err := c.expectCode(234, "AUTH", "TLS"); err != nil {
		return fmt.Errorf("AUTH TLS failed: %w", err)
	}

	if err := c.handshake("explicit"); err != nil {
		return err
	}
	c.reader = bufio.NewReader(c.conn)

	// Protect the data channel as well
	if _, err := c.expectCode(200, "PBSZ", "0"); err != nil {
		return fmt.Errorf("PBSZ failed: %w", err)
	}
	if _, err := c.expectCode(200, "PROT", "P"); err != nil {
		return fmt.Errorf("PROT failed: %w", err)
	}

	return nil
}

// Login authenticates with the FTP server using the provided username and password.
func (c *Client) Login(username, password string) error {
	resp, err := c.sendCommand("USER", username)
	if err != nil {
		return err
	}

	// 230: no password required
	if resp.Code == 230 {
		return nil
	}

	if resp.Code != 331 {
		return &ProtocolError{
			Command:  "USER",
			Response: resp.Message,
			Code:     resp.Code,
		}
	}

	if _, err := c.expectCode(230, "PASS", password); err != nil {
		return err
	}

	return nil
}

// Type sets the transfer type (e.g., "A", "I").
func (c *Client) Type(transferType string) error {
	if c.currentType == transferType {
		return nil
	}

	if _, err := c.expectCode(200, "TYPE", transferType); err != nil {
		return err
	}

	c.currentType = transferType
	return nil
}

// Noop sends a NOOP command to the server.
func (c *Client) Noop() error {
	_, err := c.expect2xx("NOOP")
	return err
}

// Quit sends QUIT and closes the connection. The connection is closed even
// when the server does not acknowledge QUIT; the error is still returned.
func (c *Client) Quit() error {
	if c.conn == nil || c.closed {
		return nil
	}

	_, quitErr := c.expect2xx("QUIT")
	closeErr := c.Close()

	if quitErr != nil {
		return quitErr
	}
	return closeErr
}

// Close closes the control connection without sending QUIT.
// Calling Close more than once is a no-op.
func (c *Client) Close() error {
	if c.conn == nil || c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
