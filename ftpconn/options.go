package ftpconn

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/gonzalop/ftpsync/internal/ratelimit"
)

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// tlsMode represents the TLS mode for the connection.
type tlsMode int

const (
	tlsModeNone tlsMode = iota
	tlsModeExplicit
	tlsModeImplicit
)

func (m tlsMode) String() string {
	switch m {
	case tlsModeExplicit:
		return "explicit"
	case tlsModeImplicit:
		return "implicit"
	default:
		return "none"
	}
}

// WithTimeout sets the timeout for connecting and for every read or write
// on the control and data connections. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout < 0 {
			return errors.New("timeout cannot be negative")
		}
		c.timeout = timeout
		return nil
	}
}

// WithExplicitTLS enables explicit TLS (AUTH TLS) on the standard port.
// Data connections are protected as well (PROT P).
//
// A ClientSessionCache is added to config when missing, since many servers
// require data connections to resume the control connection's TLS session.
func WithExplicitTLS(config *tls.Config) Option {
	return func(c *Client) error {
		return c.setTLS(tlsModeExplicit, config)
	}
}

// WithImplicitTLS enables implicit TLS, where the connection starts with a
// TLS handshake (usually on port 990).
func WithImplicitTLS(config *tls.Config) Option {
	return func(c *Client) error {
		return c.setTLS(tlsModeImplicit, config)
	}
}

func (c *Client) setTLS(mode tlsMode, config *tls.Config) error {
	if c.tlsMode != tlsModeNone && c.tlsMode != mode {
		return fmt.Errorf("%s TLS cannot be combined with %s TLS", mode, c.tlsMode)
	}
	if config == nil {
		config = &tls.Config{}
	}
	if config.ClientSessionCache == nil {
		config.ClientSessionCache = tls.NewLRUClientSessionCache(0)
	}
	c.tlsConfig = config
	c.tlsMode = mode
	return nil
}

// WithLogger sets the logger. Commands and replies are logged at debug
// level, with passwords masked.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithDialer sets the net.Dialer used for control and data connections.
// Its Timeout is overwritten by the client timeout.
func WithDialer(dialer *net.Dialer) Option {
	return func(c *Client) error {
		if dialer == nil {
			return errors.New("dialer cannot be nil")
		}
		c.dialer = dialer
		return nil
	}
}

// WithDisableEPSV makes the client use PASV directly. By default EPSV is
// tried first and PASV is only used when EPSV fails.
func WithDisableEPSV() Option {
	return func(c *Client) error {
		c.disableEPSV = true
		return nil
	}
}

// WithEncoding sets the charset the server uses for file names and
// replies, for example "latin1", "big5" or "cp1047". Names accepted by the
// WHATWG encoding standard work too. The default is UTF-8.
//
// Example:
//
//	client, _ := ftpconn.Dial("ftp.example.com:21",
//	    ftpconn.WithEncoding("big5"),
//	)
func WithEncoding(name string) Option {
	return func(c *Client) error {
		enc, err := lookupEncoding(name)
		if err != nil {
			return err
		}
		c.charset = enc
		return nil
	}
}

// WithBandwidthLimit caps download speed at bytesPerSecond.
// Zero or a negative value means unlimited.
func WithBandwidthLimit(bytesPerSecond int64) Option {
	return func(c *Client) error {
		c.limiter = ratelimit.New(bytesPerSecond)
		return nil
	}
}
