package ftpaudit

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// Option is a functional option for configuring a Session.
type Option func(*Session) error

// WithTimeout bounds the initial connect and every subsequent read/write
// on the control and data connections.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Session) error {
		s.timeout = timeout
		return nil
	}
}

// WithLogger enables debug logging of every command and reply.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	}))
//	sess, _ := ftpaudit.Dial("192.0.2.10:21", ftpaudit.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) error {
		s.logger = logger
		return nil
	}
}

// WithDialer sets a custom net.Dialer for the control and data
// connections. Useful for pinning a source address. The dialer's Timeout
// is kept as given; only a zero Timeout is replaced with the session
// timeout.
func WithDialer(dialer *net.Dialer) Option {
	return func(s *Session) error {
		s.dialer = dialer
		return nil
	}
}

// WithExplicitTLS enables explicit FTPS (AUTH TLS on the standard port).
// The tls.Config should carry the ServerName for certificate validation;
// a session cache is added when missing so data connections can resume
// the control connection's TLS session.
func WithExplicitTLS(config *tls.Config) Option {
	return func(s *Session) error {
		if s.tlsMode == tlsModeImplicit {
			return fmt.Errorf("explicit TLS cannot be combined with implicit TLS")
		}
		if config == nil {
			config = &tls.Config{}
		}
		if config.ClientSessionCache == nil {
			config.ClientSessionCache = tls.NewLRUClientSessionCache(0)
		}
		s.tlsConfig = config
		s.tlsMode = tlsModeExplicit
		return nil
	}
}

// WithImplicitTLS enables implicit FTPS (TLS from the first byte,
// typically port 990).
func WithImplicitTLS(config *tls.Config) Option {
	return func(s *Session) error {
		if s.tlsMode == tlsModeExplicit {
			return fmt.Errorf("implicit TLS cannot be combined with explicit TLS")
		}
		if config == nil {
			config = &tls.Config{}
		}
		if config.ClientSessionCache == nil {
			config.ClientSessionCache = tls.NewLRUClientSessionCache(0)
		}
		s.tlsConfig = config
		s.tlsMode = tlsModeImplicit
		return nil
	}
}

// WithDisableEPSV forces PASV for data connections. Some servers advertise
// EPSV but handle it badly.
func WithDisableEPSV() Option {
	return func(s *Session) error {
		s.disableEPSV = true
		return nil
	}
}

// tlsMode selects how (and whether) the control connection is secured.
type tlsMode int

const (
	tlsModeNone tlsMode = iota
	tlsModeExplicit
	tlsModeImplicit
)
