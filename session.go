package ftpaudit

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path"
	"strings"
	"time"
)

// Remote is the command surface the audit routines drive. *Session is the
// real implementation; tests substitute scripted fakes.
//
// Every method either succeeds or fails with a ReplyError (the server
// answered and refused, stalled, or answered nonsense) or a ProtocolError
// (the conversation itself broke). See the predicates in errors.go.
type Remote interface {
	// NameList returns the entries of the current directory, self and
	// parent entries excluded. Entries may be bare names or full paths
	// depending on the server.
	NameList() ([]string, error)

	// ListLines returns the raw long-format listing lines of the current
	// directory, permission string first.
	ListLines() ([]string, error)

	// ChangeDir enters the named directory.
	ChangeDir(path string) error

	// ChangeDirUp moves back to the parent directory.
	ChangeDirUp() error

	// MakeDir creates a directory in the current directory.
	MakeDir(name string) error

	// RemoveDir removes a directory from the current directory.
	RemoveDir(name string) error

	// UploadEmpty stores a zero-byte file under the given name.
	UploadEmpty(name string) error

	// Delete removes a file from the current directory.
	Delete(name string) error
}

// Session owns one FTP control connection. It is created by Dial and torn
// down by Quit.
//
// A Session carries server-side state (the remote working directory) that
// the tree scanner moves through and restores, so a Session must never be
// used from more than one goroutine. All operations are sequential on the
// single control connection.
type Session struct {
	// conn is the control channel
	conn net.Conn

	// reader buffers the control channel
	reader *bufio.Reader

	// tlsConfig and tlsMode select plain FTP, explicit or implicit FTPS
	tlsConfig *tls.Config
	tlsMode   tlsMode

	// timeout bounds the connect and every subsequent read/write
	timeout time.Duration

	// logger receives debug-level command/reply traces
	logger *slog.Logger

	// dialer establishes control and data connections
	dialer *net.Dialer

	// host and port of the server
	host string
	port string

	// banner is the server greeting, kept verbatim from connect time
	banner string

	// disableEPSV is set once the server answers 502 to EPSV
	disableEPSV bool

	// currentType tracks the transfer type to avoid redundant TYPE commands
	currentType string
}

// Dial connects to an FTP server at "host:port" and reads its greeting.
// The returned Session is not yet authenticated; call Login next.
//
// Example:
//
//	sess, err := ftpaudit.Dial("192.0.2.10:21",
//	    ftpaudit.WithTimeout(5*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Quit()
func Dial(addr string, options ...Option) (*Session, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	s := &Session{
		host:    host,
		port:    port,
		timeout: 10 * time.Second,
		tlsMode: tlsModeNone,
		dialer:  &net.Dialer{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range options {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	// A dialer timeout set via WithDialer wins over the session default.
	if s.dialer.Timeout == 0 {
		s.dialer.Timeout = s.timeout
	}

	if err := s.connect(); err != nil {
		return nil, err
	}

	return s, nil
}

// connect establishes the control connection, reads the greeting and, for
// explicit TLS, upgrades the channel.
func (s *Session) connect() error {
	addr := net.JoinHostPort(s.host, s.port)
	s.logger.Debug("connecting to ftp server", "addr", addr, "tls_mode", s.tlsMode)

	conn, err := s.dialer.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	if s.tlsMode == tlsModeImplicit {
		tlsConn := tls.Client(conn, s.tlsConfig)
		if s.timeout > 0 {
			if err := conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
				conn.Close()
				return fmt.Errorf("failed to set deadline: %w", err)
			}
		}
		if err := tlsConn.Handshake(); err != nil {
			conn.Close()
			return fmt.Errorf("TLS handshake failed: %w", err)
		}
		conn = tlsConn
	}

	s.conn = conn
	s.reader = bufio.NewReader(s.conn)

	if s.timeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
			s.conn.Close()
			return fmt.Errorf("failed to set read deadline: %w", err)
		}
	}

	rep, err := readReply(s.reader)
	if err != nil {
		s.conn.Close()
		return &ProtocolError{Op: "greeting", Err: err}
	}

	s.logger.Debug("ftp greeting", "code", rep.code, "message", rep.message)

	if rep.code != 220 {
		s.conn.Close()
		return &ReplyError{
			Command:  "CONNECT",
			Response: rep.message,
			Code:     rep.code,
		}
	}

	s.banner = rep.text()

	if s.tlsMode == tlsModeExplicit {
		if err := s.upgradeToTLS(); err != nil {
			s.conn.Close()
			return err
		}
	}

	return nil
}

// upgradeToTLS switches the control channel to TLS via AUTH TLS and
// protects the data channel with PBSZ 0 / PROT P.
func (s *Session) upgradeToTLS() error {
	if _, err := s.expectCode(234, "AUTH", "TLS"); err != nil {
		return err
	}

	tlsConn := tls.Client(s.conn, s.tlsConfig)
	if s.timeout > 0 {
		if err := s.conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
			return fmt.Errorf("failed to set deadline: %w", err)
		}
	}
	if err := tlsConn.Handshake(); err != nil {
		return fmt.Errorf("TLS handshake failed: %w", err)
	}

	s.conn = tlsConn
	s.reader = bufio.NewReader(s.conn)

	if _, err := s.expectCode(200, "PBSZ", "0"); err != nil {
		return err
	}
	if _, err := s.expectCode(200, "PROT", "P"); err != nil {
		return err
	}

	return nil
}

// Login authenticates the session. Anonymous servers typically accept
// "anonymous" with an email-shaped password.
func (s *Session) Login(username, password string) error {
	rep, err := s.sendCommand("USER", username)
	if err != nil {
		return err
	}

	// 230: logged in without a password
	if rep.code == 230 {
		return nil
	}

	if rep.code != 331 {
		return &ReplyError{
			Command:  "USER",
			Response: rep.message,
			Code:     rep.code,
		}
	}

	_, err = s.expectCode(230, "PASS", password)
	return err
}

// WelcomeBanner returns the server greeting exactly as received at connect
// time, including its reply code prefix.
func (s *Session) WelcomeBanner() string {
	return s.banner
}

// Quit sends QUIT and closes the control connection. It is idempotent and
// discards every error: once the session is being torn down there is
// nothing actionable in a disconnect failure.
func (s *Session) Quit() {
	if s.conn == nil {
		return
	}

	_, _ = s.sendCommand("QUIT")
	_ = s.conn.Close()
	s.conn = nil
}

// ChangeDir enters the named directory (CWD).
func (s *Session) ChangeDir(path string) error {
	_, err := s.expect2xx("CWD", path)
	return err
}

// ChangeDirUp moves to the parent directory (CDUP).
func (s *Session) ChangeDirUp() error {
	_, err := s.expect2xx("CDUP")
	return err
}

// CurrentDir returns the remote working directory (PWD).
func (s *Session) CurrentDir() (string, error) {
	rep, err := s.expect2xx("PWD")
	if err != nil {
		return "", err
	}

	// Reply shape: 257 "/home/user" is the current directory
	msg := rep.message
	start := strings.Index(msg, "\"")
	if start == -1 {
		return "", &ProtocolError{Op: "PWD", Err: fmt.Errorf("unquoted reply: %s", msg)}
	}
	end := strings.Index(msg[start+1:], "\"")
	if end == -1 {
		return "", &ProtocolError{Op: "PWD", Err: fmt.Errorf("unquoted reply: %s", msg)}
	}

	return msg[start+1 : start+1+end], nil
}

// NameList returns the entries of the current directory via NLST. Self and
// parent entries are filtered out; everything else is passed through as
// the server sent it (some servers return full paths).
func (s *Session) NameList() ([]string, error) {
	dataConn, err := s.cmdDataConn("NLST")
	if err != nil {
		return nil, err
	}

	var names []string
	scanner := bufio.NewScanner(dataConn)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		if base := path.Base(name); base == "." || base == ".." {
			continue
		}
		names = append(names, name)
	}

	if err := scanner.Err(); err != nil {
		dataConn.Close()
		return nil, &ProtocolError{Op: "NLST", Err: err}
	}

	if err := s.finishDataConn("NLST", dataConn); err != nil {
		return nil, err
	}

	return names, nil
}

// ListLines returns the raw lines of a long-format listing (LIST) of the
// current directory. No dialect parsing is attempted; the rights codec
// consumes the permission column directly.
func (s *Session) ListLines() ([]string, error) {
	dataConn, err := s.cmdDataConn("LIST")
	if err != nil {
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(dataConn)
	for scanner.Scan() {
		if line := scanner.Text(); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		dataConn.Close()
		return nil, &ProtocolError{Op: "LIST", Err: err}
	}

	if err := s.finishDataConn("LIST", dataConn); err != nil {
		return nil, err
	}

	return lines, nil
}

// MakeDir creates a directory (MKD).
func (s *Session) MakeDir(name string) error {
	_, err := s.expect2xx("MKD", name)
	return err
}

// RemoveDir removes a directory (RMD).
func (s *Session) RemoveDir(name string) error {
	_, err := s.expect2xx("RMD", name)
	return err
}

// Delete removes a file (DELE).
func (s *Session) Delete(name string) error {
	_, err := s.expect2xx("DELE", name)
	return err
}

// UploadEmpty stores a zero-byte file under the given name (STOR with an
// empty payload). This is the cheapest possible write probe: it proves
// upload permission without leaving meaningful content behind.
func (s *Session) UploadEmpty(name string) error {
	if err := s.setType("I"); err != nil {
		return err
	}

	dataConn, err := s.cmdDataConn("STOR", name)
	if err != nil {
		return err
	}

	// Nothing to write; closing the data connection ends the transfer.
	return s.finishDataConn("STOR", dataConn)
}

// setType switches the transfer type, skipping the exchange when the type
// is already current.
func (s *Session) setType(transferType string) error {
	if s.currentType == transferType {
		return nil
	}

	if _, err := s.expectCode(200, "TYPE", transferType); err != nil {
		return err
	}

	s.currentType = transferType
	return nil
}
