package ftpaudit

import (
	"crypto/tls"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"
)

var (
	// pasvRegex matches "227 Entering Passive Mode (h1,h2,h3,h4,p1,p2)"
	pasvRegex = regexp.MustCompile(`\((\d+),(\d+),(\d+),(\d+),(\d+),(\d+)\)`)

	// epsvRegex matches "229 Entering Extended Passive Mode (|||port|)"
	epsvRegex = regexp.MustCompile(`\(\|\|\|(\d+)\|\)`)
)

// parsePASV extracts the data-connection address from a PASV reply.
// "227 Entering Passive Mode (192,168,1,1,195,149)" -> "192.168.1.1:50069"
func parsePASV(response string) (string, error) {
	matches := pasvRegex.FindStringSubmatch(response)
	if len(matches) != 7 {
		return "", fmt.Errorf("invalid PASV reply: %s", response)
	}

	var h [4]int
	for i := 0; i < 4; i++ {
		val, err := strconv.Atoi(matches[i+1])
		if err != nil || val < 0 || val > 255 {
			return "", fmt.Errorf("invalid PASV address octet: %s", matches[i+1])
		}
		h[i] = val
	}
	host := fmt.Sprintf("%d.%d.%d.%d", h[0], h[1], h[2], h[3])
	if ip := net.ParseIP(host); ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("invalid IPv4 address from PASV: %s", host)
	}

	p1, err1 := strconv.Atoi(matches[5])
	p2, err2 := strconv.Atoi(matches[6])
	if err1 != nil || err2 != nil || p1 < 0 || p1 > 255 || p2 < 0 || p2 > 255 {
		return "", fmt.Errorf("invalid PASV port parts: %s, %s", matches[5], matches[6])
	}
	port := p1*256 + p2

	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// parseEPSV extracts the data-connection port from an EPSV reply.
// "229 Entering Extended Passive Mode (|||6446|)" -> "6446"
func parseEPSV(response string) (string, error) {
	matches := epsvRegex.FindStringSubmatch(response)
	if len(matches) != 2 {
		return "", fmt.Errorf("invalid EPSV reply: %s", response)
	}

	port, err := strconv.Atoi(matches[1])
	if err != nil || port < 0 || port > 65535 {
		return "", fmt.Errorf("invalid EPSV port: %s", matches[1])
	}

	return matches[1], nil
}

// resolveDataAddr substitutes the control-connection host when the server
// advertises 0.0.0.0 in its PASV reply.
func resolveDataAddr(pasvAddr, controlHost string) string {
	host, port, err := net.SplitHostPort(pasvAddr)
	if err != nil {
		return pasvAddr
	}

	if host == "0.0.0.0" {
		return net.JoinHostPort(controlHost, port)
	}

	return pasvAddr
}

// openDataConn opens a passive-mode data connection, preferring EPSV and
// falling back to PASV. Active mode is not supported: the tool cannot
// assume inbound connectivity from an audited server.
func (s *Session) openDataConn() (net.Conn, error) {
	var addr string

	if !s.disableEPSV {
		if rep, err := s.sendCommand("EPSV"); err == nil {
			if rep.code == 502 { // not implemented; stop asking
				s.disableEPSV = true
			} else if rep.is2xx() {
				if port, perr := parseEPSV(rep.text()); perr == nil {
					addr = net.JoinHostPort(s.host, port)
				}
			}
		} else {
			return nil, err
		}
	}

	if addr == "" {
		rep, err := s.sendCommand("PASV")
		if err != nil {
			return nil, err
		}

		if !rep.is2xx() {
			return nil, &ReplyError{
				Command:  "PASV",
				Response: rep.message,
				Code:     rep.code,
			}
		}

		addr, err = parsePASV(rep.text())
		if err != nil {
			return nil, &ProtocolError{Op: "PASV", Err: err}
		}

		addr = resolveDataAddr(addr, s.host)
	}

	dataConn, err := s.dialer.Dial("tcp", addr)
	if err != nil {
		return nil, &ProtocolError{Op: "data connect", Err: err}
	}

	if s.tlsConfig != nil {
		tlsConn := tls.Client(dataConn, s.tlsConfig)
		if err := tlsConn.Handshake(); err != nil {
			dataConn.Close()
			return nil, &ProtocolError{Op: "data TLS handshake", Err: err}
		}
		dataConn = tlsConn
	}

	if s.timeout > 0 {
		return &timedConn{Conn: dataConn, timeout: s.timeout}, nil
	}

	return dataConn, nil
}

// cmdDataConn opens a data connection, sends the command and checks for a
// preliminary (1xx) or completion (2xx) reply. The caller must consume the
// connection and then call finishDataConn.
func (s *Session) cmdDataConn(cmd string, args ...string) (net.Conn, error) {
	dataConn, err := s.openDataConn()
	if err != nil {
		return nil, err
	}

	rep, err := s.sendCommand(cmd, args...)
	if err != nil {
		dataConn.Close()
		return nil, err
	}

	if rep.code >= 300 {
		dataConn.Close()
		return nil, &ReplyError{
			Command:  cmd,
			Response: rep.message,
			Code:     rep.code,
		}
	}

	return dataConn, nil
}

// finishDataConn closes the data connection and reads the transfer-complete
// reply (usually 226) from the control connection.
func (s *Session) finishDataConn(cmd string, dataConn net.Conn) error {
	if err := dataConn.Close(); err != nil {
		return &ProtocolError{Op: cmd, Err: err}
	}

	if s.timeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
			return &ProtocolError{Op: cmd, Err: err}
		}
	}

	rep, err := readReply(s.reader)
	if err != nil {
		return &ProtocolError{Op: cmd, Err: err}
	}

	s.logger.Debug("ftp data transfer complete", "cmd", cmd, "code", rep.code, "message", rep.message)

	if !rep.is2xx() {
		return &ReplyError{
			Command:  cmd,
			Response: rep.message,
			Code:     rep.code,
		}
	}

	return nil
}
