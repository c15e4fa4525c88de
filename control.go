package ftpaudit

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// reply is one parsed server response from the control connection.
type reply struct {
	// code is the three-digit reply code (e.g., 220, 550)
	code int

	// message is the human-readable text, joined across multi-line replies
	message string

	// lines holds every raw line of the reply
	lines []string
}

func (r *reply) is2xx() bool { return r.code >= 200 && r.code < 300 }

// text returns the full reply as the server sent it, line breaks included.
func (r *reply) text() string {
	return strings.Join(r.lines, "\n")
}

// readReply reads one complete FTP reply, single or multi-line.
//
// Single-line: "220 Welcome\r\n"
// Multi-line:
//
//	"220-Welcome\r\n"
//	"220-Second line\r\n"
//	"220 Ready\r\n"
//
// A multi-line reply ends at the line starting with the same code followed
// by a space. RFC 2389 continuation lines (leading space) are accepted.
func readReply(r *bufio.Reader) (*reply, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}

	line = strings.TrimRight(line, "\r\n")
	if len(line) < 4 {
		return nil, fmt.Errorf("short reply line: %q", line)
	}

	code, err := strconv.Atoi(line[0:3])
	if err != nil {
		return nil, fmt.Errorf("bad reply code: %q", line[0:3])
	}

	lines := []string{line}

	// Common case: single-line reply
	if line[3] == ' ' {
		return &reply{
			code:    code,
			message: line[4:],
			lines:   lines,
		}, nil
	}

	if line[3] != '-' {
		return nil, fmt.Errorf("malformed reply line: %q", line)
	}

	if err := readReplyTail(r, code, &lines); err != nil {
		return nil, err
	}

	var msgLines []string
	for _, l := range lines {
		switch {
		case l[0] == ' ':
			msgLines = append(msgLines, l[1:])
		case len(l) > 4:
			msgLines = append(msgLines, l[4:])
		}
	}

	return &reply{
		code:    code,
		message: strings.Join(msgLines, "\n"),
		lines:   lines,
	}, nil
}

// readReplyTail consumes the remaining lines of a multi-line reply.
func readReplyTail(r *bufio.Reader, code int, lines *[]string) error {
	codeStr := fmt.Sprintf("%03d", code)

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return fmt.Errorf("unexpected EOF inside multi-line reply")
			}
			return err
		}

		line = strings.TrimRight(line, "\r\n")

		// RFC 2389 continuation
		if len(line) > 0 && line[0] == ' ' {
			*lines = append(*lines, line)
			continue
		}

		if len(line) < 4 || line[0:3] != codeStr {
			return fmt.Errorf("reply code mismatch inside multi-line reply: %q", line)
		}

		*lines = append(*lines, line)

		if line[3] == ' ' {
			return nil
		}

		if line[3] != '-' {
			return fmt.Errorf("malformed reply line: %q", line)
		}
	}
}

// sendCommand sends one FTP command and reads the reply. The session is
// strictly sequential; commands are never interleaved, so there is no
// locking here.
func (s *Session) sendCommand(command string, args ...string) (*reply, error) {
	cmd := command
	if len(args) > 0 {
		cmd = command + " " + strings.Join(args, " ")
	}

	s.logger.Debug("ftp command", "cmd", cmd)

	if s.timeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
			return nil, &ProtocolError{Op: command, Err: err}
		}
	}

	if _, err := fmt.Fprintf(s.conn, "%s\r\n", cmd); err != nil {
		return nil, &ProtocolError{Op: command, Err: err}
	}

	// The deadline goes on the underlying connection, not the bufio.Reader.
	if s.timeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
			return nil, &ProtocolError{Op: command, Err: err}
		}
	}

	rep, err := readReply(s.reader)
	if err != nil {
		return nil, &ProtocolError{Op: command, Err: err}
	}

	s.logger.Debug("ftp reply", "code", rep.code, "message", rep.message)

	return rep, nil
}

// expectCode sends a command and requires the exact reply code.
func (s *Session) expectCode(code int, command string, args ...string) (*reply, error) {
	rep, err := s.sendCommand(command, args...)
	if err != nil {
		return nil, err
	}

	if rep.code != code {
		return rep, &ReplyError{
			Command:  command,
			Response: rep.message,
			Code:     rep.code,
		}
	}

	return rep, nil
}

// expect2xx sends a command and requires a positive completion reply.
func (s *Session) expect2xx(command string, args ...string) (*reply, error) {
	rep, err := s.sendCommand(command, args...)
	if err != nil {
		return nil, err
	}

	if !rep.is2xx() {
		return rep, &ReplyError{
			Command:  command,
			Response: rep.message,
			Code:     rep.code,
		}
	}

	return rep, nil
}
