package ftpaudit

import (
	"bufio"
	"strings"
	"testing"
)

func parseReply(t *testing.T, in string) (*reply, error) {
	t.Helper()
	return readReply(bufio.NewReader(strings.NewReader(in)))
}

func TestReadReplySingleLine(t *testing.T) {
	t.Parallel()
	rep, err := parseReply(t, "220 Service ready\r\n")
	if err != nil {
		t.Fatalf("readReply: %v", err)
	}
	if rep.code != 220 {
		t.Errorf("code = %d, want 220", rep.code)
	}
	if rep.message != "Service ready" {
		t.Errorf("message = %q, want %q", rep.message, "Service ready")
	}
	if !rep.is2xx() {
		t.Error("is2xx() = false, want true")
	}
}

func TestReadReplyMultiLine(t *testing.T) {
	t.Parallel()
	in := "220-Welcome to ftp.example.org\r\n" +
		"220-Anonymous access is logged\r\n" +
		"220 Ready\r\n"
	rep, err := parseReply(t, in)
	if err != nil {
		t.Fatalf("readReply: %v", err)
	}
	if rep.code != 220 {
		t.Errorf("code = %d, want 220", rep.code)
	}
	want := "Welcome to ftp.example.org\nAnonymous access is logged\nReady"
	if rep.message != want {
		t.Errorf("message = %q, want %q", rep.message, want)
	}
	if len(rep.lines) != 3 {
		t.Errorf("len(lines) = %d, want 3", len(rep.lines))
	}
}

func TestReadReplyContinuationLines(t *testing.T) {
	t.Parallel()
	in := "211-Features:\r\n" +
		" EPSV\r\n" +
		" UTF8\r\n" +
		"211 End\r\n"
	rep, err := parseReply(t, in)
	if err != nil {
		t.Fatalf("readReply: %v", err)
	}
	if rep.code != 211 {
		t.Errorf("code = %d, want 211", rep.code)
	}
	if len(rep.lines) != 4 {
		t.Errorf("len(lines) = %d, want 4", len(rep.lines))
	}
	if !strings.Contains(rep.text(), " EPSV") {
		t.Errorf("text() = %q, missing continuation line", rep.text())
	}
}

func TestReadReplyText(t *testing.T) {
	t.Parallel()
	in := "230-User logged in\r\n230 Proceed\r\n"
	rep, err := parseReply(t, in)
	if err != nil {
		t.Fatalf("readReply: %v", err)
	}
	want := "230-User logged in\n230 Proceed"
	if got := rep.text(); got != want {
		t.Errorf("text() = %q, want %q", got, want)
	}
}

func TestReadReplyMalformed(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
	}{
		{"short line", "22\r\n"},
		{"non-numeric code", "abc Hello\r\n"},
		{"bad separator", "220@Hello\r\n"},
		{"truncated multi-line", "220-Welcome\r\n"},
		{"code mismatch in tail", "220-Welcome\r\n530 Go away\r\n"},
		{"empty input", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := parseReply(t, tt.in); err == nil {
				t.Errorf("readReply(%q): expected error, got nil", tt.in)
			}
		})
	}
}

func FuzzReadReply(f *testing.F) {
	f.Add("220 Service ready\r\n")
	f.Add("220-Welcome\r\n220 Ready\r\n")
	f.Add("211-Features:\r\n EPSV\r\n211 End\r\n")
	f.Add("550 Permission denied.\r\n")
	f.Add("22\r\n")
	f.Add("220-\r\n")

	f.Fuzz(func(t *testing.T, in string) {
		rep, err := readReply(bufio.NewReader(strings.NewReader(in)))
		if err != nil {
			return
		}
		if len(rep.lines) == 0 {
			t.Errorf("parsed reply with no lines for input %q", in)
		}
	})
}
