package ftpaudit

// fakeRemote scripts a remote directory tree in memory and records every
// command issued against it, so tests can assert both results and traffic.
type fakeRemote struct {
	root *fakeDir

	// stack holds the entered directories; index 0 is the root
	stack []*fakeDir

	// calls records each command in issue order, e.g. "CWD pub"
	calls []string

	// lines and the error fields script ListLines and the probe commands
	lines    []string
	listErr  error
	linesErr error
	mkdErr   error
	rmdErr   error
	storErr  error
	deleErr  error
}

// fakeDir is one scripted directory. A nil entry value is a file; denied
// names refuse CWD with a 550; listDenied refuses NLST with a 550 (an
// execute-only directory).
type fakeDir struct {
	order      []string
	entries    map[string]*fakeDir
	denied     map[string]bool
	listDenied bool
}

func newFakeDir() *fakeDir {
	return &fakeDir{
		entries: make(map[string]*fakeDir),
		denied:  make(map[string]bool),
	}
}

func (d *fakeDir) withFile(name string) *fakeDir {
	d.order = append(d.order, name)
	d.entries[name] = nil
	return d
}

func (d *fakeDir) withDir(name string, child *fakeDir) *fakeDir {
	d.order = append(d.order, name)
	d.entries[name] = child
	return d
}

func (d *fakeDir) withListingDenied() *fakeDir {
	d.listDenied = true
	return d
}

func (d *fakeDir) withDenied(name string) *fakeDir {
	d.order = append(d.order, name)
	d.entries[name] = nil
	d.denied[name] = true
	return d
}

func newFakeRemote(root *fakeDir) *fakeRemote {
	return &fakeRemote{root: root, stack: []*fakeDir{root}}
}

func (f *fakeRemote) cwd() *fakeDir { return f.stack[len(f.stack)-1] }

// depth reports how far below the root the working directory is.
func (f *fakeRemote) depth() int { return len(f.stack) - 1 }

func (f *fakeRemote) countCalls(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if c == prefix || len(c) > len(prefix) && c[:len(prefix)+1] == prefix+" " {
			n++
		}
	}
	return n
}

func (f *fakeRemote) NameList() ([]string, error) {
	f.calls = append(f.calls, "NLST")
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.cwd().listDenied {
		return nil, replyDenied("NLST")
	}
	return append([]string(nil), f.cwd().order...), nil
}

func (f *fakeRemote) ListLines() ([]string, error) {
	f.calls = append(f.calls, "LIST")
	if f.linesErr != nil {
		return nil, f.linesErr
	}
	return f.lines, nil
}

func (f *fakeRemote) ChangeDir(name string) error {
	f.calls = append(f.calls, "CWD "+name)
	d := f.cwd()
	if d.denied[name] {
		return replyDenied("CWD " + name)
	}
	child, ok := d.entries[name]
	if !ok || child == nil {
		return replyDenied("CWD " + name)
	}
	f.stack = append(f.stack, child)
	return nil
}

func (f *fakeRemote) ChangeDirUp() error {
	f.calls = append(f.calls, "CDUP")
	if len(f.stack) == 1 {
		return replyDenied("CDUP")
	}
	f.stack = f.stack[:len(f.stack)-1]
	return nil
}

func (f *fakeRemote) MakeDir(name string) error {
	f.calls = append(f.calls, "MKD "+name)
	return f.mkdErr
}

func (f *fakeRemote) RemoveDir(name string) error {
	f.calls = append(f.calls, "RMD "+name)
	return f.rmdErr
}

func (f *fakeRemote) UploadEmpty(name string) error {
	f.calls = append(f.calls, "STOR "+name)
	return f.storErr
}

func (f *fakeRemote) Delete(name string) error {
	f.calls = append(f.calls, "DELE "+name)
	return f.deleErr
}

func replyDenied(cmd string) *ReplyError {
	return &ReplyError{Command: cmd, Response: "Permission denied.", Code: 550}
}

func replyTemporary(cmd string) *ReplyError {
	return &ReplyError{Command: cmd, Response: "Requested action not taken, try again.", Code: 450}
}
