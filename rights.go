package ftpaudit

// rightsVector accumulates one bit per permission column of a long-format
// listing: owner/group/other × read/write/execute.
type rightsVector [9]bool

// number folds the vector into a three-digit rights value (000–777), each
// digit the usual 4/2/1 sum for its triad.
func (v rightsVector) number() int {
	n := 0
	for triad := 0; triad < 3; triad++ {
		digit := 0
		if v[triad*3] {
			digit += 4
		}
		if v[triad*3+1] {
			digit += 2
		}
		if v[triad*3+2] {
			digit++
		}
		n = n*10 + digit
	}
	return n
}

// merge ORs in the permission string of one listing line (positions 1–9).
func (v *rightsVector) merge(line string) {
	for i := 1; i <= 9; i++ {
		switch (i - 1) % 3 {
		case 0: // read
			if line[i] == 'r' {
				v[i-1] = true
			}
		case 1: // write
			if line[i] == 'w' {
				v[i-1] = true
			}
		case 2: // execute; setuid/setgid markers count as executable
			if c := line[i]; c == 'x' || c == 'X' || c == 's' {
				v[i-1] = true
			}
		}
	}
}

// ParseMaxRights folds a long-format directory listing into the widest
// permission sets observed, one value for directory entries and one for
// regular files.
//
// The result is a union: each bit is set if ANY entry of that kind grants
// it, so 750 and 705 directories yield 755. The number answers "what is
// the best access anyone was seen to have", not "what are typical
// rights".
//
// Only lines starting with 'd' (directories) or '-' (regular files) are
// accumulated. Symbolic links always list as lrwxrwxrwx no matter what
// their targets allow, so folding them in would fabricate full rights;
// they are skipped along with every other entry kind. A kind with no
// qualifying entry reports -1.
func ParseMaxRights(lines []string) (dirRights, fileRights int) {
	var dirs, files rightsVector
	var sawDir, sawFile bool

	for _, line := range lines {
		if len(line) <= 10 {
			continue
		}
		switch line[0] {
		case 'd':
			sawDir = true
			dirs.merge(line)
		case '-':
			sawFile = true
			files.merge(line)
		}
	}

	dirRights, fileRights = -1, -1
	if sawDir {
		dirRights = dirs.number()
	}
	if sawFile {
		fileRights = files.number()
	}
	return dirRights, fileRights
}

// MaxRights lists the current directory in long format and reports the
// union rights numbers for directories and files. A server that refuses
// the listing outright yields (-1, -1) with no error; the refusal is
// itself the answer. Other listing failures propagate.
func MaxRights(r Remote) (dirRights, fileRights int, err error) {
	lines, err := r.ListLines()
	if err != nil {
		if IsPermissionDenied(err) {
			return -1, -1, nil
		}
		return -1, -1, err
	}

	dirRights, fileRights = ParseMaxRights(lines)
	return dirRights, fileRights, nil
}

// MaxRights reports the union rights numbers for the session's current
// directory. See the package-level MaxRights.
func (s *Session) MaxRights() (dirRights, fileRights int, err error) {
	return MaxRights(s)
}
