package ftpaudit

import (
	"github.com/google/uuid"
)

// PermissionReport holds the outcome of the create/delete probe against
// the current remote directory. The delete flags are meaningful only when
// the matching create flag is true; a delete is never attempted for an
// object that could not be created.
type PermissionReport struct {
	CanCreateDir  bool
	CanDeleteDir  bool
	CanUploadFile bool
	CanDeleteFile bool
}

// Probe measures write and delete rights in the session's current
// directory by creating and removing a scratch directory and a zero-byte
// file. The two halves are independent: a refused directory probe does not
// stop the file probe.
//
// Permission denials are the measurement and are folded into the report.
// Any other failure aborts the probe and is returned alongside the partial
// report, because it says the session rather than the permissions is the
// problem.
//
// The names are caller-supplied and should be unlikely to collide with
// existing entries; NewProbeNames generates suitable ones. The probe does
// not check for pre-existing objects, so a colliding name can delete real
// data.
func Probe(r Remote, dirName, fileName string) (PermissionReport, error) {
	var report PermissionReport

	switch err := r.MakeDir(dirName); {
	case err == nil:
		report.CanCreateDir = true
		if derr := r.RemoveDir(dirName); derr == nil {
			report.CanDeleteDir = true
		} else if !IsPermissionDenied(derr) {
			return report, derr
		}
	case !IsPermissionDenied(err):
		return report, err
	}

	switch err := r.UploadEmpty(fileName); {
	case err == nil:
		report.CanUploadFile = true
		if derr := r.Delete(fileName); derr == nil {
			report.CanDeleteFile = true
		} else if !IsPermissionDenied(derr) {
			return report, derr
		}
	case !IsPermissionDenied(err):
		return report, err
	}

	return report, nil
}

// Probe measures write and delete rights in the session's current
// directory. See the package-level Probe.
func (s *Session) Probe(dirName, fileName string) (PermissionReport, error) {
	return Probe(s, dirName, fileName)
}

// NewProbeNames returns a collision-unlikely directory name and file name
// for one probe run. A fresh pair is generated on every call, so two probe
// invocations never silently reuse the same names.
func NewProbeNames() (dirName, fileName string) {
	suffix := uuid.NewString()[:8]
	return "audit-dir-" + suffix, "audit-file-" + suffix
}
