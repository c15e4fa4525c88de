// Package ftpaudit measures what an FTP account can actually see and do.
//
// # Overview
//
// Given a dialed and authenticated Session, the package answers three
// questions about the server, from the account's point of view:
//
//   - What is reachable? Scan walks the directory tree depth-first under
//     configurable depth and entry-count limits, with an optional dot
//     heuristic that skips round-trips for likely files.
//   - What can be written? Probe creates and deletes a scratch directory
//     and a zero-byte file in the current directory and reports which of
//     the four operations the server allowed.
//   - What do the listings admit to? MaxRights folds a long-format
//     listing into the widest directory and file permission numbers
//     observed anywhere in it (a best-case union, not typical rights).
//
// # Basic Usage
//
//	sess, err := ftpaudit.Dial("192.0.2.10:21",
//	    ftpaudit.WithTimeout(5*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Quit()
//
//	if err := sess.Login("anonymous", "anonymous@"); err != nil {
//	    log.Fatal(err)
//	}
//
//	report, err := sess.Probe(ftpaudit.NewProbeNames())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tree, err := sess.Scan(ftpaudit.ScanLimits{MaxDepth: 3, MaxFiles: 500, Optimized: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tree.Render(os.Stdout)
//
// # Error Handling
//
// Command failures come in two shapes. A *ReplyError means the server
// answered and the code classifies the answer: IsPermissionDenied (5xx),
// IsTemporary (4xx) or IsProtocolReply (anything else unexpected). A
// *ProtocolError means the conversation itself broke. The scanner and
// prober absorb permission denials as findings; every other failure
// surfaces to the caller, because it taints the measurement. Callers who
// want resilience against transient faults should retry the whole
// operation; the package itself never retries.
//
// # Concurrency
//
// A Session is one stateful control connection. The scanner moves the
// remote working directory around and restores it as it goes, so a
// Session must not be shared across goroutines.
package ftpaudit
