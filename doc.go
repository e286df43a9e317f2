// Package ftpsync downloads the files of remote FTP directories that have
// not been downloaded before.
//
// # Overview
//
// A Syncer lists a remote directory, sorts the entries into files and
// directories, drops files rejected by an optional filter or already present
// in the download history (the ledger), and downloads the rest one after the
// other:
//
//	client, err := ftpconn.Dial("ftp.example.com:21")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Login("anonymous", "anonymous@"); err != nil {
//	    log.Fatal(err)
//	}
//
//	syncer, err := ftpsync.New(
//	    ftpsync.WithSession(client),
//	    ftpsync.WithLedgerFile("history.json"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer syncer.Close()
//
//	if _, err := syncer.SyncDir("/pub/data"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Listings
//
// Listing lines are expected in Unix "ls -l" form. The fifth field is the
// size, the last field is the name and the fields in between are kept as the
// modification date text. Lines that do not fit are skipped with a warning.
//
// # Files and directories
//
// LIST does not say which entries are directories. By default a name without
// extension is taken to be a directory. WithSizeProbe additionally asks the
// server for each entry's size and treats a refusal as a directory. Both are
// heuristics; WithClassifier installs a better one when the server allows it.
//
// # Download history
//
// An entry counts as downloaded when an entry with the same name, size and
// date is in the ledger, so a file that changed on the server is downloaded
// again. With WithLedgerFile the ledger is a JSON array rewritten after
// every download; a missing or unreadable file starts an empty history.
//
// # Error Handling
//
// Errors wrap one of the Err* kinds of this package and the transport error
// that caused them:
//
//	if _, err := syncer.SyncDir(""); err != nil {
//	    if errors.Is(err, ftpsync.ErrTransfer) {
//	        var pe *ftpconn.ProtocolError
//	        if errors.As(err, &pe) {
//	            fmt.Printf("server said %d %s\n", pe.Code, pe.Response)
//	        }
//	    }
//	}
//
// The package never exits the process; deciding what a failed login means
// is up to the caller.
package ftpsync
