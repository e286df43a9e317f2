// Package ftpconn is a small FTP client carrying the commands a download
// sync needs: login, raw LIST, CWD, PWD, SIZE and RETR.
//
// Data connections are always passive. EPSV is tried first; a server that
// answers 502 is asked with PASV from then on.
//
// # Basic Usage
//
//	client, err := ftpconn.Dial("ftp.example.com:21")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Quit()
//
//	if err := client.Login("anonymous", "anonymous@"); err != nil {
//	    log.Fatal(err)
//	}
//
//	lines, err := client.List("/pub")
//
// List returns lines as the server sent them. Interpreting them is left to
// the caller.
//
// # TLS
//
// Explicit TLS upgrades a plain connection with AUTH TLS; implicit TLS
// starts with a handshake, usually on port 990:
//
//	client, err := ftpconn.Dial("ftp.example.com:21",
//	    ftpconn.WithExplicitTLS(&tls.Config{ServerName: "ftp.example.com"}),
//	)
//
// Data connections reuse the control connection's TLS session, which
// servers like vsftpd require.
//
// # Charsets
//
// Servers on mainframes or older systems often use a legacy charset for
// file names. WithEncoding converts commands and replies, including listing
// lines, so callers only deal with UTF-8.
package ftpconn
