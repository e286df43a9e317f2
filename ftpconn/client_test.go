package ftpconn

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

// mockServer scripts a single control connection. Passive data
// connections are served from dataListener.
type mockServer struct {
	listener     net.Listener
	addr         string
	dataListener net.Listener
	handlers     map[string]func(conn *textproto.Conn, args string)

	mu       sync.Mutex
	received []string

	done chan struct{}
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	dl, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		l.Close()
		t.Fatal(err)
	}

	s := &mockServer{
		listener:     l,
		addr:         l.Addr().String(),
		dataListener: dl,
		handlers:     make(map[string]func(*textproto.Conn, string)),
		done:         make(chan struct{}),
	}

	_, port, _ := net.SplitHostPort(dl.Addr().String())
	s.handlers["EPSV"] = func(c *textproto.Conn, args string) {
		_ = c.PrintfLine("229 Entering Extended Passive Mode (|||%s|)", port)
	}
	return s
}

// serveData answers a data command by sending payload over the next
// passive connection.
func (s *mockServer) serveData(t *testing.T, payload []byte) func(*textproto.Conn, string) {
	return func(c *textproto.Conn, args string) {
		_ = c.PrintfLine("150 Opening data connection.")
		dconn, err := s.dataListener.Accept()
		if err != nil {
			t.Errorf("mock server failed to accept data conn: %v", err)
			return
		}
		_, _ = dconn.Write(payload)
		dconn.Close()
		_ = c.PrintfLine("226 Transfer complete.")
	}
}

func (s *mockServer) start() {
	go func() {
		defer close(s.done)
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		fmt.Fprintf(conn, "220 Service ready\r\n")

		textConn := textproto.NewConn(conn)
		defer textConn.Close()

		for {
			line, err := textConn.ReadLine()
			if err != nil {
				return
			}

			cmd, args, _ := strings.Cut(line, " ")
			cmd = strings.ToUpper(cmd)

			s.mu.Lock()
			s.received = append(s.received, line)
			s.mu.Unlock()

			if handler, ok := s.handlers[cmd]; ok {
				handler(textConn, args)
				continue
			}

			switch cmd {
			case "USER":
				_ = textConn.PrintfLine("331 User name okay, need password.")
			case "PASS":
				_ = textConn.PrintfLine("230 User logged in, proceed.")
			case "TYPE":
				_ = textConn.PrintfLine("200 Type set.")
			case "QUIT":
				_ = textConn.PrintfLine("221 Goodbye.")
				return
			default:
				_ = textConn.PrintfLine("502 Command not implemented.")
			}
		}
	}()
}

func (s *mockServer) stop() {
	s.listener.Close()
	s.dataListener.Close()
	<-s.done
}

func (s *mockServer) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.received)
}

func dialMock(t *testing.T, ms *mockServer, opts ...Option) *Client {
	t.Helper()
	c, err := Dial(ms.addr, append([]Option{WithTimeout(2 * time.Second)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Login("anonymous", "secret"); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClientList(t *testing.T) {
	t.Parallel()
	ms := newMockServer(t)
	ms.handlers["LIST"] = ms.serveData(t, []byte(
		"-rw-r--r-- 1 owner group 2048 Jan 01 12:00 report.csv\r\n"+
			"\r\n"+
			"drwxr-xr-x 2 owner group 4096 Feb 02 10:00 archive\r\n"))
	ms.start()
	defer ms.stop()

	c := dialMock(t, ms)
	lines, err := c.List("/pub")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"-rw-r--r-- 1 owner group 2048 Jan 01 12:00 report.csv",
		"drwxr-xr-x 2 owner group 4096 Feb 02 10:00 archive",
	}
	if !slices.Equal(lines, want) {
		t.Errorf("List() = %q, want %q", lines, want)
	}
	if err := c.Quit(); err != nil {
		t.Errorf("Quit() = %v", err)
	}

	cmds := ms.commands()
	if !slices.Contains(cmds, "PASS secret") || !slices.Contains(cmds, "LIST /pub") {
		t.Errorf("unexpected command log: %q", cmds)
	}
}

func TestClientListCurrentDir(t *testing.T) {
	t.Parallel()
	ms := newMockServer(t)
	ms.handlers["LIST"] = ms.serveData(t, nil)
	ms.start()
	defer ms.stop()

	c := dialMock(t, ms)
	defer func() { _ = c.Quit() }()

	lines, err := c.List("")
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Errorf("expected empty listing, got %q", lines)
	}
	if !slices.Contains(ms.commands(), "LIST") {
		t.Errorf("expected LIST without argument, got %q", ms.commands())
	}
}

func TestClientEPSVFallback(t *testing.T) {
	t.Parallel()
	ms := newMockServer(t)

	_, portStr, _ := net.SplitHostPort(ms.dataListener.Addr().String())
	var port int
	_, _ = fmt.Sscanf(portStr, "%d", &port)

	ms.handlers["EPSV"] = func(c *textproto.Conn, args string) {
		_ = c.PrintfLine("502 Command not implemented.")
	}
	ms.handlers["PASV"] = func(c *textproto.Conn, args string) {
		_ = c.PrintfLine("227 Entering Passive Mode (127,0,0,1,%d,%d).", port/256, port%256)
	}
	ms.handlers["LIST"] = ms.serveData(t, nil)
	ms.start()
	defer ms.stop()

	c := dialMock(t, ms)
	defer func() { _ = c.Quit() }()

	for range 2 {
		if _, err := c.List("."); err != nil {
			t.Fatal(err)
		}
	}

	epsv := 0
	for _, cmd := range ms.commands() {
		if cmd == "EPSV" {
			epsv++
		}
	}
	if epsv != 1 {
		t.Errorf("expected exactly 1 EPSV command, got %d: %q", epsv, ms.commands())
	}
}

func TestClientRetrieve(t *testing.T) {
	t.Parallel()
	payload := bytes.Repeat([]byte("0123456789"), 1000)

	ms := newMockServer(t)
	ms.handlers["RETR"] = ms.serveData(t, payload)
	ms.start()
	defer ms.stop()

	c := dialMock(t, ms)
	defer func() { _ = c.Quit() }()

	var buf bytes.Buffer
	if err := c.Retrieve("data.bin", &buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), payload) {
		t.Errorf("retrieved %d bytes, want %d", buf.Len(), len(payload))
	}
	if !slices.Contains(ms.commands(), "TYPE I") {
		t.Errorf("expected binary mode, got %q", ms.commands())
	}
}

func TestClientRetrieveRefused(t *testing.T) {
	t.Parallel()
	ms := newMockServer(t)
	ms.handlers["RETR"] = func(c *textproto.Conn, args string) {
		_ = c.PrintfLine("550 No such file.")
	}
	ms.start()
	defer ms.stop()

	c := dialMock(t, ms)
	defer func() { _ = c.Quit() }()

	err := c.Retrieve("missing.bin", &bytes.Buffer{})
	var pe *ProtocolError
	if !errors.As(err, &pe) || pe.Code != 550 || pe.Command != "RETR" {
		t.Fatalf("Retrieve() error = %v, want RETR 550", err)
	}
}

func TestClientSize(t *testing.T) {
	t.Parallel()
	ms := newMockServer(t)
	ms.handlers["SIZE"] = func(c *textproto.Conn, args string) {
		if args == "docs" {
			_ = c.PrintfLine("550 docs: not a regular file")
			return
		}
		_ = c.PrintfLine("213 1234")
	}
	ms.start()
	defer ms.stop()

	c := dialMock(t, ms)
	defer func() { _ = c.Quit() }()

	size, err := c.Size("file.txt")
	if err != nil || size != 1234 {
		t.Errorf("Size(file.txt) = %d, %v", size, err)
	}

	_, err = c.Size("docs")
	var pe *ProtocolError
	if !errors.As(err, &pe) || !pe.IsPermanent() {
		t.Errorf("Size(docs) error = %v, want permanent reply", err)
	}

	// TYPE I is only sent once
	types := 0
	for _, cmd := range ms.commands() {
		if strings.HasPrefix(cmd, "TYPE") {
			types++
		}
	}
	if types != 1 {
		t.Errorf("expected 1 TYPE command, got %d", types)
	}
}

func TestClientDirectories(t *testing.T) {
	t.Parallel()
	ms := newMockServer(t)
	ms.handlers["CWD"] = func(c *textproto.Conn, args string) {
		if args == "/nope" {
			_ = c.PrintfLine("550 No such directory.")
			return
		}
		_ = c.PrintfLine("250 Directory changed.")
	}
	ms.handlers["PWD"] = func(c *textproto.Conn, args string) {
		_ = c.PrintfLine(`257 "/pub/say ""hi""" is current directory.`)
	}
	ms.start()
	defer ms.stop()

	c := dialMock(t, ms)
	defer func() { _ = c.Quit() }()

	if err := c.ChangeDir("/pub"); err != nil {
		t.Errorf("ChangeDir(/pub) = %v", err)
	}
	if err := c.ChangeDir("/nope"); err == nil {
		t.Error("expected ChangeDir(/nope) to fail")
	}
	dir, err := c.CurrentDir()
	if err != nil || dir != `/pub/say "hi"` {
		t.Errorf("CurrentDir() = %q, %v", dir, err)
	}
}

func TestClientLoginFailure(t *testing.T) {
	t.Parallel()
	ms := newMockServer(t)
	ms.handlers["PASS"] = func(c *textproto.Conn, args string) {
		_ = c.PrintfLine("530 Login incorrect.")
	}
	ms.start()
	defer ms.stop()

	c, err := Dial(ms.addr, WithTimeout(2*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Quit() }()

	err = c.Login("bob", "wrong")
	var pe *ProtocolError
	if !errors.As(err, &pe) || pe.Code != 530 {
		t.Fatalf("Login() error = %v, want 530", err)
	}
}

func TestClientEncoding(t *testing.T) {
	t.Parallel()
	ms := newMockServer(t)
	// "café.txt" in ISO-8859-1
	ms.handlers["LIST"] = ms.serveData(t, []byte("-rw-r--r-- 1 o g 5 Jan 01 12:00 caf\xe9.txt\r\n"))
	ms.start()
	defer ms.stop()

	c := dialMock(t, ms, WithEncoding("latin1"))
	defer func() { _ = c.Quit() }()

	lines, err := c.List("")
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || !strings.HasSuffix(lines[0], "café.txt") {
		t.Errorf("List() = %q", lines)
	}
}

func TestConnectURL(t *testing.T) {
	t.Parallel()
	ms := newMockServer(t)
	ms.handlers["CWD"] = func(c *textproto.Conn, args string) {
		_ = c.PrintfLine("250 Directory changed.")
	}
	ms.start()
	defer ms.stop()

	c, err := Connect("ftp://"+ms.addr+"/pub/data", WithTimeout(2*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Quit(); err != nil {
		t.Errorf("Quit() = %v", err)
	}
	if err := c.Quit(); err != nil {
		t.Errorf("second Quit() = %v", err)
	}

	want := []string{"USER anonymous", "PASS anonymous@", "CWD /pub/data", "QUIT"}
	if got := ms.commands(); !slices.Equal(got, want) {
		t.Errorf("commands = %q, want %q", got, want)
	}
}
