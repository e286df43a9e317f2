package ftpconn

import (
	"bufio"
	"bytes"
	"log/slog"
	"slices"
	"strings"
	"testing"
)

func TestClientListDropsOverlongLine(t *testing.T) {
	t.Parallel()
	long := "-rw-r--r-- 1 owner group 1 Jan 01 12:00 " + strings.Repeat("x", 3*maxListLine)
	ms := newMockServer(t)
	ms.handlers["LIST"] = ms.serveData(t, []byte(
		"-rw-r--r-- 1 owner group 10 Jan 01 12:00 before.csv\r\n"+
			long+"\r\n"+
			"-rw-r--r-- 1 owner group 20 Jan 01 12:00 after.csv\r\n"))
	ms.start()
	defer ms.stop()

	var logs bytes.Buffer
	c := dialMock(t, ms, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	defer func() { _ = c.Quit() }()

	lines, err := c.List("")
	if err != nil {
		t.Fatalf("List() error = %v, want overlong line skipped", err)
	}
	want := []string{
		"-rw-r--r-- 1 owner group 10 Jan 01 12:00 before.csv",
		"-rw-r--r-- 1 owner group 20 Jan 01 12:00 after.csv",
	}
	if !slices.Equal(lines, want) {
		t.Errorf("List() = %q, want %q", lines, want)
	}
	if strings.Count(logs.String(), "dropping overlong listing line") != 1 {
		t.Errorf("expected one warning, got %q", logs.String())
	}
}

func TestSplitListLines(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		want    []string
		dropped int
	}{
		{"plain", "a\nbb\n", []string{"a", "bb"}, 0},
		{"no trailing newline", "a\nbb", []string{"a", "bb"}, 0},
		{"blank kept for caller", "a\n\nb\n", []string{"a", "", "b"}, 0},
		{"at limit", "12345678\nok\n", []string{"ok"}, 1},
		{"just under limit", "1234567\n", []string{"1234567"}, 0},
		{"long at end", "ok\n" + strings.Repeat("z", 30), []string{"ok"}, 1},
		{"two long lines", strings.Repeat("y", 20) + "\nmid\n" + strings.Repeat("z", 20) + "\n", []string{"mid"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dropped := 0
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			// a small buffer forces the partial-line path
			scanner.Buffer(make([]byte, 0, 4), 16)
			scanner.Split(splitListLines(8, func() { dropped++ }))

			var got []string
			for scanner.Scan() {
				got = append(got, scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) || dropped != tt.dropped {
				t.Errorf("got %q (dropped %d), want %q (dropped %d)", got, dropped, tt.want, tt.dropped)
			}
		})
	}
}
