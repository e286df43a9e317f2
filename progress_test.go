package ftpsync

import (
	"bytes"
	"testing"
)

func TestProgressWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	var reports []int64
	pw := &ProgressWriter{
		Writer:   &buf,
		Callback: func(n int64) { reports = append(reports, n) },
	}

	for _, chunk := range []string{"abc", "", "defg"} {
		if _, err := pw.Write([]byte(chunk)); err != nil {
			t.Fatal(err)
		}
	}

	if buf.String() != "abcdefg" {
		t.Errorf("written = %q", buf.String())
	}
	if pw.Total() != 7 {
		t.Errorf("Total() = %d, want 7", pw.Total())
	}
	if len(reports) != 2 || reports[0] != 3 || reports[1] != 7 {
		t.Errorf("reports = %v, want [3 7]", reports)
	}
}

func TestProgressWriterNilCallback(t *testing.T) {
	t.Parallel()
	pw := &ProgressWriter{Writer: &bytes.Buffer{}}
	if n, err := pw.Write([]byte("xy")); err != nil || n != 2 {
		t.Fatalf("Write() = %d, %v", n, err)
	}
}
