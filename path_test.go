package ftpsync

import "testing"

func TestJoinPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		base, name, want string
	}{
		{"", "file.txt", "file.txt"},
		{"/pub", "file.txt", "/pub/file.txt"},
		{"/pub/", "file.txt", "/pub/file.txt"},
		{"pub/data", "x.gz", "pub/data/x.gz"},
		{"/pub", "", "/pub"},
		{"", "", ""},
		{"pub", "..", "."},
	}

	for _, tt := range tests {
		if got := JoinPath(tt.base, tt.name); got != tt.want {
			t.Errorf("JoinPath(%q, %q) = %q, want %q", tt.base, tt.name, got, tt.want)
		}
	}
}

func TestBaseName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path, want string
	}{
		{"file.txt", "file.txt"},
		{"/pub/data/file.txt", "file.txt"},
		{"pub/data/", "data"},
		{"pub/data//", "data"},
		{`dir\sub\file.txt`, "file.txt"},
		{"/", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := BaseName(tt.path); got != tt.want {
			t.Errorf("BaseName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestJoinThenBaseName(t *testing.T) {
	t.Parallel()
	for _, base := range []string{"", "/pub", "pub/data/", "a"} {
		if got := BaseName(JoinPath(base, "report.csv")); got != "report.csv" {
			t.Errorf("BaseName(JoinPath(%q, report.csv)) = %q", base, got)
		}
	}
}

func TestEntryWithPath(t *testing.T) {
	t.Parallel()
	e := Entry{Name: "a.csv", Size: 3, ModifiedDate: "Jan 01 12:00"}

	got := e.WithPath("/pub")
	if got != (Entry{Name: "/pub/a.csv", Size: 3, ModifiedDate: "Jan 01 12:00"}) {
		t.Errorf("WithPath(/pub) = %+v", got)
	}
	if e.Name != "a.csv" {
		t.Error("WithPath modified the receiver")
	}
	if e.WithPath("") != e {
		t.Error("WithPath(\"\") should return an equal entry")
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()
	if KindFile.String() != "file" || KindDirectory.String() != "dir" || Kind(9).String() != "unknown" {
		t.Error("unexpected Kind strings")
	}
}
