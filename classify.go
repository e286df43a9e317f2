package ftpsync

import (
	"fmt"
	"strings"
)

// Classifier decides whether a listed entry is a file or a directory.
//
// FTP LIST output has no portable file type, so every implementation is a
// heuristic. Classifiers are the only place the engine makes this decision;
// swap in a stricter one with WithClassifier.
type Classifier interface {
	Classify(name string) (Kind, error)
}

// Prober reports the size of a remote file. Servers answer SIZE with an
// error reply for anything that is not a plain file.
type Prober interface {
	Size(path string) (int64, error)
}

// ExtensionClassifier treats names without an extension as directories and
// everything else as files. It issues no remote requests.
//
// This is a best-effort guess: an extension-less file ("README") is reported
// as a directory and a directory named like a file ("logs.old") as a file.
type ExtensionClassifier struct{}

// Classify implements Classifier.
func (ExtensionClassifier) Classify(name string) (Kind, error) {
	if Extension(name) == "" {
		return KindDirectory, nil
	}
	return KindFile, nil
}

// ProbeClassifier asks the server for the size of every entry before
// applying the extension rule. A negative server reply means the entry is
// not a plain file and it is classified as a directory whatever its name.
// A successful probe never turns an extension-less name into a file.
//
// Each Classify call costs one round trip.
type ProbeClassifier struct {
	Prober Prober
}

// Classify implements Classifier. Only network-level probe failures are
// returned as errors; server replies are classification input.
func (c *ProbeClassifier) Classify(name string) (Kind, error) {
	if _, err := c.Prober.Size(name); err != nil {
		if isServerReply(err) {
			return KindDirectory, nil
		}
		return KindDirectory, &OpError{Op: "size", Path: name, Kind: ErrRemote, Err: err}
	}
	return ExtensionClassifier{}.Classify(name)
}

// Extension returns the extension of the last segment of name, including
// the dot. Leading dots do not start an extension, so ".profile" has none,
// while "archive.tar.gz" has ".gz" and "notes." has ".".
func Extension(name string) string {
	base := strings.TrimLeft(BaseName(name), ".")
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		return base[i:]
	}
	return ""
}

// classifyAll partitions entries into files and directories, preserving
// listing order within each group.
func classifyAll(c Classifier, entries []Entry) (files, dirs []Entry, err error) {
	for _, e := range entries {
		kind, err := c.Classify(e.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("classify %s: %w", e.Name, err)
		}
		if kind == KindDirectory {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
	}
	return files, dirs, nil
}
