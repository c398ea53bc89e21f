package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quantron.io/qs"
)

func TestParseFileFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "avatar.png")
	if err := os.WriteFile(path, []byte("png"), 0600); err != nil {
		t.Fatal(err)
	}
	attachments, err := parseFileFlags([]string{"avatar=" + path})
	if err != nil {
		t.Fatal(err)
	}
	if len(attachments) != 1 {
		t.Fatal("expected one attachment")
	}
	a := attachments[0]
	if a.Name() != "avatar" || a.FileName() != "avatar.png" || a.MimeType() != "image/png" || a.Len() != 3 {
		t.Fatal("wrong attachment", a.Name(), a.FileName(), a.MimeType())
	}

	for _, bad := range []string{"avatar", "=x", "avatar=", "avatar=" + filepath.Join(dir, "missing")} {
		if _, err := parseFileFlags([]string{bad}); err == nil {
			t.Fatal("accepted", bad)
		}
	}
}

func TestDescribeError(t *testing.T) {
	description := describeError(&qs.ServerError{Code: 500, Message: "down"})
	if !strings.Contains(description, "server error") || !strings.Contains(description, "down") {
		t.Fatal("wrong description", description)
	}
	if !strings.Contains(describeError(qs.ErrCancelled), "timed out") {
		t.Fatal("cancellation not described")
	}
}

func TestFatalErrorPrintsMessageVerbatim(t *testing.T) {
	var out bytes.Buffer
	code := -1
	stderr, exit = &out, func(c int) { code = c }
	defer func() { stderr, exit = os.Stderr, os.Exit }()

	fatalError(&qs.ServerError{Code: 400, Message: "quota 100%d exceeded %s"})
	if code != 1 {
		t.Fatal("wrong exit code", code)
	}
	if !strings.Contains(out.String(), "quota 100%d exceeded %s") || strings.Contains(out.String(), "%!") {
		t.Fatal("message mangled", out.String())
	}
}

func TestIndent(t *testing.T) {
	if string(indent([]byte(`{"a":1}`))) != "{\n  \"a\": 1\n}" {
		t.Fatal("not indented")
	}
	if string(indent([]byte(`nope`))) != "nope" {
		t.Fatal("invalid JSON altered")
	}
}
