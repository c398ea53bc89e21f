package qs

import (
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"strings"
	"testing"
)

func TestNewAttachmentDefaults(t *testing.T) {
	data := []byte("hello")
	a := NewAttachment("doc", "", "", data)
	data[0] = 'j'
	if a.FileName() != "doc" || a.MimeType() != "application/octet-stream" {
		t.Fatal("defaults not applied")
	}
	body, _ := io.ReadAll(a.Reader())
	if string(body) != "hello" {
		t.Fatal("attachment shares caller buffer")
	}
}

func TestNewImageAttachment(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	a, err := NewImageAttachment(img, "avatar")
	if err != nil {
		t.Fatal(err)
	}
	if a.MimeType() != "image/jpeg" || !strings.HasSuffix(a.FileName(), ".jpg") {
		t.Fatal("wrong metadata")
	}
	decoded, err := jpeg.Decode(a.Reader())
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds().Dx() != 8 {
		t.Fatal("wrong size")
	}
}

func TestRequestIDs(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := NewRequestID()
		if err != nil {
			t.Fatal(err)
		}
		if len(id) != 36 || seen[id] {
			t.Fatal("bad request id", id)
		}
		seen[id] = true
	}
}

func TestParseServerVersion(t *testing.T) {
	if _, ok := ParseServerVersion(""); ok {
		t.Fatal("empty header parsed")
	}
	v, ok := ParseServerVersion("v2.3")
	if !ok || v.Major != 2 || v.Minor != 3 {
		t.Fatal("tolerant parse failed", v)
	}
}
