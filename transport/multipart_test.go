package transport

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"quantron.io/qs"
)

func TestEncodeMultipartOrder(t *testing.T) {
	attachments := []qs.Attachment{
		qs.NewAttachment("second", "b.bin", "", []byte("B")),
		qs.NewAttachment("first", "a.txt", "text/plain", []byte("A")),
	}
	params := map[string]string{"z": "1", "a": "2"}
	body, contentType, err := EncodeMultipart(attachments, params)
	if err != nil {
		t.Fatal(err)
	}
	mediaType, mediaParams, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatal("wrong content type", contentType)
	}
	if !strings.HasPrefix(mediaParams["boundary"], BOUNDARY_PREFIX) {
		t.Fatal("unexpected boundary", mediaParams["boundary"])
	}

	reader := multipart.NewReader(bytes.NewReader(body), mediaParams["boundary"])
	var names []string
	var contents []string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		data, _ := io.ReadAll(part)
		names = append(names, part.FormName())
		contents = append(contents, string(data))
		if part.FormName() == "first" && part.Header.Get("Content-Type") != "text/plain" {
			t.Fatal("attachment mime type lost")
		}
	}
	if strings.Join(names, ",") != "a,z,second,first" {
		t.Fatal("wrong part order", names)
	}
	if strings.Join(contents, ",") != "2,1,B,A" {
		t.Fatal("wrong part contents", contents)
	}
}

func TestEncodeMultipartEmpty(t *testing.T) {
	body, contentType, err := EncodeMultipart(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(contentType, "multipart/form-data") || len(body) == 0 {
		t.Fatal("empty form not terminated")
	}
}
