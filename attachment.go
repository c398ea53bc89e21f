package qs

import (
	"bytes"
	"image"
	"image/jpeg"
)

const JPEG_QUALITY = 90

//	Attachment is a named binary part of a multipart upload. Name is the form
//	field identifier.
type Attachment struct {
	name     string
	fileName string
	mimeType string
	data     []byte
}

func NewAttachment(name string, fileName string, mimeType string, data []byte) Attachment {
	copied := make([]byte, len(data))
	copy(copied, data)
	if fileName == "" {
		fileName = name
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return Attachment{
		name:     name,
		fileName: fileName,
		mimeType: mimeType,
		data:     copied,
	}
}

//	NewImageAttachment encodes img as JPEG.
func NewImageAttachment(img image.Image, name string) (attachment Attachment, err error) {
	var buf bytes.Buffer
	err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEG_QUALITY})
	if err != nil {
		return
	}
	attachment = Attachment{
		name:     name,
		fileName: name + ".jpg",
		mimeType: "image/jpeg",
		data:     buf.Bytes(),
	}
	return
}

func (a Attachment) Name() string {
	return a.name
}

func (a Attachment) FileName() string {
	return a.fileName
}

func (a Attachment) MimeType() string {
	return a.mimeType
}

func (a Attachment) Len() int {
	return len(a.data)
}

//	Reader returns a fresh reader over the attachment bytes.
func (a Attachment) Reader() *bytes.Reader {
	return bytes.NewReader(a.data)
}
