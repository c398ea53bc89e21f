package transport

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"

	"quantron.io/qs"
)

const BOUNDARY_PREFIX = "qs-"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

//	EncodeMultipart builds a multipart/form-data body. Params are written
//	first sorted by key, then attachments in order under their own names.
func EncodeMultipart(attachments []qs.Attachment, params map[string]string) (body []byte, contentType string, err error) {
	boundarySuffix, err := qs.RandNBase62(24)
	if err != nil {
		return
	}
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	err = writer.SetBoundary(BOUNDARY_PREFIX + boundarySuffix)
	if err != nil {
		return
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		err = writer.WriteField(key, params[key])
		if err != nil {
			return
		}
	}

	for _, attachment := range attachments {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(attachment.Name()), quoteEscaper.Replace(attachment.FileName())))
		header.Set("Content-Type", attachment.MimeType())
		part, partErr := writer.CreatePart(header)
		if partErr != nil {
			err = partErr
			return
		}
		_, err = attachment.Reader().WriteTo(part)
		if err != nil {
			return
		}
	}

	err = writer.Close()
	if err != nil {
		return
	}
	body = buf.Bytes()
	contentType = writer.FormDataContentType()
	return
}
