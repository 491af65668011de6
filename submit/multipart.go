package submit

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"inkblog/upload"
)

// Multipart is an encoded multipart/form-data body.
type Multipart struct {
	ContentType string
	Body        []byte
}

type Part struct {
	Name  string
	Value string
}

type FilePart struct {
	Name string
	File *upload.File
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// EncodeMultipart writes every scalar as its own part and every file as a
// binary part carrying the file's content type. Nil files are skipped.
func EncodeMultipart(fields []Part, files []FilePart) (Multipart, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range fields {
		if err := w.WriteField(p.Name, p.Value); err != nil {
			return Multipart{}, fmt.Errorf("write field %s: %w", p.Name, err)
		}
	}
	for _, fp := range files {
		if fp.File == nil {
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(fp.Name), quoteEscaper.Replace(fp.File.Filename)))
		h.Set("Content-Type", fp.File.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return Multipart{}, fmt.Errorf("create part %s: %w", fp.Name, err)
		}
		if _, err := part.Write(fp.File.Data); err != nil {
			return Multipart{}, fmt.Errorf("write part %s: %w", fp.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return Multipart{}, err
	}
	return Multipart{ContentType: w.FormDataContentType(), Body: buf.Bytes()}, nil
}
