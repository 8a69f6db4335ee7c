package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	docxDefaultPart  = "word/document.xml"
	docxContentTypes = "[Content_Types].xml"
	docxMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	// <w:t> runs, with or without attributes.
	docxTextRun = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// Override elements declaring the main document part, in either attribute order.
	docxOverride = regexp.MustCompile(`<Override[^>]*/?>`)
	docxPartName = regexp.MustCompile(`PartName="([^"]+)"`)
)

// extractDOCX collects every <w:t> run of the main document part. The part is located via
// [Content_Types].xml, falling back to word/document.xml.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	part := docxDefaultPart
	if types, err := readZipEntry(zr, docxContentTypes); err == nil {
		if p := mainPart(types); p != "" {
			part = p
		}
	}
	body, err := readZipEntry(zr, part)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}

	var runs []string
	for _, m := range docxTextRun.FindAllSubmatch(body, -1) {
		if t := strings.TrimSpace(string(m[1])); t != "" {
			runs = append(runs, t)
		}
	}
	return strings.Join(runs, " "), nil
}

func mainPart(contentTypes []byte) string {
	for _, o := range docxOverride.FindAll(contentTypes, -1) {
		if !bytes.Contains(o, []byte(`ContentType="`+docxMainType+`"`)) {
			continue
		}
		if m := docxPartName.FindSubmatch(o); m != nil {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return ""
}

func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s not found", name)
}
