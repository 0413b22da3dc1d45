// Package e2e: this file builds minimal on-disk files for every ingestable format.
package e2e

import (
	"archive/zip"
	"bytes"
	"encoding/json"

	"github.com/xuri/excelize/v2"
)

// SupportedFileExtensions lists the formats the file-based pipeline tests
// rotate through. Covers plain text (.txt, .md, .json), HTML, OOXML (.docx,
// .xlsx, .pptx), and OpenDocument (.odp, .ods). PDF is not generated here;
// a minimal PDF with extractable text is not worth hand-assembling, and PDF
// extraction is covered by the extract package tests.
var SupportedFileExtensions = []string{
	".txt", ".md", ".json", ".html",
	".docx", ".xlsx", ".pptx", ".odp", ".ods",
}

// BuildFileBytes returns file content of the given extension embedding the
// given text so that extraction recovers it. Plain types carry the raw text;
// binary types wrap it in a minimal valid container.
func BuildFileBytes(ext, text string) ([]byte, error) {
	switch ext {
	case ".txt", ".md":
		return []byte(text), nil
	case ".json":
		return minimalJSON(text)
	case ".html":
		return minimalHTML(text), nil
	case ".docx":
		return minimalDocx(text), nil
	case ".pptx":
		return minimalPptx(text), nil
	case ".odp":
		return minimalOdp(text), nil
	case ".ods":
		return minimalOds(text), nil
	case ".xlsx":
		return minimalXlsx(text), nil
	default:
		return []byte(text), nil
	}
}

func minimalJSON(text string) ([]byte, error) {
	return json.Marshal(map[string]string{"description": text})
}

func minimalHTML(text string) []byte {
	return []byte("<html>\n<body>\n<p>" + text + "</p>\n</body>\n</html>\n")
}

func minimalDocx(text string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func minimalPptx(text string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("ppt/slides/slide1.xml")
	_, _ = fw.Write([]byte(`<p:sld xmlns:p="a" xmlns:a="b"><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`))
	_ = w.Close()
	return buf.Bytes()
}

func minimalOdp(text string) []byte {
	contentXML := `<office:document><office:body><draw:page><draw:text-box><text:p>` + text + `</text:p></draw:text-box></draw:page></office:body></office:document>`
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("content.xml")
	_, _ = fw.Write([]byte(contentXML))
	_ = w.Close()
	return buf.Bytes()
}

func minimalOds(text string) []byte {
	contentXML := `<office:document><office:body><table:table><table:table-row><table:table-cell><text:p>` + text + `</text:p></table:table-cell></table:table-row></table:table></office:body></office:document>`
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("content.xml")
	_, _ = fw.Write([]byte(contentXML))
	_ = w.Close()
	return buf.Bytes()
}

func minimalXlsx(text string) []byte {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", text)
	var buf bytes.Buffer
	_, _ = f.WriteTo(&buf)
	return buf.Bytes()
}
