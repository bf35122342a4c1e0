package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
)

const documentPart = "word/document.xml"

// 模板解析与渲染失败返回的哨兵错误
var (
	ErrCorruptTemplate = errors.New("corrupt docx template")
	ErrNoDocumentPart  = errors.New("missing word/document.xml")
	ErrUnbalancedExpr  = errors.New("unbalanced placeholder delimiters")
)

// part docx 包内的一个文件
type part struct {
	name string
	data []byte
}

// Template 一份已加载的 docx 模板
// document.xml 在加载时做过 run 归一化，占位符不会再被 Word 拆散
type Template struct {
	parts    []part
	document string
}

// Open 从字节流加载 docx 模板
// docx 本质是 zip 包，正文在 word/document.xml
func Open(b []byte) (*Template, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptTemplate, err)
	}

	tpl := &Template{}
	found := false
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrCorruptTemplate, f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrCorruptTemplate, f.Name, err)
		}
		if f.Name == documentPart {
			found = true
			doc, err := normalizeRuns(string(data))
			if err != nil {
				return nil, err
			}
			tpl.document = doc
			// document.xml 在渲染时单独写回
			continue
		}
		tpl.parts = append(tpl.parts, part{name: f.Name, data: data})
	}
	if !found {
		return nil, ErrNoDocumentPart
	}
	return tpl, nil
}

// write 用给定的正文重新打包 docx
func (t *Template) write(document string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range t.parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, err
		}
	}
	w, err := zw.Create(documentPart)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte(document)); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
