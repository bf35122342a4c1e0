package docx

import (
	"regexp"
	"strings"
)

// segment document.xml 的一个片段：一个 XML 标签或一段文本
type segment struct {
	tag  bool
	text bool // 位于 <w:t> 内的可见文本
	s    string
}

// exprPattern 匹配一个完整的模板表达式（变量或标签）
var exprPattern = regexp.MustCompile(`(?s)\{\{.*?\}\}|\{%.*?%\}`)

// splitXML 把 XML 粗切为标签与文本片段，并标记哪些文本位于 <w:t> 内
func splitXML(doc string) []segment {
	var segs []segment
	inWT := false
	i := 0
	for i < len(doc) {
		if doc[i] == '<' {
			end := strings.IndexByte(doc[i:], '>')
			if end < 0 {
				// 残缺标签，按文本保留
				segs = append(segs, segment{text: inWT, s: doc[i:]})
				break
			}
			tag := doc[i : i+end+1]
			if strings.HasPrefix(tag, "<w:t>") || strings.HasPrefix(tag, "<w:t ") {
				inWT = true
			} else if strings.HasPrefix(tag, "</w:t") {
				inWT = false
			}
			segs = append(segs, segment{tag: true, s: tag})
			i += end + 1
			continue
		}
		next := strings.IndexByte(doc[i:], '<')
		if next < 0 {
			segs = append(segs, segment{text: inWT, s: doc[i:]})
			break
		}
		segs = append(segs, segment{text: inWT, s: doc[i : i+next]})
		i += next
	}
	return segs
}

// normalizeRuns 归一化 document.xml：
// Word 会把一个逻辑占位符拆进多个 <w:r>/<w:t>，
// 这里把跨 run 的表达式整体并入起始 run 的文本，后续 run 中对应部分清空。
// 只移动文本、不删标签，处理后 XML 结构不变，表达式保证连续。
// 可见文本里定界符不配对时返回 ErrUnbalancedExpr。
func normalizeRuns(doc string) (string, error) {
	segs := splitXML(doc)

	// 拼出全部可见文本，并记录每个文本片段在虚拟串中的起点
	var textIdx []int
	var offsets []int
	var virtual strings.Builder
	for i, seg := range segs {
		if seg.text {
			textIdx = append(textIdx, i)
			offsets = append(offsets, virtual.Len())
			virtual.WriteString(seg.s)
		}
	}
	full := virtual.String()

	if err := validateExpressions(full); err != nil {
		return "", err
	}

	matches := exprPattern.FindAllStringIndex(full, -1)
	if len(matches) == 0 {
		return doc, nil
	}

	// 按虚拟串位置把字符重新分配回原片段：
	// 普通字符回到原位，表达式整体落在其起始字符所属的片段
	newText := make([]strings.Builder, len(textIdx))
	segOf := func(pos int) int {
		k := 0
		for k+1 < len(offsets) && offsets[k+1] <= pos {
			k++
		}
		return k
	}
	pos := 0
	for _, m := range matches {
		for p := pos; p < m[0]; p++ {
			newText[segOf(p)].WriteByte(full[p])
		}
		newText[segOf(m[0])].WriteString(full[m[0]:m[1]])
		pos = m[1]
	}
	for p := pos; p < len(full); p++ {
		newText[segOf(p)].WriteByte(full[p])
	}

	var out strings.Builder
	out.Grow(len(doc))
	ti := 0
	for _, seg := range segs {
		if seg.text {
			out.WriteString(newText[ti].String())
			ti++
			continue
		}
		out.WriteString(seg.s)
	}
	return out.String(), nil
}

// validateExpressions 检查定界符配对：
// 每个 {{ 或 {% 必须在下一个定界符开启之前闭合，否则惰性匹配会把
// 中间的正文整段吞进一个表达式里，宁可在加载时报错也不静默丢内容
func validateExpressions(s string) error {
	for i := 0; i+1 < len(s); {
		if s[i] != '{' || (s[i+1] != '{' && s[i+1] != '%') {
			i++
			continue
		}
		closer := "}}"
		if s[i+1] == '%' {
			closer = "%}"
		}
		rest := s[i+2:]
		end := strings.Index(rest, closer)
		next := nextOpener(rest)
		if end < 0 || (next >= 0 && next < end) {
			return ErrUnbalancedExpr
		}
		i += 2 + end + len(closer)
	}
	return nil
}

func nextOpener(s string) int {
	a := strings.Index(s, "{{")
	b := strings.Index(s, "{%")
	switch {
	case a < 0:
		return b
	case b < 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}
