package docx

import (
	"fmt"
	"strconv"
	"strings"
)

// Render 用给定上下文渲染模板，返回新的 docx 字节流
// 单值占位符直接替换；for 块按列表逐项展开，块内以循环变量访问本项字段。
// 上下文中缺失的变量渲染为空串，不报错，允许部分上下文出文档。
func (t *Template) Render(ctx map[string]any) ([]byte, error) {
	document := renderRegion(t.document, ctx, "", nil)
	return t.write(document)
}

// renderRegion 渲染正文的一个区间
// loopVar/entry 非空时处于 for 块展开中，变量优先按本项字段解析
func renderRegion(doc string, ctx map[string]any, loopVar string, entry map[string]any) string {
	tokens := scan(doc)
	var out strings.Builder
	out.Grow(len(doc))

	pos := 0
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		out.WriteString(doc[pos:tok.start])

		switch tok.kind {
		case tokenVar:
			out.WriteString(xmlEscape(toString(resolve(tok.expr, ctx, loopVar, entry))))
			pos = tok.end
			i++
		case tokenFor:
			// 找到同层的 endfor，中间的原始 XML 作为循环体逐项重复
			depth := 1
			j := i + 1
			for j < len(tokens) {
				if tokens[j].kind == tokenFor {
					depth++
				} else if tokens[j].kind == tokenEnd {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			if j >= len(tokens) {
				// 没有配对的 endfor，标签按空渲染
				pos = tok.end
				i++
				continue
			}
			body := doc[tok.end:tokens[j].start]
			for _, item := range asList(resolve(tok.listName, ctx, loopVar, entry)) {
				out.WriteString(renderRegion(body, ctx, tok.loopVar, item))
			}
			pos = tokens[j].end
			i = j + 1
		default:
			// endfor 落单或未知标签，直接吞掉
			pos = tok.end
			i++
		}
	}
	out.WriteString(doc[pos:])
	return out.String()
}

// resolve 解析变量值：循环项字段优先，其次按点号下钻上下文
func resolve(name string, ctx map[string]any, loopVar string, entry map[string]any) any {
	if loopVar != "" && entry != nil {
		if field, ok := strings.CutPrefix(name, loopVar+"."); ok {
			return entry[field]
		}
	}
	if head, rest, ok := strings.Cut(name, "."); ok {
		if nested, isMap := ctx[head].(map[string]any); isMap {
			return resolve(rest, nested, "", nil)
		}
		return nil
	}
	return ctx[name]
}

// asList 容忍 JSON 反序列化产生的两种列表形态
func asList(v any) []map[string]any {
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []any:
		var out []map[string]any
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}
