package docx

import (
	"sort"
	"strings"
)

// LoopPrefix 循环占位符的约定前缀（p. 即 project）
const LoopPrefix = "p."

type tokenKind int

const (
	tokenVar tokenKind = iota // {{ name }}
	tokenFor                  // {% for p in projects %}
	tokenEnd                  // {% endfor %}
	tokenOther                // 其他控制标签，渲染时丢弃
)

// token 正文中的一个模板表达式
type token struct {
	kind     tokenKind
	start    int // 含定界符的起止位置
	end      int
	expr     string // 去定界符并修剪后的内容
	loopVar  string // tokenFor: 循环变量名
	listName string // tokenFor: 列表变量名
}

// scan 从归一化后的正文提取表达式 token 流
// 解析与渲染共用同一个扫描器，保证两边看到的占位符一致
func scan(doc string) []token {
	var tokens []token
	for _, m := range exprPattern.FindAllStringIndex(doc, -1) {
		raw := doc[m[0]:m[1]]
		tok := token{start: m[0], end: m[1]}
		if strings.HasPrefix(raw, "{{") {
			tok.kind = tokenVar
			tok.expr = strings.TrimSpace(raw[2 : len(raw)-2])
		} else {
			tok.expr = strings.TrimSpace(raw[2 : len(raw)-2])
			fields := strings.Fields(tok.expr)
			switch {
			case len(fields) == 4 && fields[0] == "for" && fields[2] == "in":
				tok.kind = tokenFor
				tok.loopVar = fields[1]
				tok.listName = fields[3]
			case len(fields) == 1 && fields[0] == "endfor":
				tok.kind = tokenEnd
			default:
				tok.kind = tokenOther
			}
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Placeholders 返回模板声明的全部变量，按单值与循环两类划分
// 循环判定：位于 for 块内且以循环变量为前缀，或直接带 p. 约定前缀
// for 标签引用的列表名（如 projects）由循环占位符隐含，不单独返回
func (t *Template) Placeholders() (singletons, loops []string) {
	seenS := map[string]bool{}
	seenL := map[string]bool{}
	listNames := map[string]bool{}

	var loopVars []string
	for _, tok := range scan(t.document) {
		switch tok.kind {
		case tokenFor:
			loopVars = append(loopVars, tok.loopVar)
			listNames[tok.listName] = true
		case tokenEnd:
			if len(loopVars) > 0 {
				loopVars = loopVars[:len(loopVars)-1]
			}
		case tokenVar:
			name := tok.expr
			if name == "" {
				continue
			}
			inLoop := false
			for _, v := range loopVars {
				if strings.HasPrefix(name, v+".") {
					inLoop = true
					break
				}
			}
			if inLoop || strings.HasPrefix(name, LoopPrefix) {
				seenL[name] = true
			} else {
				seenS[name] = true
			}
		}
	}

	for name := range seenS {
		if listNames[name] {
			continue
		}
		singletons = append(singletons, name)
	}
	for name := range seenL {
		loops = append(loops, name)
	}
	sort.Strings(singletons)
	sort.Strings(loops)
	return singletons, loops
}
