package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tenderwizard/backend/internal/utils"
	"k8s.io/klog/v2"
)

const systemInstruction = "You are an expert HR consultant and professional resume writer. " +
	"Your goal is to help users complete their resume data structure with professional, " +
	"concise, and impactful language. You must always return valid JSON."

// CompletionRequest 一次字段补全请求
type CompletionRequest struct {
	// Context 当前已组装的简历上下文，作为结构化数据嵌入提示词
	Context map[string]any
	// TargetFields 需要模型生成的字段名列表
	TargetFields []string
	// UserPrompt 用户的自由文本指令，可为空
	UserPrompt string
	// FieldInstructions 占位符 -> 写作约束（length/format/description/other）
	FieldInstructions map[string]map[string]string
}

// Complete 调用模型补全指定字段，返回只含目标字段的部分上下文
// 模型回复必须能解析出一个 JSON 对象，否则返回 ErrMalformedResponse；
// 对象中目标字段之外的键一律丢弃，不会静默混入结果。
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (map[string]any, error) {
	if len(req.TargetFields) == 0 {
		return map[string]any{}, nil
	}

	klog.V(6).Infof("AI 补全: model=%s, fields=%v", c.model, req.TargetFields)

	messages := []ChatMessage{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: buildUserMessage(req)},
	}

	content, err := c.Chat(ctx, messages, true)
	if err != nil {
		return nil, err
	}

	var generated map[string]any
	if err := json.Unmarshal([]byte(utils.ExtractJSON(content)), &generated); err != nil {
		klog.Errorf("模型回复不是合法 JSON: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	// 只保留请求的目标字段
	result := make(map[string]any, len(req.TargetFields))
	for _, field := range req.TargetFields {
		if v, ok := generated[field]; ok {
			result[field] = v
		}
	}
	return result, nil
}

// buildUserMessage 构造补全提示词，上下文以结构化 JSON 形式嵌入
func buildUserMessage(req CompletionRequest) string {
	contextStr := mustIndentJSON(req.Context)
	fieldsStr := utils.ToJSON(req.TargetFields)

	var instr strings.Builder
	if len(req.FieldInstructions) > 0 {
		instr.WriteString("\n# Specific Field Instructions\n")
		for field, rules := range req.FieldInstructions {
			if !fieldTargeted(field, req.TargetFields) {
				continue
			}
			fmt.Fprintf(&instr, "- **%s**:\n", field)
			for _, key := range []string{"length", "format", "description", "other"} {
				if v := rules[key]; v != "" {
					fmt.Fprintf(&instr, "  - %s: %s\n", strings.ToUpper(key[:1])+key[1:], v)
				}
			}
		}
	}

	userPrompt := req.UserPrompt
	if userPrompt == "" {
		userPrompt = "Please fill the missing fields professionally based on the context provided above. " +
			"Infer missing details logically but remain truthful to the provided context."
	}

	return fmt.Sprintf(`# Context
You are analyzing a structured resume data record:
%s

# Task
Please generate content for the following fields: %s.

# Important Rules
1. For simple fields (e.g., "summary"), return the string value.
2. If "projects" is listed in target fields, you must return the COMPLETE "projects" list. Iterate through each project in the context, fill in any missing or empty fields (like description, role) based on the project title and person's background, and keep existing valid data unchanged.
3. Do NOT invent projects that are not in the source list. Only enrich the existing ones.

# User Instruction
%s
%s
# Output Format
Return ONLY a valid JSON object.`, contextStr, fieldsStr, userPrompt, instr.String())
}

// fieldTargeted 判断某字段的写作约束是否与目标字段相关
func fieldTargeted(field string, targets []string) bool {
	for _, t := range targets {
		if t == field || strings.HasPrefix(t, field) {
			return true
		}
	}
	return false
}

func mustIndentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return utils.ToJSON(v)
	}
	return string(data)
}
