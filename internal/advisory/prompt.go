package advisory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/songkhoe/backend/pkg/model"
)

var promptTemplate = template.Must(template.New("advisory").Parse(
	`Dựa trên dữ liệu sức khỏe của một người cao tuổi dưới đây ({{.Days}} ngày gần nhất), hãy phân tích xu hướng và đưa ra các lời khuyên y tế sớm.
Dữ liệu: {{.Data}}

Hãy tập trung vào:
1. Huyết áp & Tim mạch: Có cao liên tục không?
2. Vận động: Có đủ bước chân không?
3. Cân nặng: Thay đổi quá nhanh không?
4. Giấc ngủ: Chất lượng thế nào?

Lưu ý quan trọng: Phải luôn đi kèm lời nhắc đây chỉ là tham khảo từ AI và nên đi khám bác sĩ nếu có triệu chứng lạ.`))

// BuildPrompt renders the instruction text with records embedded as JSON
func BuildPrompt(records []model.HealthRecord) (string, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to encode records: %w", err)
	}

	var buf bytes.Buffer
	err = promptTemplate.Execute(&buf, struct {
		Days int
		Data string
	}{
		Days: len(records),
		Data: string(data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

// Schema is the structured-output contract: an array of advisory objects
// with four required string fields.
func Schema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"category": map[string]any{
					"type":        "string",
					"description": "Phân loại: cardio, activity, body, sleep, general",
				},
				"title": map[string]any{
					"type":        "string",
					"description": "Tiêu đề ngắn gọn",
				},
				"content": map[string]any{
					"type":        "string",
					"description": "Nội dung lời khuyên chi tiết bằng tiếng Việt",
				},
				"severity": map[string]any{
					"type":        "string",
					"description": "Mức độ cảnh báo: low, medium, high",
				},
			},
			"required": []string{"category", "title", "content", "severity"},
		},
	}
}

// ErrEmptyResponse is returned by Parse when the model sent no text
var ErrEmptyResponse = errors.New("empty advisory response")

// Parse decodes the model's text body. It accepts a bare JSON array or an
// object of the form {"advisories": [...]}, optionally wrapped in a markdown
// code fence.
func Parse(text string) ([]model.AdvisoryEntry, error) {
	body := stripCodeFence(strings.TrimSpace(text))
	if body == "" {
		return nil, ErrEmptyResponse
	}

	var entries []model.AdvisoryEntry
	switch body[0] {
	case '[':
		if err := json.Unmarshal([]byte(body), &entries); err != nil {
			return nil, fmt.Errorf("invalid advisory array: %w", err)
		}
	case '{':
		var wrapped struct {
			Advisories *[]model.AdvisoryEntry `json:"advisories"`
		}
		if err := json.Unmarshal([]byte(body), &wrapped); err != nil {
			return nil, fmt.Errorf("invalid advisory object: %w", err)
		}
		if wrapped.Advisories == nil {
			return nil, errors.New("advisory object has no advisories field")
		}
		entries = *wrapped.Advisories
	default:
		return nil, fmt.Errorf("unexpected advisory payload starting with %q", body[0])
	}

	if entries == nil {
		entries = []model.AdvisoryEntry{}
	}
	return entries, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the info string, e.g. ```json
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
