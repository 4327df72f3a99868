package grounding

import "fmt"

// Observation 是浏览器在某一步的原始观测。
type Observation struct {
	URL  string `json:"url"`
	Goal string `json:"goal,omitempty"`
}

// ObservationFromMap 从 agent 的观测字典中取出 url 与 goal。
// 缺失或非字符串的字段视为空。
func ObservationFromMap(obs map[string]any) Observation {
	return Observation{
		URL:  stringField(obs, "url"),
		Goal: stringField(obs, "goal"),
	}
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
