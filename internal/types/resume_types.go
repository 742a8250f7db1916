package types

import (
	"encoding/json"
	"fmt"

	"resume-analyzer/internal/taxonomy"
)

// Field 一个可能缺失的提取结果
type Field struct {
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// FoundField 构造一个已找到的字段
func FoundField(v string) Field { return Field{Value: v, Found: true} }

// Or 找到时返回值，否则返回哨兵
func (f Field) Or(sentinel string) string {
	if !f.Found {
		return sentinel
	}
	return f.Value
}

// RoleScores 每个岗位的覆盖率（0-100，保留一位小数）
// 使用定长结构体而不是 map，新增岗位时编译器会在 Get/Set 的 switch 处提醒
type RoleScores struct {
	DataScientist float64 `json:"data_scientist"`
	MLEngineer    float64 `json:"ml_engineer"`
	AIEngineer    float64 `json:"ai_engineer"`
}

// Get 取某岗位得分
func (s RoleScores) Get(r taxonomy.Role) float64 {
	switch r {
	case taxonomy.RoleDataScientist:
		return s.DataScientist
	case taxonomy.RoleMLEngineer:
		return s.MLEngineer
	case taxonomy.RoleAIEngineer:
		return s.AIEngineer
	default:
		return 0
	}
}

// Set 设置某岗位得分，未知岗位返回错误
func (s *RoleScores) Set(r taxonomy.Role, score float64) error {
	switch r {
	case taxonomy.RoleDataScientist:
		s.DataScientist = score
	case taxonomy.RoleMLEngineer:
		s.MLEngineer = score
	case taxonomy.RoleAIEngineer:
		s.AIEngineer = score
	default:
		return fmt.Errorf("unknown role %d", int(r))
	}
	return nil
}

// OptionalRole 可能不存在的主岗位，JSON 中缺失时为 null
type OptionalRole struct {
	Role  taxonomy.Role
	Valid bool
}

// SomeRole 构造一个存在的岗位
func SomeRole(r taxonomy.Role) OptionalRole { return OptionalRole{Role: r, Valid: true} }

func (o OptionalRole) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Role.String())
}

func (o *OptionalRole) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = OptionalRole{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	r, err := taxonomy.ParseRole(s)
	if err != nil {
		return err
	}
	*o = SomeRole(r)
	return nil
}

func (o OptionalRole) String() string {
	if !o.Valid {
		return "none"
	}
	return o.Role.String()
}

// ParsedResume 一次请求内的简历解析结果
type ParsedResume struct {
	Name        Field        `json:"name"`
	Email       Field        `json:"email"`
	Phone       Field        `json:"phone"`
	Skills      []string     `json:"skills"`
	RoleScores  RoleScores   `json:"role_scores"`
	PrimaryRole OptionalRole `json:"primary_role"`
	RawText     string       `json:"raw_text"`
}

// AnalysisResult /analyze 接口的响应体，字段顺序即输出顺序
type AnalysisResult struct {
	CandidateName string       `json:"candidate_name"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone"`
	Skills        []string     `json:"skills"`
	MatchedSkills []string     `json:"matched_skills"`
	MatchScore    float64      `json:"match_score"`
	RoleScores    RoleScores   `json:"role_scores"`
	PrimaryRole   OptionalRole `json:"primary_role"`
}

// ErrorResponse 错误响应体
type ErrorResponse struct {
	Error string `json:"error"`
}
