package processor

import (
	"strings"

	"resume-analyzer/internal/parser"
	"resume-analyzer/internal/types"
)

// ParseResume 从原始简历文本提取姓名、联系方式、技能与岗位得分。
// 姓名取自原文，其余字段基于空白归一化后的文本。
func ParseResume(text string) types.ParsedResume {
	clean := parser.NormalizeWhitespace(text)
	skills := parser.ExtractSkills(clean)
	scores := ScoreRoles(skills)

	return types.ParsedResume{
		Name:        parser.ExtractName(text),
		Email:       parser.ExtractEmail(clean),
		Phone:       parser.ExtractPhone(clean),
		Skills:      skills,
		RoleScores:  scores,
		PrimaryRole: ChoosePrimaryRole(scores),
		RawText:     clean,
	}
}

// JDMatch 简历技能与JD的匹配结果
type JDMatch struct {
	MatchedSkills []string
	MatchScore    float64
}

// MatchJobDescription 返回在 JD（忽略大小写）中出现的技能及其占比
func MatchJobDescription(skills []string, jobDescription string) JDMatch {
	jdLower := strings.ToLower(jobDescription)
	matched := make([]string, 0, len(skills))
	for _, s := range skills {
		if strings.Contains(jdLower, s) {
			matched = append(matched, s)
		}
	}
	return JDMatch{
		MatchedSkills: matched,
		MatchScore:    Percentage(len(matched), len(skills)),
	}
}
