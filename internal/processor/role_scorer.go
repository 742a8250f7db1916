package processor

import (
	"math"

	"resume-analyzer/internal/constants"
	"resume-analyzer/internal/taxonomy"
	"resume-analyzer/internal/types"
)

// ScoreRoles 计算每个岗位所需技能被覆盖的百分比
func ScoreRoles(skills []string) types.RoleScores {
	detected := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		detected[s] = struct{}{}
	}

	var scores types.RoleScores
	for _, role := range taxonomy.AllRoles {
		overlap := 0
		for s := range detected {
			if taxonomy.Requires(role, s) {
				overlap++
			}
		}
		// AllRoles 只含已定义岗位，Set 不会失败
		_ = scores.Set(role, Percentage(overlap, taxonomy.RequiredSkillCount(role)))
	}
	return scores
}

// ChoosePrimaryRole 选出得分最高的岗位，得分相同时按 AllRoles 顺序取靠前者；
// 最高分低于阈值时返回空
func ChoosePrimaryRole(scores types.RoleScores) types.OptionalRole {
	best := taxonomy.AllRoles[0]
	bestScore := scores.Get(best)
	for _, role := range taxonomy.AllRoles[1:] {
		if s := scores.Get(role); s > bestScore {
			best, bestScore = role, s
		}
	}
	if bestScore < constants.PrimaryRoleThreshold {
		return types.OptionalRole{}
	}
	return types.SomeRole(best)
}

// Percentage 计算 part/total*100 并保留一位小数，total 为 0 时返回 0
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return RoundTo1(float64(part) / float64(total) * 100)
}

// RoundTo1 保留一位小数，恰好落在 .x5 上时取偶数（6.25 -> 6.2）
func RoundTo1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
