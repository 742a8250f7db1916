package taxonomy

import (
	"sort"
	"strings"
)

// Category 技能分类名称
type Category string

const (
	CategoryProgramming     Category = "programming"
	CategoryMLCore          Category = "ml_core"
	CategoryDeepLearning    Category = "deep_learning"
	CategoryFrameworks      Category = "frameworks"
	CategoryDataEngineering Category = "data_engineering"
	CategoryStatistics      Category = "statistics"
	CategoryVizBI           Category = "viz_bi"
	CategoryCloudMLE        Category = "cloud_mle"
)

// coreSkills 分类 -> 技能短语（小写，保持声明顺序）
var coreSkills = map[Category][]string{
	CategoryProgramming: {
		"python", "r", "sql", "scala", "java", "c++",
		"bash", "pyspark",
	},
	CategoryMLCore: {
		"machine learning", "supervised learning", "unsupervised learning",
		"regression", "classification", "clustering", "recommendation systems",
		"feature engineering", "model evaluation", "cross validation",
		"hyperparameter tuning",
	},
	CategoryDeepLearning: {
		"deep learning", "neural networks", "cnn", "rnn", "lstm",
		"transformers", "bert", "gpt", "computer vision",
		"nlp", "natural language processing",
	},
	CategoryFrameworks: {
		"scikit-learn", "sklearn", "tensorflow", "pytorch",
		"keras", "xgboost", "lightgbm", "catboost",
	},
	CategoryDataEngineering: {
		"data pipelines", "etl", "airflow", "spark", "hadoop",
		"kafka", "data warehouse", "snowflake", "bigquery",
	},
	CategoryStatistics: {
		"statistics", "probability", "hypothesis testing",
		"a/b testing", "bayesian", "time series",
	},
	CategoryVizBI: {
		"tableau", "power bi", "looker", "superset",
		"matplotlib", "seaborn", "plotly",
	},
	CategoryCloudMLE: {
		"aws", "azure", "gcp", "sagemaker", "vertex ai",
		"docker", "kubernetes", "mlops", "ci/cd",
	},
}

// roleCategories 每个岗位由哪些分类组成
var roleCategories = map[Role][]Category{
	RoleDataScientist: {CategoryProgramming, CategoryMLCore, CategoryStatistics, CategoryVizBI},
	RoleMLEngineer:    {CategoryProgramming, CategoryMLCore, CategoryFrameworks, CategoryCloudMLE, CategoryDataEngineering},
	RoleAIEngineer:    {CategoryProgramming, CategoryDeepLearning, CategoryFrameworks, CategoryCloudMLE},
}

var (
	// roleSkills 岗位 -> 所需技能集合，init 中构建后只读
	roleSkills map[Role]map[string]struct{}
	// allSkills 所有已知技能，小写、去重、排序
	allSkills []string
)

func init() {
	roleSkills = make(map[Role]map[string]struct{}, len(AllRoles))
	union := make(map[string]struct{})
	for _, role := range AllRoles {
		set := make(map[string]struct{})
		for _, category := range roleCategories[role] {
			for _, skill := range coreSkills[category] {
				s := strings.ToLower(skill)
				set[s] = struct{}{}
				union[s] = struct{}{}
			}
		}
		roleSkills[role] = set
	}

	allSkills = make([]string, 0, len(union))
	for s := range union {
		allSkills = append(allSkills, s)
	}
	sort.Strings(allSkills)
}

// AllSkills 返回全部技能短语的副本（已排序）
func AllSkills() []string {
	out := make([]string, len(allSkills))
	copy(out, allSkills)
	return out
}

// IsKnownSkill 判断短语是否属于技能词表
func IsKnownSkill(skill string) bool {
	i := sort.SearchStrings(allSkills, skill)
	return i < len(allSkills) && allSkills[i] == skill
}

// RequiredSkillCount 岗位所需技能数量
func RequiredSkillCount(role Role) int {
	return len(roleSkills[role])
}

// Requires 判断岗位是否要求某技能
func Requires(role Role, skill string) bool {
	_, ok := roleSkills[role][skill]
	return ok
}
