package taxonomy

import "fmt"

// Role 目标岗位，只有三个固定取值
type Role int

const (
	RoleDataScientist Role = iota
	RoleMLEngineer
	RoleAIEngineer
)

// AllRoles 岗位的固定遍历顺序，评分平局时靠前者胜出
var AllRoles = [...]Role{RoleDataScientist, RoleMLEngineer, RoleAIEngineer}

var roleNames = [...]string{
	RoleDataScientist: "data_scientist",
	RoleMLEngineer:    "ml_engineer",
	RoleAIEngineer:    "ai_engineer",
}

func (r Role) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

// Valid 是否为已定义岗位
func (r Role) Valid() bool {
	return r >= RoleDataScientist && r <= RoleAIEngineer
}

// ParseRole 由岗位标识解析 Role
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if roleNames[r] == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role: %q", s)
}

// MarshalText 序列化为岗位标识
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role value %d", int(r))
	}
	return []byte(roleNames[r]), nil
}

// UnmarshalText 从岗位标识反序列化
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
