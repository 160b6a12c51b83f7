package domain

import "time"

// ModelAssignment 任务类型到模型的指派（属于用户画像的配置数据）
type ModelAssignment struct {
	TaskType   TaskType
	Provider   string
	Model      string
	Parameters map[string]string
}

// UserProfile 用户画像
// 每个用户/租户同一时刻只有一个激活画像；路由引擎只读
type UserProfile struct {
	ID            string
	Name          string
	UserID        string
	TenantID      string
	Assignments   map[TaskType]*ModelAssignment
	FallbackChain []string
	IsActive      bool
	UpdatedAt     time.Time
}

// NewUserProfile 创建用户画像
func NewUserProfile(id, name, userID, tenantID string) *UserProfile {
	return &UserProfile{
		ID:            id,
		Name:          name,
		UserID:        userID,
		TenantID:      tenantID,
		Assignments:   make(map[TaskType]*ModelAssignment),
		FallbackChain: make([]string, 0),
		IsActive:      true,
		UpdatedAt:     time.Now(),
	}
}

// GetAssignment 获取指定任务类型的模型指派
func (p *UserProfile) GetAssignment(taskType TaskType) *ModelAssignment {
	if p == nil {
		return nil
	}
	return p.Assignments[taskType]
}

// SetAssignment 设置模型指派
func (p *UserProfile) SetAssignment(a *ModelAssignment) {
	p.Assignments[a.TaskType] = a
	p.UpdatedAt = time.Now()
}

// DefaultPersona 画像默认人格偏好
func (p *UserProfile) DefaultPersona() string {
	if p == nil {
		return ""
	}
	// 画像名兼作人格标签，管理端约定
	return p.Name
}
