package domain

// Urgency 紧急程度
type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyElevated Urgency = "elevated"
	UrgencyHigh     Urgency = "high"
)

// NeedMode 用户需求模式
type NeedMode string

const (
	ModeInformational  NeedMode = "informational"
	ModeAnalysis       NeedMode = "analysis"
	ModeProblemSolving NeedMode = "problem_solving"
)

// Affect 情感信号
type Affect string

const (
	AffectNeutral  Affect = "neutral"
	AffectPositive Affect = "positive"
	AffectNegative Affect = "negative"
)

// UserNeedState 用户需求状态
type UserNeedState struct {
	Urgency Urgency
	Affect  Affect
	Mode    NeedMode
}

// TaskAnalysis 任务分析结果（RouteRequest 的纯函数）
type TaskAnalysis struct {
	TaskType             TaskType
	RequiredCapabilities []string
	SecondaryTasks       []TaskType
	Hints                map[string]string
	Confidence           float64
	ToolIntents          []string
	NeedState            UserNeedState
	PipelineStep         string
}

// NewTaskAnalysis 创建任务分析结果
func NewTaskAnalysis(taskType TaskType, confidence float64) *TaskAnalysis {
	return &TaskAnalysis{
		TaskType:             taskType,
		RequiredCapabilities: make([]string, 0),
		SecondaryTasks:       make([]TaskType, 0),
		Hints:                make(map[string]string),
		Confidence:           confidence,
		ToolIntents:          make([]string, 0),
		NeedState: UserNeedState{
			Urgency: UrgencyNormal,
			Affect:  AffectNeutral,
			Mode:    ModeInformational,
		},
	}
}

// HasCapability 检查是否要求某能力
func (a *TaskAnalysis) HasCapability(capability string) bool {
	for _, c := range a.RequiredCapabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// AddSecondaryTask 记录次要任务信号
// 与主任务相同的信号直接丢弃
func (a *TaskAnalysis) AddSecondaryTask(t TaskType) {
	if t == a.TaskType {
		return
	}
	for _, existing := range a.SecondaryTasks {
		if existing == t {
			return
		}
	}
	a.SecondaryTasks = append(a.SecondaryTasks, t)
}

// DecisionWeights 决策向量权重
type DecisionWeights struct {
	UrgencyWeight    float64
	AffectWeight     float64
	PersonaWeight    float64
	CapabilityWeight float64
}

// Cognition 认知推理结果（分析 + 画像 的纯函数）
type Cognition struct {
	PrimaryGoal      TaskType
	RecommendedTools []string
	NeedUrgency      Urgency
	PersonaBias      string
	Weights          DecisionWeights
	Narrative        string
}
