package biz

import (
	"regexp"
	"strconv"
	"strings"

	"kire/cmd/routing-engine/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// TaskRule 任务分类规则
type TaskRule struct {
	Name         string
	TaskType     domain.TaskType
	Confidence   float64
	Keywords     []string
	Patterns     []*regexp.Regexp
	Capabilities []string
	Priority     int // 越小越优先
}

// TaskAnalyzer 任务分析器
// 纯函数组件：不做I/O，任何输入都返回结果而不报错
type TaskAnalyzer struct {
	rules  []*TaskRule
	logger *log.Helper
}

// roleTaskBias 角色到任务类型的偏置表
var roleTaskBias = map[string]domain.TaskType{
	"developer": domain.TaskTypeCode,
	"engineer":  domain.TaskTypeCode,
	"analyst":   domain.TaskTypeReasoning,
	"writer":    domain.TaskTypeSummarization,
}

// pipelineSteps 任务类型到流水线步骤的静态表
var pipelineSteps = map[domain.TaskType]string{
	domain.TaskTypeChat:          "response_synthesis",
	domain.TaskTypeCode:          "code_generation",
	domain.TaskTypeReasoning:     "reasoning_core",
	domain.TaskTypeSummarization: "output_rendering",
	domain.TaskTypeEmbedding:     "memory_indexing",
}

// taskCapabilities 任务类型隐含的能力集合
var taskCapabilities = map[domain.TaskType][]string{
	domain.TaskTypeChat:          {"text"},
	domain.TaskTypeCode:          {"text", "code"},
	domain.TaskTypeReasoning:     {"reasoning"},
	domain.TaskTypeSummarization: {"text"},
	domain.TaskTypeEmbedding:     {"embedding"},
}

// NewTaskAnalyzer 创建任务分析器
func NewTaskAnalyzer(logger log.Logger) *TaskAnalyzer {
	a := &TaskAnalyzer{
		rules:  make([]*TaskRule, 0),
		logger: log.NewHelper(logger),
	}
	a.initDefaultRules()
	return a
}

// initDefaultRules 初始化默认分类规则
// 规则顺序即匹配顺序：摘要 → 代码 → 嵌入 → 推理 → 对话兜底，
// 避免"write python code ..."里的疑问词落入推理规则
func (a *TaskAnalyzer) initDefaultRules() {
	a.AddRule(&TaskRule{
		Name:       "summarization_request",
		TaskType:   domain.TaskTypeSummarization,
		Confidence: 0.8,
		Keywords: []string{
			"summarize", "summary", "tl;dr", "condense",
			"shorten", "recap", "摘要", "总结",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(sum up|boil down|in brief)`),
		},
		Priority: 10,
	})

	a.AddRule(&TaskRule{
		Name:       "code_generation",
		TaskType:   domain.TaskTypeCode,
		Confidence: 0.8,
		Keywords: []string{
			"code", "python", "golang", "javascript", "function",
			"script", "program", "debug", "implement", "refactor",
			"compile", "代码", "编程",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(write|fix|review)\s+.*\b(code|function|script)\b`),
			regexp.MustCompile("```"),
		},
		Priority: 20,
	})

	a.AddRule(&TaskRule{
		Name:       "embedding_request",
		TaskType:   domain.TaskTypeEmbedding,
		Confidence: 0.8,
		Keywords: []string{
			"embedding", "embed this", "vectorize", "vector representation",
		},
		Priority: 30,
	})

	a.AddRule(&TaskRule{
		Name:       "reasoning_request",
		TaskType:   domain.TaskTypeReasoning,
		Confidence: 0.75,
		Keywords: []string{
			"why", "explain", "logic", "reason", "analyze",
			"prove", "deduce", "step by step", "为什么", "分析",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(why|how come)\s+`),
			regexp.MustCompile(`(?i)explain\s+the`),
		},
		Priority: 40,
	})

	a.AddRule(&TaskRule{
		Name:       "general_chat",
		TaskType:   domain.TaskTypeChat,
		Confidence: 0.5,
		Keywords: []string{
			"hello", "hi", "thanks", "bye", "你好", "谢谢",
		},
		Priority: 100,
	})
}

// AddRule 添加规则
func (a *TaskAnalyzer) AddRule(rule *TaskRule) {
	a.rules = append(a.rules, rule)
}

// Analyze 分析查询，产出任务分析结果
func (a *TaskAnalyzer) Analyze(req *domain.RouteRequest) *domain.TaskAnalysis {
	query := strings.ToLower(strings.TrimSpace(req.Query))

	// 1. 显式任务提示直接采信
	if hint := a.explicitHint(req); hint != "" {
		analysis := domain.NewTaskAnalysis(hint, 0.95)
		analysis.Hints["task_hint"] = string(hint)
		a.finish(analysis, query, req)
		return analysis
	}

	// 2. 规则匹配
	matched, score := a.matchRules(query)

	var analysis *domain.TaskAnalysis
	switch {
	case matched != nil:
		analysis = domain.NewTaskAnalysis(matched.TaskType, matched.Confidence)
		analysis.Hints["matched_rule"] = matched.Name
		analysis.Hints["rule_score"] = formatScore(score)
	case a.roleBias(req) != "":
		// 文本信号弱时采用角色偏置
		biased := a.roleBias(req)
		analysis = domain.NewTaskAnalysis(biased, 0.6)
		analysis.Hints["matched_rule"] = "role_bias"
	default:
		// 低信号输入默认chat
		analysis = domain.NewTaskAnalysis(domain.TaskTypeChat, 0.5)
		analysis.Hints["matched_rule"] = "low_signal_default"
	}

	a.finish(analysis, query, req)
	return analysis
}

// explicitHint 提取显式任务提示（context.task_hint 优先于顶层hint）
func (a *TaskAnalyzer) explicitHint(req *domain.RouteRequest) domain.TaskType {
	if req.Context.TaskHint != "" {
		return req.Context.TaskHint
	}
	if req.TaskTypeHint != "" && req.TaskTypeHint != domain.TaskTypeUnknown {
		return req.TaskTypeHint
	}
	return ""
}

// matchRules 遍历规则取最佳匹配
func (a *TaskAnalyzer) matchRules(query string) (*TaskRule, float64) {
	var best *TaskRule
	bestScore := 0.0

	for _, rule := range a.rules {
		score := a.ruleScore(query, rule)
		if score <= 0 {
			continue
		}
		if best == nil || rule.Priority < best.Priority ||
			(rule.Priority == best.Priority && score > bestScore) {
			best = rule
			bestScore = score
		}
	}

	return best, bestScore
}

// ruleScore 计算规则得分：关键词每个+0.2，正则每个+0.3
func (a *TaskAnalyzer) ruleScore(query string, rule *TaskRule) float64 {
	score := 0.0

	for _, keyword := range rule.Keywords {
		if strings.Contains(query, strings.ToLower(keyword)) {
			score += 0.2
		}
	}
	for _, pattern := range rule.Patterns {
		if pattern.MatchString(query) {
			score += 0.3
		}
	}

	return score
}

// roleBias 角色偏置的任务类型
func (a *TaskAnalyzer) roleBias(req *domain.RouteRequest) domain.TaskType {
	for _, role := range req.Context.Roles {
		if t, ok := roleTaskBias[strings.ToLower(role)]; ok {
			return t
		}
	}
	return ""
}

// finish 补全能力集合、工具意图、需求状态、次要任务与流水线步骤
func (a *TaskAnalyzer) finish(analysis *domain.TaskAnalysis, query string, req *domain.RouteRequest) {
	caps, ok := taskCapabilities[analysis.TaskType]
	if !ok {
		caps = []string{"text"}
	}
	analysis.RequiredCapabilities = append(analysis.RequiredCapabilities, caps...)

	// 请求显式声明的能力并入要求集合，与任务隐含能力一起参与候选过滤
	for _, c := range req.Requirements.Capabilities {
		if c != "" && !containsString(analysis.RequiredCapabilities, c) {
			analysis.RequiredCapabilities = append(analysis.RequiredCapabilities, c)
		}
	}

	analysis.ToolIntents = a.extractToolIntents(query, req)
	analysis.NeedState = a.deriveNeedState(query)
	a.collectSecondaryTasks(analysis, req)

	if req.PipelineStepHint != "" {
		analysis.PipelineStep = req.PipelineStepHint
	} else if step, ok := pipelineSteps[analysis.TaskType]; ok {
		analysis.PipelineStep = step
	} else {
		analysis.PipelineStep = pipelineSteps[domain.TaskTypeChat]
	}

	a.logger.Debugf("task analyzed: type=%s, confidence=%.2f, step=%s, rule=%s",
		analysis.TaskType, analysis.Confidence, analysis.PipelineStep, analysis.Hints["matched_rule"])
}

// extractToolIntents 从动词/名词提取工具意图并合并上下文建议
func (a *TaskAnalyzer) extractToolIntents(query string, req *domain.RouteRequest) []string {
	intents := make([]string, 0)
	seen := make(map[string]bool)

	add := func(intent string) {
		if !seen[intent] {
			seen[intent] = true
			intents = append(intents, intent)
		}
	}

	for _, verb := range []string{"run", "execute", "calculate", "compute"} {
		if strings.Contains(query, verb) {
			add("code_execution")
			break
		}
	}
	for _, word := range []string{"browse", "docs", "documentation", "look up", "search the web"} {
		if strings.Contains(query, word) {
			add("web_browse")
			break
		}
	}

	for _, suggested := range req.Context.SuggestedTools {
		add(suggested)
	}

	return intents
}

// deriveNeedState 从紧急标记、情感词和动词类别推导需求状态
func (a *TaskAnalyzer) deriveNeedState(query string) domain.UserNeedState {
	state := domain.UserNeedState{
		Urgency: domain.UrgencyNormal,
		Affect:  domain.AffectNeutral,
		Mode:    domain.ModeInformational,
	}

	for _, marker := range []string{"urgent", "asap", "immediately", "right now", "emergency"} {
		if strings.Contains(query, marker) {
			state.Urgency = domain.UrgencyHigh
			break
		}
	}
	if state.Urgency == domain.UrgencyNormal {
		for _, marker := range []string{"quickly", "soon", "fast", "hurry"} {
			if strings.Contains(query, marker) {
				state.Urgency = domain.UrgencyElevated
				break
			}
		}
	}

	for _, word := range []string{"frustrated", "angry", "annoyed", "broken", "hate", "terrible"} {
		if strings.Contains(query, word) {
			state.Affect = domain.AffectNegative
			break
		}
	}
	if state.Affect == domain.AffectNeutral {
		for _, word := range []string{"thanks", "great", "love", "awesome"} {
			if strings.Contains(query, word) {
				state.Affect = domain.AffectPositive
				break
			}
		}
	}

	switch {
	case containsAny(query, []string{"fix", "run", "debug", "solve", "execute", "repair"}):
		state.Mode = domain.ModeProblemSolving
	case containsAny(query, []string{"why", "analyze", "compare", "evaluate"}):
		state.Mode = domain.ModeAnalysis
	}

	return state
}

// collectSecondaryTasks 从历史轮次收集与主任务冲突的信号
func (a *TaskAnalyzer) collectSecondaryTasks(analysis *domain.TaskAnalysis, req *domain.RouteRequest) {
	for _, turn := range req.Context.History {
		if turn.Role != "user" {
			continue
		}
		prior := strings.ToLower(strings.TrimSpace(turn.Content))
		if prior == "" {
			continue
		}
		if matched, _ := a.matchRules(prior); matched != nil {
			analysis.AddSecondaryTask(matched.TaskType)
		}
	}

	if len(analysis.SecondaryTasks) > 0 {
		names := make([]string, 0, len(analysis.SecondaryTasks))
		for _, t := range analysis.SecondaryTasks {
			names = append(names, string(t))
		}
		analysis.Hints["secondary_tasks"] = strings.Join(names, ",")
	}
}

func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64)
}
