package scheduler

// Kind selects the provider chain and fallback content for a task.
type Kind string

const (
	KindProfileAnalysis   Kind = "profile_analysis"
	KindCareerExploration Kind = "career_exploration"
	KindSkillDevelopment  Kind = "skill_development"
	KindMarketAnalysis    Kind = "market_analysis"
	KindRoadmapStrategy   Kind = "roadmap_strategy"
	KindLearningResources Kind = "learning_resources"
	KindReportGeneration  Kind = "report_generation"
)

// TaskStatus represents the current state of a task within one run.
type TaskStatus int

const (
	TaskPending   TaskStatus = iota // Not started
	TaskRunning                     // Currently executing
	TaskCompleted                   // Finished with provider output
	TaskDegraded                    // Finished with placeholder content
	TaskFailed                      // Aborted by a configuration error
)

func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskDegraded:
		return "degraded"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Agent is the persona a task is performed as.
type Agent struct {
	Role      string
	Goal      string
	Backstory string
}

// Task is one step of the sequence.
type Task struct {
	ID             string   // Unique identifier
	Kind           Kind     // Chain and placeholder selector
	Name           string   // Human-readable name
	Agent          Agent    // Persona used in the system prompt
	Description    string   // Instruction; may contain {user_info}
	ExpectedOutput string   // Opaque description of the result
	DependsOn      []string // Task IDs whose output this task reads
	Status         TaskStatus
	Result         string // Output from execution (populated after completion)
}
