package contest

import "time"

// Phase 比赛所处的时间阶段。
// 数值与持久化 / 接口约定一致：-1 ~ 3，按时间先后单调递增。
type Phase int

const (
	PhaseBeforeContest              Phase = -1 // 比赛未开始
	PhaseContestActive              Phase = 0  // 比赛进行中
	PhaseAfterContestBeforeAnalysis Phase = 1  // 比赛已结束，分析模式未开始
	PhaseAnalysisActive             Phase = 2  // 分析模式进行中
	PhaseAfterAnalysisOrDisabled    Phase = 3  // 分析模式已结束或未启用
)

var phaseNames = map[Phase]string{
	PhaseBeforeContest:              "before_contest",
	PhaseContestActive:              "contest_active",
	PhaseAfterContestBeforeAnalysis: "after_contest_before_analysis",
	PhaseAnalysisActive:             "analysis_active",
	PhaseAfterAnalysisOrDisabled:    "after_analysis_or_disabled",
}

// String 返回阶段的接口名称
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// AllowsSubmission 该阶段是否允许参赛者提交（比赛中与分析模式中）
func (p Phase) AllowsSubmission() bool {
	return p == PhaseContestActive || p == PhaseAnalysisActive
}

// IsOfficial 该阶段的提交是否计入正式成绩
func (p Phase) IsOfficial() bool {
	return p == PhaseContestActive
}

// Schedule 比赛时间边界快照（构造后不可变，按值传递）
type Schedule struct {
	Start           time.Time
	Stop            time.Time
	AnalysisEnabled bool
	AnalysisStart   time.Time
	AnalysisStop    time.Time
}

// NewSchedule 校验时间边界并创建 Schedule。
// 要求 start ≤ stop ≤ analysisStart ≤ analysisStop，与是否启用分析模式无关。
func NewSchedule(start, stop time.Time, analysisEnabled bool, analysisStart, analysisStop time.Time) (Schedule, error) {
	if stop.Before(start) {
		return Schedule{}, configErr("stop", "结束时间不能早于开始时间")
	}
	if analysisStart.Before(stop) {
		return Schedule{}, configErr("analysis_start", "分析开始时间不能早于比赛结束时间")
	}
	if analysisStop.Before(analysisStart) {
		return Schedule{}, configErr("analysis_stop", "分析结束时间不能早于分析开始时间")
	}
	return Schedule{
		Start:           start,
		Stop:            stop,
		AnalysisEnabled: analysisEnabled,
		AnalysisStart:   analysisStart,
		AnalysisStop:    analysisStop,
	}, nil
}

// Phase 计算 t 时刻比赛所处阶段。
// 边界取闭区间右端：t == Start 与 t == Stop 都属于比赛进行中。
func (s Schedule) Phase(t time.Time) Phase {
	if t.Before(s.Start) {
		return PhaseBeforeContest
	}
	if !t.After(s.Stop) {
		return PhaseContestActive
	}
	if !s.AnalysisEnabled {
		return PhaseAfterAnalysisOrDisabled
	}
	if t.Before(s.AnalysisStart) {
		return PhaseAfterContestBeforeAnalysis
	}
	if !t.After(s.AnalysisStop) {
		return PhaseAnalysisActive
	}
	return PhaseAfterAnalysisOrDisabled
}
