package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"contest-core/internal/contest"
	"contest-core/internal/model"
	"contest-core/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 说明：
//   - 令牌使用统计导出为 Excel (.xlsx)，隐藏参赛者不导出
//   - 比赛日程导出为 iCalendar (.ics)，分析模式启用时附带分析窗口
//   - 返回内容与建议文件名，由 Handler 层设置响应头后写出
type ExportService interface {
	// ExportTokenUsage 导出令牌使用统计
	ExportTokenUsage(ctx context.Context, contestID string) (*bytes.Buffer, string, error)
	// ExportCalendar 导出比赛日程
	ExportCalendar(ctx context.Context, contestID string) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	now    Clock
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, clock Clock, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, now: clock, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportTokenUsage 导出令牌使用统计
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet "令牌使用"
//   - 第 1 行标题，第 2 行表头：用户 | 已使用 | 当前可用 | 最近使用时间
//   - 每个非隐藏参赛者一行，按用户 ID 排序

func (s *exportService) ExportTokenUsage(ctx context.Context, contestID string) (*bytes.Buffer, string, error) {
	// 1. 比赛与令牌规则
	c, err := loadContest(ctx, s.repo, contestID, s.logger)
	if err != nil {
		return nil, "", err
	}
	policy, err := c.TokenPolicy()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrContestConfigInvalid, err)
	}

	// 2. 参赛者（排除隐藏）
	all, err := s.repo.Participation.ListByContest(ctx, contestID)
	if err != nil {
		s.logger.Error("查询参赛者失败", zap.String("contest_id", contestID), zap.Error(err))
		return nil, "", err
	}
	participants := make([]model.Participation, 0, len(all))
	ids := make([]string, 0, len(all))
	for _, p := range all {
		if p.Hidden {
			continue
		}
		participants = append(participants, p)
		ids = append(ids, p.ParticipationID)
	}
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].UserID < participants[j].UserID
	})

	// 3. 使用汇总
	usage, err := s.repo.TokenUse.CountByParticipations(ctx, ids)
	if err != nil {
		s.logger.Error("统计令牌使用失败", zap.String("contest_id", contestID), zap.Error(err))
		return nil, "", err
	}

	// 4. 生成 Excel
	now := s.now()
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "令牌使用"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 24)
	f.SetColWidth(sheetName, "B", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 24)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s 令牌使用统计（%s）", c.Name, formatTime(now)))
	f.MergeCell(sheetName, "A1", "D1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"用户", "已使用", "当前可用", "最近使用时间"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", "D2", headerStyle)

	// 数据行
	row := 3
	for _, p := range participants {
		summary := usage[p.ParticipationID]
		// 可用数只取决于已使用次数
		avail := contest.AvailableTokens(policy, make(contest.History, summary.Count), c.Start, now)

		f.SetCellValue(sheetName, cell("A", row), p.UserID)
		f.SetCellValue(sheetName, cell("B", row), summary.Count)
		if avail.Infinite {
			f.SetCellValue(sheetName, cell("C", row), "不限")
		} else {
			f.SetCellValue(sheetName, cell("C", row), avail.Count)
		}
		if summary.Count > 0 {
			f.SetCellValue(sheetName, cell("D", row), formatTime(summary.LastUsedAt))
		} else {
			f.SetCellValue(sheetName, cell("D", row), "-")
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("令牌使用_%s.xlsx", c.Name)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar 导出比赛日程（RFC 5545）
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportCalendar(ctx context.Context, contestID string) ([]byte, string, error) {
	c, err := loadContest(ctx, s.repo, contestID, s.logger)
	if err != nil {
		return nil, "", err
	}

	cal := buildContestCalendar(c, s.now())
	filename := fmt.Sprintf("%s.ics", c.Name)
	return []byte(cal.Serialize()), filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
