package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/policy"
	"github.com/yukikurage/taskboard-api/internal/repository"
)

// ReportService computes read-only progress rollups over the tasks the
// requesting actor may see. Admins get global numbers.
type ReportService struct {
	taskRepo repository.TaskRepository
	now      func() time.Time
}

func NewReportService(taskRepo repository.TaskRepository) *ReportService {
	return &ReportService{taskRepo: taskRepo, now: time.Now}
}

// Labels indexed by ISO weekday minus one.
var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

type WeeklyProgress struct {
	Day            string `json:"day"`
	TotalTasks     int64  `json:"totalTasks"`
	CompletedTasks int64  `json:"completedTasks"`
	InProgress     int64  `json:"inProgress"`
}

type MonthlyProgress struct {
	Month          string `json:"month"`
	Year           int    `json:"year"`
	TotalTasks     int64  `json:"totalTasks"`
	CompletedTasks int64  `json:"completedTasks"`
	InProgress     int64  `json:"inProgress"`
}

type OverallProgress struct {
	TotalTasks      int64   `json:"totalTasks"`
	CompletedTasks  int64   `json:"completedTasks"`
	OverallProgress float64 `json:"overallProgress"`
}

type UserProgress struct {
	TotalTasks     int64   `json:"totalTasks"`
	CompletedTasks int64   `json:"completedTasks"`
	UserProgress   float64 `json:"userProgress"`
}

type CategoryProgress struct {
	Category       string `json:"category"`
	TotalTasks     int64  `json:"totalTasks"`
	CompletedTasks int64  `json:"completedTasks"`
}

func percent(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

// isoWeekday maps time.Weekday (Sunday = 0) to ISO numbering (Monday = 1 .. Sunday = 7).
func isoWeekday(t time.Time) int {
	if wd := t.Weekday(); wd != time.Sunday {
		return int(wd)
	}
	return 7
}

// Weekly groups tasks created in the trailing 7 days by UTC weekday, Monday first.
// The window starts at midnight six days back so each label covers one calendar day.
func (s *ReportService) Weekly(ctx context.Context, actor models.Actor) ([]WeeklyProgress, error) {
	now := s.now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -6)
	samples, err := s.taskRepo.ProgressSamples(ctx, repository.TaskFilter{
		Visibility:  policy.ListFilterFor(actor),
		CreatedFrom: &from,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly progress: %w", err)
	}

	var buckets [7]WeeklyProgress
	for _, sample := range samples {
		b := &buckets[isoWeekday(sample.CreatedAt.UTC())-1]
		b.TotalTasks++
		if sample.Completed {
			b.CompletedTasks++
		}
	}

	result := []WeeklyProgress{}
	for i, b := range buckets {
		if b.TotalTasks == 0 {
			continue
		}
		b.Day = weekdayLabels[i]
		b.InProgress = b.TotalTasks - b.CompletedTasks
		result = append(result, b)
	}
	return result, nil
}

// Monthly groups tasks created in the current and previous five calendar
// months by UTC month, oldest first.
func (s *ReportService) Monthly(ctx context.Context, actor models.Actor) ([]MonthlyProgress, error) {
	now := s.now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -5, 0)
	samples, err := s.taskRepo.ProgressSamples(ctx, repository.TaskFilter{
		Visibility:  policy.ListFilterFor(actor),
		CreatedFrom: &from,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly progress: %w", err)
	}

	type key struct {
		year  int
		month time.Month
	}
	buckets := map[key]*MonthlyProgress{}
	for _, sample := range samples {
		created := sample.CreatedAt.UTC()
		k := key{created.Year(), created.Month()}
		b, ok := buckets[k]
		if !ok {
			b = &MonthlyProgress{Month: created.Month().String()[:3], Year: created.Year()}
			buckets[k] = b
		}
		b.TotalTasks++
		if sample.Completed {
			b.CompletedTasks++
		}
	}

	keys := make([]key, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	result := make([]MonthlyProgress, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		b.InProgress = b.TotalTasks - b.CompletedTasks
		result = append(result, *b)
	}
	return result, nil
}

// Overall returns completion over every visible task.
func (s *ReportService) Overall(ctx context.Context, actor models.Actor) (*OverallProgress, error) {
	stats, err := s.taskRepo.Stats(ctx, repository.TaskFilter{Visibility: policy.ListFilterFor(actor)})
	if err != nil {
		return nil, fmt.Errorf("failed to load overall progress: %w", err)
	}
	return &OverallProgress{
		TotalTasks:      stats.Total,
		CompletedTasks:  stats.Completed,
		OverallProgress: percent(stats.Completed, stats.Total),
	}, nil
}

// PerUser returns completion over visible tasks assigned to userID.
func (s *ReportService) PerUser(ctx context.Context, actor models.Actor, userID uint64) (*UserProgress, error) {
	stats, err := s.taskRepo.Stats(ctx, repository.TaskFilter{
		Visibility:   policy.ListFilterFor(actor),
		AssignedToID: &userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load user progress: %w", err)
	}
	return &UserProgress{
		TotalTasks:     stats.Total,
		CompletedTasks: stats.Completed,
		UserProgress:   percent(stats.Completed, stats.Total),
	}, nil
}

// ByCategory returns completion per category over visible tasks.
func (s *ReportService) ByCategory(ctx context.Context, actor models.Actor) ([]CategoryProgress, error) {
	stats, err := s.taskRepo.CategoryStats(ctx, repository.TaskFilter{Visibility: policy.ListFilterFor(actor)})
	if err != nil {
		return nil, fmt.Errorf("failed to load category progress: %w", err)
	}

	result := make([]CategoryProgress, len(stats))
	for i, st := range stats {
		result[i] = CategoryProgress{
			Category:       st.Category,
			TotalTasks:     st.Total,
			CompletedTasks: st.Completed,
		}
	}
	return result, nil
}
