package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"formcraft_backend/internal/model"
	"formcraft_backend/internal/repository"
	"formcraft_backend/pkg/logger"
	"formcraft_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// TemplateStatistics 模板维度的汇总结果
type TemplateStatistics struct {
	TemplateID         string            `json:"templateId"`
	TotalForms         int               `json:"totalForms"`
	MostRepeatedAnswer string            `json:"mostRepeatedAnswer"`
	MostChosenAnswer   string            `json:"mostChosenAnswer"`
	OptionPercentages  map[string]string `json:"optionPercentages"`
}

// StatisticsService 统计结果缓存在 redis 中，表单写入时失效。Redis 为空时每次现算。
type StatisticsService struct {
	Forms *repository.FormRepository
	Redis *redis.Client
	TTL   time.Duration
}

func NewStatisticsService(forms *repository.FormRepository, rdb *redis.Client, ttl time.Duration) *StatisticsService {
	return &StatisticsService{Forms: forms, Redis: rdb, TTL: ttl}
}

func statsKey(templateID string) string {
	return "formcraft:stats:" + templateID
}

// Compute 调用方需先确认对模板有编辑权限
func (s *StatisticsService) Compute(ctx context.Context, tpl *model.Template) (*TemplateStatistics, error) {
	if cached, ok := s.cached(ctx, tpl.ID); ok {
		return cached, nil
	}

	forms, err := s.Forms.ListByTemplate(ctx, tpl.ID)
	if err != nil {
		return nil, storeErr("list forms for statistics", err)
	}
	stats := Summarize(tpl, forms)

	if s.Redis != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := s.Redis.Set(ctx, statsKey(tpl.ID), data, s.TTL).Err(); err != nil {
				logger.Log.Warn("Failed to cache statistics", zap.String("template_id", tpl.ID), zap.Error(err))
			}
		}
	}
	return stats, nil
}

func (s *StatisticsService) cached(ctx context.Context, templateID string) (*TemplateStatistics, bool) {
	if s.Redis == nil {
		return nil, false
	}
	data, err := s.Redis.Get(ctx, statsKey(templateID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("Statistics cache unavailable", zap.Error(err))
		}
		monitoring.StatisticsCache.WithLabelValues("miss").Inc()
		return nil, false
	}
	var stats TemplateStatistics
	if err := json.Unmarshal(data, &stats); err != nil {
		monitoring.StatisticsCache.WithLabelValues("miss").Inc()
		return nil, false
	}
	monitoring.StatisticsCache.WithLabelValues("hit").Inc()
	return &stats, true
}

// Invalidate 缓存失效失败只记录日志，最迟在 TTL 后自然过期
func (s *StatisticsService) Invalidate(ctx context.Context, templateID string) {
	if s == nil || s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, statsKey(templateID)).Err(); err != nil {
		logger.Log.Warn("Failed to invalidate statistics", zap.String("template_id", templateID), zap.Error(err))
	}
}

// Summarize 文本/数字题统计出现最多的回答；选项题统计被选最多的选项及各选项占全部选择的百分比。
// 并列时取字典序最小者，保证结果稳定。
func Summarize(tpl *model.Template, forms []model.ResponseForm) *TemplateStatistics {
	free := map[string]int{}
	chosen := map[string]int{}
	selections := 0

	for _, f := range forms {
		for _, a := range f.Answers {
			q, ok := tpl.Question(a.QuestionID)
			if !ok {
				continue
			}
			switch {
			case q.Type.IsChoice():
				values := a.Values
				if !a.Set && a.Value != "" {
					values = []string{a.Value}
				}
				for _, v := range values {
					chosen[v]++
					selections++
				}
			case a.Value != "":
				free[a.Value]++
			}
		}
	}

	stats := &TemplateStatistics{
		TemplateID:         tpl.ID,
		TotalForms:         len(forms),
		MostRepeatedAnswer: mostFrequent(free),
		MostChosenAnswer:   mostFrequent(chosen),
		OptionPercentages:  map[string]string{},
	}
	for option, n := range chosen {
		stats.OptionPercentages[option] = fmt.Sprintf("%.2f", float64(n)*100/float64(selections))
	}
	return stats
}

func mostFrequent(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best, bestN := "", 0
	for _, k := range keys {
		if counts[k] > bestN {
			best, bestN = k, counts[k]
		}
	}
	return best
}
