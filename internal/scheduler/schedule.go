package scheduler

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidSchedule — расписание задано некорректно.
var ErrInvalidSchedule = errors.New("invalid schedule")

// cronParser — 5 полей (минуты … дни недели) плюс дескрипторы @every, @daily.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Schedule — периодическая публикация job.
//
// Задаётся либо Cron, либо IntervalSec.
type Schedule struct {
	Name        string `json:"name"`
	Cron        string `json:"cron,omitempty"`
	IntervalSec int    `json:"interval_sec,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	Queue       string `json:"queue"`
	Job         any    `json:"job"`
}

// Validate проверяет расписание.
func (s *Schedule) Validate() error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidSchedule)
	case strings.TrimSpace(s.Queue) == "":
		return fmt.Errorf("%w: %s: queue is required", ErrInvalidSchedule, s.Name)
	case s.Job == nil:
		return fmt.Errorf("%w: %s: job is required", ErrInvalidSchedule, s.Name)
	case s.Cron != "" && s.IntervalSec != 0:
		return fmt.Errorf("%w: %s: cron and interval_sec are mutually exclusive", ErrInvalidSchedule, s.Name)
	case s.Cron == "" && s.IntervalSec <= 0:
		return fmt.Errorf("%w: %s: cron or positive interval_sec is required", ErrInvalidSchedule, s.Name)
	}

	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("%w: %s: timezone %q: %v", ErrInvalidSchedule, s.Name, s.Timezone, err)
		}
	}

	if _, err := cronParser.Parse(s.expr()); err != nil {
		return fmt.Errorf("%w: %s: cron expression %q: %v", ErrInvalidSchedule, s.Name, s.Cron, err)
	}
	return nil
}

// expr возвращает выражение для cron: "CRON_TZ=<tz> <cron>" или "@every <interval>".
func (s *Schedule) expr() string {
	if s.IntervalSec > 0 {
		return fmt.Sprintf("@every %s", time.Duration(s.IntervalSec)*time.Second)
	}
	if s.Timezone != "" {
		return fmt.Sprintf("CRON_TZ=%s %s", s.Timezone, s.Cron)
	}
	return s.Cron
}

// Next возвращает следующее срабатывание после from.
func (s *Schedule) Next(from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(s.expr())
	if err != nil {
		return time.Time{}, fmt.Errorf("parse schedule %s: %w", s.Name, err)
	}
	return sched.Next(from), nil
}

// ParseSchedules разбирает и проверяет список расписаний. Имена должны быть уникальны.
func ParseSchedules(data []byte) ([]Schedule, error) {
	var schedules []Schedule
	if err := json.Unmarshal(data, &schedules); err != nil {
		return nil, fmt.Errorf("decode schedules: %w", err)
	}

	seen := make(map[string]bool, len(schedules))
	for i := range schedules {
		s := &schedules[i]
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: duplicate name %s", ErrInvalidSchedule, s.Name)
		}
		seen[s.Name] = true
	}
	return schedules, nil
}

// LoadFile читает расписания из файла.
func LoadFile(path string) ([]Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedules: %w", err)
	}
	return ParseSchedules(data)
}
