/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dayblock/dayblock/internal/interval"
	"github.com/dayblock/dayblock/internal/oracle"
	"github.com/dayblock/dayblock/internal/scheduling"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule a plan file without a server",
	Long:  "Run the scheduling engine over a YAML plan of tasks and busy events and print the resulting slots",
	RunE:  runSchedule,
}

var (
	schedulePlanPath string
	scheduleToday    string
	scheduleNoAI     bool
)

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&schedulePlanPath, "plan", "", "Path to YAML plan file (required)")
	scheduleCmd.Flags().StringVar(&scheduleToday, "today", "", "Reference date (2006-01-02), defaults to the current day")
	scheduleCmd.Flags().BoolVar(&scheduleNoAI, "no-ai", false, "Skip the LLM advisor even when configured")
	scheduleCmd.MarkFlagRequired("plan")
}

// planFile is the YAML shape consumed by the schedule command.
type planFile struct {
	Preferences *scheduling.Preferences `yaml:"preferences"`
	Tasks       []planTask              `yaml:"tasks"`
	Busy        []planEvent             `yaml:"busy"`
}

type planTask struct {
	ID               string `yaml:"id"`
	Title            string `yaml:"title"`
	EstimatedMinutes int    `yaml:"estimated_minutes"`
	Priority         string `yaml:"priority"`
	DueDate          string `yaml:"due_date"`
}

type planEvent struct {
	Date  string `yaml:"date"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	Title string `yaml:"title"`
}

func runSchedule(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	raw, err := os.ReadFile(schedulePlanPath)
	if err != nil {
		return fmt.Errorf("read plan file: %w", err)
	}

	var plan planFile
	if err := yaml.Unmarshal(raw, &plan); err != nil {
		return fmt.Errorf("parse plan file: %w", err)
	}

	today := time.Now()
	if scheduleToday != "" {
		today, err = time.Parse(scheduling.DayFormat, scheduleToday)
		if err != nil {
			return fmt.Errorf("parse --today: %w", err)
		}
	}

	prefs := scheduling.DefaultPreferences()
	if plan.Preferences != nil {
		prefs = *plan.Preferences
	}

	tasks := make([]scheduling.Task, 0, len(plan.Tasks))
	for i, pt := range plan.Tasks {
		task := scheduling.Task{
			ID:               pt.ID,
			Title:            pt.Title,
			EstimatedMinutes: pt.EstimatedMinutes,
			Priority:         scheduling.Priority(pt.Priority),
		}
		if task.ID == "" {
			task.ID = fmt.Sprintf("task-%d", i+1)
		}
		if pt.DueDate != "" {
			due, err := time.Parse(scheduling.DayFormat, pt.DueDate)
			if err != nil {
				return fmt.Errorf("task %q: parse due date: %w", pt.Title, err)
			}
			task.DueDate = &due
		}
		tasks = append(tasks, task)
	}

	busy := make(scheduling.BusyCalendar)
	for _, pe := range plan.Busy {
		start, err := interval.ParseClock(pe.Start)
		if err != nil {
			return fmt.Errorf("busy event %q: %w", pe.Title, err)
		}
		end, err := interval.ParseClock(pe.End)
		if err != nil {
			return fmt.Errorf("busy event %q: %w", pe.Title, err)
		}
		busy.Add(pe.Date, scheduling.BusyEvent{Start: start, End: end, Title: pe.Title})
	}

	var primary scheduling.SlotSelector
	if cfg.AdvisorEnabled && !scheduleNoAI {
		advisor, err := oracle.New(oracle.Config{
			APIKey:  cfg.AdvisorAPIKey,
			BaseURL: cfg.AdvisorBaseURL,
			Model:   cfg.AdvisorModel,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("advisor unavailable, using deterministic selection")
		} else {
			primary = scheduling.NewAdvisorSelector(advisor, cfg.AdvisorTimeout, logger)
		}
	}
	selector := scheduling.NewChainSelector(primary, scheduling.FallbackSelector{}, logger)
	scheduler := scheduling.NewScheduler(selector, logger)

	result, err := scheduler.ScheduleAll(cmd.Context(), tasks, busy, prefs, today)
	if err != nil {
		return err
	}

	titles := make(map[string]string, len(tasks))
	for _, task := range tasks {
		titles[task.ID] = task.Title
	}

	for _, slot := range result.Slots {
		fmt.Printf("%s %s  %s\n", slot.Date, slot.Time, titles[slot.TaskID])
		if slot.Reasoning != "" {
			fmt.Printf("    %s\n", slot.Reasoning)
		}
	}
	for _, failure := range result.Failures {
		fmt.Printf("unscheduled: %s (%s)\n", titles[failure.TaskID], failure.Reason)
	}
	fmt.Printf("\n%d scheduled, %d unscheduled\n", len(result.Slots), len(result.Failures))
	return nil
}
