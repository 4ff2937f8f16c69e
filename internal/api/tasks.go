/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dayblock/dayblock/internal/events"
	"github.com/dayblock/dayblock/internal/models"
	"github.com/dayblock/dayblock/internal/tasks"
)

type taskRequest struct {
	ListID           string     `json:"list_id"`
	Title            string     `json:"title"`
	Notes            string     `json:"notes"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	Priority         string     `json:"priority"`
	DueDate          *time.Time `json:"due_date"`
	RecurrenceRule   string     `json:"recurrence_rule"`
	TagIDs           []string   `json:"tag_ids"`
}

func (a *API) handleTasksList(w http.ResponseWriter, r *http.Request) {
	query := a.db.WithContext(r.Context()).Preload("Tags").Order("created_at ASC")

	if listID := r.URL.Query().Get("list_id"); listID != "" {
		query = query.Where("list_id = ?", listID)
	}
	switch r.URL.Query().Get("status") {
	case "unscheduled":
		query = query.Where("completed_at IS NULL AND scheduled_date IS NULL")
	case "scheduled":
		query = query.Where("completed_at IS NULL AND scheduled_date IS NOT NULL")
	case "completed":
		query = query.Where("completed_at IS NOT NULL")
	case "open":
		query = query.Where("completed_at IS NULL")
	}

	var rows []models.Task
	if err := query.Find(&rows).Error; err != nil {
		a.logger.Error().Err(err).Msg("list tasks failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *API) handleTasksCreate(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title_required")
		return
	}
	if req.EstimatedMinutes <= 0 {
		writeError(w, http.StatusBadRequest, "estimated_minutes_required")
		return
	}

	priority := models.TaskPriority(req.Priority)
	if req.Priority == "" {
		priority = models.PriorityNormal
	}
	if !priority.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_priority")
		return
	}

	if err := tasks.ValidateRecurrenceRule(req.RecurrenceRule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_recurrence_rule")
		return
	}

	task := models.Task{
		ID:               uuid.NewString(),
		ListID:           req.ListID,
		Title:            req.Title,
		Notes:            req.Notes,
		EstimatedMinutes: req.EstimatedMinutes,
		Priority:         priority,
		DueDate:          req.DueDate,
		RecurrenceRule:   req.RecurrenceRule,
	}

	err := a.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		for _, tagID := range req.TagIDs {
			link := models.TaskTagLink{TaskID: task.ID, TagID: tagID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("create task failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	a.bus.Publish(events.EventTaskCreated, events.Payload{"task_id": task.ID})
	writeJSON(w, http.StatusCreated, task)
}

func (a *API) handleTasksGet(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	var task models.Task
	err := a.db.WithContext(r.Context()).Preload("Tags").First(&task, "id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "task_not_found")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("get task failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (a *API) handleTasksUpdate(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	var task models.Task
	err := a.db.WithContext(r.Context()).First(&task, "id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "task_not_found")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("load task failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title_required")
		return
	}
	if req.EstimatedMinutes <= 0 {
		writeError(w, http.StatusBadRequest, "estimated_minutes_required")
		return
	}
	priority := models.TaskPriority(req.Priority)
	if !priority.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_priority")
		return
	}
	if err := tasks.ValidateRecurrenceRule(req.RecurrenceRule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_recurrence_rule")
		return
	}

	// Changing the estimate invalidates any held slot.
	clearSlot := req.EstimatedMinutes != task.EstimatedMinutes

	task.ListID = req.ListID
	task.Title = req.Title
	task.Notes = req.Notes
	task.EstimatedMinutes = req.EstimatedMinutes
	task.Priority = priority
	task.DueDate = req.DueDate
	task.RecurrenceRule = req.RecurrenceRule
	if clearSlot {
		task.ScheduledDate = nil
		task.ScheduledTime = ""
		task.ScheduleNote = ""
	}

	err = a.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&task).Error; err != nil {
			return err
		}
		if clearSlot {
			if err := tx.Where("task_id = ?", task.ID).Delete(&models.CalendarEvent{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("update task failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	a.bus.Publish(events.EventTaskUpdated, events.Payload{"task_id": task.ID})
	writeJSON(w, http.StatusOK, task)
}

func (a *API) handleTasksDelete(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	err := a.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.CalendarEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskTagLink{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Task{}, "id = ?", taskID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "task_not_found")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("delete task failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	a.bus.Publish(events.EventTaskDeleted, events.Payload{"task_id": taskID})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) handleTasksComplete(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	successor, err := a.tasks.Complete(r.Context(), taskID, time.Now())
	if errors.Is(err, tasks.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "task_not_found")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Str("task_id", taskID).Msg("complete task failed")
		writeError(w, http.StatusInternalServerError, "complete_failed")
		return
	}

	resp := map[string]any{"status": "completed"}
	if successor != nil {
		resp["next_task"] = successor
	}
	writeJSON(w, http.StatusOK, resp)
}
