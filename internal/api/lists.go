/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dayblock/dayblock/internal/models"
)

func (a *API) handleListsList(w http.ResponseWriter, r *http.Request) {
	var lists []models.TaskList
	if err := a.db.WithContext(r.Context()).Order("position ASC").Find(&lists).Error; err != nil {
		a.logger.Error().Err(err).Msg("list task lists failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (a *API) handleListsCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Position int    `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name_required")
		return
	}

	list := models.TaskList{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Position: req.Position,
	}
	if err := a.db.WithContext(r.Context()).Create(&list).Error; err != nil {
		a.logger.Error().Err(err).Msg("create task list failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (a *API) handleListsUpdate(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")

	var list models.TaskList
	err := a.db.WithContext(r.Context()).First(&list, "id = ?", listID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "list_not_found")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("load task list failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	var req struct {
		Name     string `json:"name"`
		Position int    `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name_required")
		return
	}

	list.Name = req.Name
	list.Position = req.Position
	if err := a.db.WithContext(r.Context()).Save(&list).Error; err != nil {
		a.logger.Error().Err(err).Msg("update task list failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleListsDelete(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")

	err := a.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		// Tasks in a deleted list become list-less, they are not removed.
		if err := tx.Model(&models.Task{}).Where("list_id = ?", listID).
			Update("list_id", "").Error; err != nil {
			return err
		}
		result := tx.Delete(&models.TaskList{}, "id = ?", listID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "list_not_found")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("delete task list failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) handleTagsList(w http.ResponseWriter, r *http.Request) {
	var tags []models.Tag
	if err := a.db.WithContext(r.Context()).Order("name ASC").Find(&tags).Error; err != nil {
		a.logger.Error().Err(err).Msg("list tags failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (a *API) handleTagsCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name_required")
		return
	}

	tag := models.Tag{
		ID:    uuid.NewString(),
		Name:  req.Name,
		Color: req.Color,
	}
	if err := a.db.WithContext(r.Context()).Create(&tag).Error; err != nil {
		a.logger.Error().Err(err).Msg("create tag failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (a *API) handleTagsDelete(w http.ResponseWriter, r *http.Request) {
	tagID := chi.URLParam(r, "tagID")

	err := a.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", tagID).Delete(&models.TaskTagLink{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Tag{}, "id = ?", tagID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "tag_not_found")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("delete tag failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
