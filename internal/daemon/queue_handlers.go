package daemon

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/chukwujekwu-code/sermon-hub/internal/api"
	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
)

func (s *apiServer) handleQueueList(w http.ResponseWriter, r *http.Request) {
	if s.queueSvc == nil {
		s.writeJSON(w, http.StatusOK, api.QueueListResponse{Records: nil})
		return
	}
	var statuses []catalog.Status
	for _, value := range r.URL.Query()["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		status, ok := catalog.ParseStatus(trimmed)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", trimmed))
			return
		}
		statuses = append(statuses, status)
	}

	records, err := s.queueSvc.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueListResponse{Records: records})
}

func (s *apiServer) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	if s.queueSvc == nil {
		s.writeJSON(w, http.StatusOK, api.QueueStatsResponse{Counts: nil})
		return
	}
	counts, err := s.queueSvc.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueStatsResponse{Counts: counts})
}

func (s *apiServer) handleQueueItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid queue record id")
		return
	}
	if s.queueSvc == nil {
		s.writeError(w, http.StatusNotFound, "queue record not found")
		return
	}
	record, err := s.queueSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		s.writeError(w, http.StatusNotFound, "queue record not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueRecordResponse{Record: *record})
}

func (s *apiServer) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req api.EnqueueRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, created, err := s.daemon.EnqueueVideo(r.Context(), req.VideoID)
	if err != nil {
		s.writeError(w, httpStatusFor(err), err.Error())
		return
	}

	dto := api.FromRecord(record)
	if decorated, err := s.queueSvc.Describe(r.Context(), record.ID); err == nil && decorated != nil {
		dto = *decorated
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, api.EnqueueResponse{Record: dto, Created: created})
}

func (s *apiServer) handleRetryRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid queue record id")
		return
	}
	result, err := s.daemon.RetryRecords(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleRetryAll(w http.ResponseWriter, r *http.Request) {
	result, err := s.daemon.RetryRecords(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleClearQueue(w http.ResponseWriter, r *http.Request) {
	var req api.ClearQueueRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		removed int64
		err     error
	)
	switch req.Scope {
	case api.ClearScopeCompleted:
		removed, err = s.daemon.ClearCompleted(r.Context())
	case api.ClearScopeFailed:
		removed, err = s.daemon.ClearFailed(r.Context())
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown clear scope %q", req.Scope))
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ClearQueueResponse{Removed: removed})
}
