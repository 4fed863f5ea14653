package daemon

import (
	"net/http"
	"strings"

	"github.com/chukwujekwu-code/sermon-hub/internal/api"
)

func (s *apiServer) handleChannelList(w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("active")
	activeOnly := value == "1" || strings.EqualFold(value, "true")

	channels, err := s.daemon.ListChannels(r.Context(), activeOnly)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ChannelListResponse{Channels: api.FromChannels(channels)})
}

func (s *apiServer) handleChannelAdd(w http.ResponseWriter, r *http.Request) {
	var req api.AddChannelRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	channel, err := s.daemon.AddChannel(r.Context(), req.Channel)
	if err != nil {
		s.writeError(w, httpStatusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, api.ChannelResponse{Channel: api.FromChannel(channel)})
}

func (s *apiServer) handleChannelRemove(w http.ResponseWriter, r *http.Request) {
	removed, err := s.daemon.RemoveChannel(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		s.writeError(w, http.StatusNotFound, "channel not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.RemoveChannelResponse{Removed: true})
}

func (s *apiServer) handleChannelPause(w http.ResponseWriter, r *http.Request) {
	s.setChannelActive(w, r, false)
}

func (s *apiServer) handleChannelResume(w http.ResponseWriter, r *http.Request) {
	s.setChannelActive(w, r, true)
}

func (s *apiServer) setChannelActive(w http.ResponseWriter, r *http.Request, active bool) {
	channel, err := s.daemon.SetChannelActive(r.Context(), r.PathValue("id"), active)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if channel == nil {
		s.writeError(w, http.StatusNotFound, "channel not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.ChannelResponse{Channel: api.FromChannel(channel)})
}

func (s *apiServer) handleChannelSync(w http.ResponseWriter, r *http.Request) {
	result, err := s.daemon.SyncChannel(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, httpStatusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
