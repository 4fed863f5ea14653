package youtube

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/chukwujekwu-code/sermon-hub/internal/services"
)

// channelRefPath turns user input into the videos-tab path to fetch. It
// accepts canonical UC ids, @handles, and full channel URLs including the
// legacy /c/ and /user/ forms. The second return is the channel id when the
// input names one directly, or empty when only the fetched page can reveal
// it.
func channelRefPath(ref string) (string, string, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", "", services.Wrap(services.ErrValidation, "youtube", "resolve channel",
			"channel reference is empty", nil)
	}

	path := trimmed
	if strings.Contains(trimmed, "://") {
		parsed, err := url.Parse(trimmed)
		if err != nil {
			return "", "", services.Wrap(services.ErrValidation, "youtube", "resolve channel",
				fmt.Sprintf("parse channel url %q: %v", trimmed, err), nil)
		}
		path = parsed.Path
	}
	path = strings.Trim(path, "/")
	path = strings.TrimSuffix(path, "/videos")

	switch {
	case strings.HasPrefix(path, "channel/"):
		id := strings.Split(strings.TrimPrefix(path, "channel/"), "/")[0]
		if id == "" {
			return "", "", services.Wrap(services.ErrValidation, "youtube", "resolve channel",
				fmt.Sprintf("channel url %q carries no id", trimmed), nil)
		}
		return "/channel/" + url.PathEscape(id) + "/videos", id, nil
	case strings.HasPrefix(path, "@"):
		handle := strings.Split(path, "/")[0]
		return "/" + url.PathEscape(handle) + "/videos", "", nil
	case strings.HasPrefix(path, "c/"), strings.HasPrefix(path, "user/"):
		parts := strings.Split(path, "/")
		if len(parts) < 2 || parts[1] == "" {
			return "", "", services.Wrap(services.ErrValidation, "youtube", "resolve channel",
				fmt.Sprintf("channel url %q carries no name", trimmed), nil)
		}
		return "/" + parts[0] + "/" + url.PathEscape(parts[1]) + "/videos", "", nil
	case !strings.Contains(path, "/"):
		return "/channel/" + url.PathEscape(path) + "/videos", path, nil
	default:
		return "", "", services.Wrap(services.ErrValidation, "youtube", "resolve channel",
			fmt.Sprintf("unrecognized channel reference %q", trimmed), nil)
	}
}
