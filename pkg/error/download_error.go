package error

import (
	"fmt"
	"net/http"
)

// DownloadError reports a failed binary download. Status is 0 when the request
// never produced a response.
type DownloadError struct {
	URL    string
	Status int
	Err    error
}

func (err *DownloadError) Error() string {
	if err.Status != 0 {
		return fmt.Sprintf("download %s: unexpected status %d", err.URL, err.Status)
	}
	return fmt.Sprintf("download %s: %v", err.URL, err.Err)
}

func (err *DownloadError) Unwrap() error {
	return err.Err
}

func (err *DownloadError) ErrCode() string {
	return "DOWNLOAD_ERROR"
}

func (err *DownloadError) StatusCode() int {
	return http.StatusBadGateway
}
