package federation

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrorResponse is the error document nodes return with non-2xx responses.
type ErrorResponse struct {
	XMLName     xml.Name `xml:"error"`
	StatusCode  int      `xml:"errorCode,attr"`
	DetailCode  string   `xml:"detailCode,attr,omitempty"`
	Name        string   `xml:"name,attr"`
	Description string   `xml:"description"`
}

func (e ErrorResponse) Error() string {
	return fmt.Sprintf("code=%d name=%s detail=%s description=%s", e.StatusCode, e.Name, e.DetailCode, e.Description)
}

func NewErrorResponse(statusCode int, name string, description string) ErrorResponse {
	return ErrorResponse{StatusCode: statusCode, Name: name, Description: description}
}

func (e ErrorResponse) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(e.StatusCode)
	_, _ = io.WriteString(w, xml.Header)
	_ = xml.NewEncoder(w).Encode(e)
}

// IsNotFound reports whether err is a node saying the object does not exist.
func IsNotFound(err error) bool {
	var resp ErrorResponse
	if errors.As(err, &resp) {
		return resp.StatusCode == http.StatusNotFound || resp.Name == "NotFound"
	}
	return false
}

func readError(res *http.Response) error {
	contents, err := io.ReadAll(io.LimitReader(res.Body, 64*1024))
	if err != nil {
		return err
	}
	d1Err := ErrorResponse{}
	if err = xml.Unmarshal(contents, &d1Err); err == nil && d1Err.Name != "" {
		if d1Err.StatusCode == 0 {
			d1Err.StatusCode = res.StatusCode
		}
		return d1Err
	}
	return ErrorResponse{
		StatusCode:  res.StatusCode,
		Name:        http.StatusText(res.StatusCode),
		Description: string(contents),
	}
}
