package ledger

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

var _ UserDirectory = (*HTTPUserDirectory)(nil)

// HTTPUserDirectory asks the user service whether GET {BaseURL}/users/{id}/profile exists
type HTTPUserDirectory struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPUserDirectory(baseURL string) *HTTPUserDirectory {
	return &HTTPUserDirectory{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (d *HTTPUserDirectory) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.BaseURL+"/users/"+userID.String()+"/profile", nil)
	if err != nil {
		return false, err
	}

	res, err := d.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("calling user service: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, fmt.Errorf("user service returned %s", res.Status)
}
