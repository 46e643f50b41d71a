package heights

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

func getWithToken(ctx context.Context, url, token string, response interface{}) error {
	var transport = &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 5 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	var client = &http.Client{
		Timeout:   time.Second * 10,
		Transport: transport,
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}

	if len(token) > 0 {
		httpRequest.Header.Add("Authorization", "Bearer "+token)
	}

	httpResponse, err := client.Do(httpRequest)
	if err != nil {
		if isTimeout(err) {
			return errors.Wrap(ErrTimeout, errors.Wrap(err, "http get").Error())
		}

		return errors.Wrap(err, "http get")
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		b, rerr := io.ReadAll(httpResponse.Body)
		if rerr == nil {
			return HTTPError{
				Status:  httpResponse.StatusCode,
				Message: string(b),
			}
		}

		return HTTPError{Status: httpResponse.StatusCode}
	}

	if response == nil {
		return nil
	}

	if responseString, isString := response.(*string); isString {
		b, err := io.ReadAll(httpResponse.Body)
		if err != nil {
			return errors.Wrap(err, "read body")
		}
		*responseString = string(b)
		return nil
	}

	if err := json.NewDecoder(httpResponse.Body).Decode(response); err != nil {
		return errors.Wrap(err, "decode response")
	}

	return nil
}

// isTimeout reports context deadlines and client timeouts.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
