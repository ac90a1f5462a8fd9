// Package submission posts mapped answer requests to the answers API.
package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"formloader/internal/logger"
	"formloader/internal/models"
)

// Response is the answers API reply to a submission.
type Response struct {
	StatusCode int
	Body       string
}

// Accepted reports a 2xx reply.
func (r Response) Accepted() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Refused reports a 4xx reply: the API will not take this request as it is.
func (r Response) Refused() bool { return r.StatusCode >= 400 && r.StatusCode < 500 }

// Client submits answer requests. It does not retry.
type Client struct {
	httpClient *resty.Client
	path       string
	log        *zap.Logger
}

// NewClient returns a Client posting to baseURL + path.
func NewClient(baseURL, path string, timeout time.Duration, log *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: httpClient,
		path:       path,
		log:        logger.OrNop(log),
	}
}

// Submit posts req. An error means the API could not be reached; any HTTP
// reply, including errors, is returned as a Response.
func (c *Client) Submit(ctx context.Context, req *models.AnswerRequest) (Response, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.path)
	if err != nil {
		c.log.Error("Answers API call failed", zap.String("dcn", req.DcnNumber), zap.Error(err))
		return Response{}, fmt.Errorf("unable to submit %s: %w", req.DcnNumber, err)
	}

	result := Response{StatusCode: resp.StatusCode(), Body: resp.String()}
	c.log.Info("Answers API replied",
		zap.String("dcn", req.DcnNumber),
		zap.String("id", req.ID),
		zap.Int("status_code", result.StatusCode),
	)
	return result, nil
}
