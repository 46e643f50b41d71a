package heights

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tokenized/logger"
)

const (
	// DefaultURL returns the current block count as a plain decimal number.
	DefaultURL = "https://blockchain.info/q/getblockcount"

	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 2000 // milliseconds
	DefaultBlocksPerDay = 144
)

var (
	ErrTimeout         = errors.New("Timed Out")
	ErrDateInPast      = errors.New("Date In Past")
	ErrInvalidResponse = errors.New("Invalid Response")
)

// Config configures the block height oracle.
type Config struct {
	URL          string `default:"https://blockchain.info/q/getblockcount" envconfig:"HEIGHT_URL" json:"url"`
	APIKey       string `envconfig:"HEIGHT_API_KEY" json:"api_key" masked:"true"`
	MaxRetries   int    `default:"3" envconfig:"HEIGHT_MAX_RETRIES" json:"max_retries"`
	RetryDelay   int    `default:"2000" envconfig:"HEIGHT_RETRY_DELAY" json:"retry_delay"` // Milliseconds between retries
	BlocksPerDay int    `default:"144" envconfig:"BLOCKS_PER_DAY" json:"blocks_per_day"`
}

// NewConfig returns the default oracle configuration.
func NewConfig() Config {
	return Config{
		URL:          DefaultURL,
		MaxRetries:   DefaultMaxRetries,
		RetryDelay:   DefaultRetryDelay,
		BlocksPerDay: DefaultBlocksPerDay,
	}
}

type HTTPError struct {
	Status  int
	Message string
}

func (err HTTPError) Error() string {
	if len(err.Message) > 0 {
		return fmt.Sprintf("HTTP Status %d : %s", err.Status, err.Message)
	}

	return fmt.Sprintf("HTTP Status %d", err.Status)
}

// Service fetches the current block height from an HTTP endpoint.
type Service struct {
	config Config

	// now is replaced in tests.
	now func() time.Time
}

func NewService(config Config) *Service {
	if len(config.URL) == 0 {
		config.URL = DefaultURL
	}
	if config.BlocksPerDay <= 0 {
		config.BlocksPerDay = DefaultBlocksPerDay
	}

	return &Service{
		config: config,
		now:    time.Now,
	}
}

func (s *Service) Config() Config {
	return s.config
}

type heightResponse struct {
	Height *uint32 `json:"height"`
}

// CurrentHeight returns the height of the chain tip. The response body is either a plain decimal
// number or a JSON object with a "height" field. Failed requests are retried MaxRetries times.
func (s *Service) CurrentHeight(ctx context.Context) (uint32, error) {
	var err error
	for i := 0; i <= s.config.MaxRetries; i++ {
		if i != 0 {
			select {
			case <-time.After(time.Duration(s.config.RetryDelay) * time.Millisecond):
			case <-ctx.Done():
				return 0, errors.Wrap(ctx.Err(), "current height")
			}
		}

		var height uint32
		height, err = s.fetchHeight(ctx)
		if err == nil {
			return height, nil
		}

		if ctx.Err() != nil {
			break
		}

		logger.WarnWithFields(ctx, []logger.Field{
			logger.String("url", s.config.URL),
			logger.Int("attempt", i+1),
		}, "Failed to get current height : %s", err)
	}

	return 0, errors.Wrap(err, "current height")
}

func (s *Service) fetchHeight(ctx context.Context) (uint32, error) {
	var body string
	if err := getWithToken(ctx, s.config.URL, s.config.APIKey, &body); err != nil {
		return 0, errors.Wrap(err, "get")
	}

	return parseHeight(body)
}

func parseHeight(body string) (uint32, error) {
	body = strings.TrimSpace(body)

	if value, err := strconv.ParseUint(body, 10, 32); err == nil {
		return uint32(value), nil
	}

	response := &heightResponse{}
	if err := json.Unmarshal([]byte(body), response); err != nil {
		return 0, errors.Wrap(ErrInvalidResponse, err.Error())
	}

	if response.Height == nil {
		return 0, errors.Wrap(ErrInvalidResponse, "missing height")
	}

	return *response.Height, nil
}

// HeightForDate returns the estimated height of the first block mined on the target date.
func (s *Service) HeightForDate(ctx context.Context, target time.Time) (int64, error) {
	current, err := s.CurrentHeight(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "current")
	}

	height, err := EstimateHeight(current, s.now(), target, s.config.BlocksPerDay)
	if err != nil {
		return 0, err
	}

	logger.InfoWithFields(ctx, []logger.Field{
		logger.Uint64("current_height", uint64(current)),
		logger.String("target_date", target.Format(DateFormat)),
		logger.Uint64("unlock_height", uint64(height)),
	}, "Estimated unlock height")

	return height, nil
}
