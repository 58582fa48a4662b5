package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crucial707/birthday-service/internal/models"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const defaultSMSTimeout = 10 * time.Second

// SMSConfig configures the HTTP SMS gateway.
type SMSConfig struct {
	URL    string
	Token  string
	Sender string
	// RatePerSec caps outgoing requests. Zero or less disables the limit.
	RatePerSec float64
	Timeout    time.Duration
}

type smsRequest struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// SMSDispatcher posts greetings to an SMS gateway as JSON.
type SMSDispatcher struct {
	client  *resty.Client
	url     string
	sender  string
	limiter *rate.Limiter
	log     *slog.Logger
}

func NewSMSDispatcher(cfg SMSConfig, logger *slog.Logger) *SMSDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSMSTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "birthday-service")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return &SMSDispatcher{
		client:  client,
		url:     cfg.URL,
		sender:  cfg.Sender,
		limiter: limiter,
		log:     logger,
	}
}

// Send reports whether the gateway accepted the message.
func (d *SMSDispatcher) Send(ctx context.Context, routeName string, u models.User) bool {
	if u.CellPhone == "" {
		d.log.WarnContext(ctx, "user has no cell phone", "route", routeName, "user_id", u.ID)
		return false
	}
	if err := d.limiter.Wait(ctx); err != nil {
		d.log.WarnContext(ctx, "sms rate limit wait aborted", "user_id", u.ID, "error", err)
		return false
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(smsRequest{From: d.sender, To: u.CellPhone, Message: Message(routeName, u)}).
		Post(d.url)
	ok := err == nil && resp.IsSuccess()

	args := []any{"route", routeName, "user_id", u.ID}
	switch {
	case err != nil:
		args = append(args, "error", err)
	case !resp.IsSuccess():
		args = append(args, "http_status", resp.StatusCode())
	}
	d.log.InfoContext(ctx, fmt.Sprintf("%s, %s, %s, %t", routeName, u.FullName(), u.CellPhone, ok), args...)
	return ok
}
