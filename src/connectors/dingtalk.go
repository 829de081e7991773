package connectors

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

// DingTalkClient posts messages to a DingTalk group robot webhook.
type DingTalkClient struct {
	webhookURL string
	secret     string
	http       *resty.Client
	now        func() time.Time
}

type dingTalkResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// NewDingTalkClient returns nil when no webhook is configured.
func NewDingTalkClient(cfg Config) *DingTalkClient {
	if cfg.DingTalkWebhookURL == "" {
		logger.Info("DingTalk webhook not configured, notifications disabled")
		return nil
	}
	return &DingTalkClient{
		webhookURL: cfg.DingTalkWebhookURL,
		secret:     cfg.DingTalkSecret,
		http:       resty.New().SetTimeout(10 * time.Second),
		now:        time.Now,
	}
}

// signDingTalk returns base64(HMAC-SHA256(secret, "<ts>\n<secret>")).
func signDingTalk(ts int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10) + "\n" + secret))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SendMarkdown posts a markdown message.
func (c *DingTalkClient) SendMarkdown(ctx context.Context, title, text string) error {
	return c.post(ctx, map[string]interface{}{
		"msgtype": "markdown",
		"markdown": map[string]string{
			"title": title,
			"text":  text,
		},
	})
}

// SendText posts a plain text message.
func (c *DingTalkClient) SendText(ctx context.Context, content string) error {
	return c.post(ctx, map[string]interface{}{
		"msgtype": "text",
		"text": map[string]string{
			"content": content,
		},
	})
}

func (c *DingTalkClient) post(ctx context.Context, payload interface{}) error {
	if c == nil {
		return errors.New("dingtalk webhook not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)

	if c.secret != "" {
		ts := c.now().UnixMilli()
		req = req.SetQueryParams(map[string]string{
			"timestamp": strconv.FormatInt(ts, 10),
			"sign":      signDingTalk(ts, c.secret),
		})
	}

	resp, err := req.Post(c.webhookURL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("dingtalk HTTP %d: %s", resp.StatusCode(), resp.String())
	}

	var out dingTalkResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return fmt.Errorf("dingtalk decode response: %w", err)
	}
	if out.ErrCode != 0 {
		return fmt.Errorf("dingtalk errcode %d: %s", out.ErrCode, out.ErrMsg)
	}
	return nil
}
