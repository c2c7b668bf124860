package douyin

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"mediahub/domain/model"
)

const shareSchemePrefix = "snssdk1128://openplatform/share?"

// Signature signs a share schema. The parameters are in ascii key order.
func Signature(ticket, nonce string, timestamp int64) string {
	sum := md5.Sum([]byte(fmt.Sprintf("nonce_str=%s&ticket=%s&timestamp=%d", nonce, ticket, timestamp)))
	return hex.EncodeToString(sum[:])
}

// escape percent-encodes everything except RFC 3986 unreserved characters.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

type shareParam struct{ key, value string }

// BuildShareSchema assembles the deep link with parameters in a fixed order.
func BuildShareSchema(clientKey, nonce string, timestamp int64, signature string, p model.ShareParams) string {
	params := []shareParam{
		{"client_key", clientKey},
		{"nonce_str", nonce},
		{"timestamp", strconv.FormatInt(timestamp, 10)},
		{"signature", signature},
		{"state", p.ShareID},
		{"video_url", p.VideoURL},
		{"title", p.Title},
	}
	if len(p.Hashtags) > 0 {
		params = append(params, shareParam{"hashtag_list", strings.Join(p.Hashtags, ",")})
	}
	parts := make([]string, 0, len(params))
	for _, kv := range params {
		parts = append(parts, kv.key+"="+escape(kv.value))
	}
	return shareSchemePrefix + strings.Join(parts, "&")
}

// ShareURL signs a fresh share schema. The nonce and timestamp are new on
// every call even when the ticket comes from the cache.
func (c *Client) ShareURL(ctx context.Context, p model.ShareParams) (string, error) {
	ticket, err := c.Ticket(ctx)
	if err != nil {
		return "", err
	}
	nonce, err := c.nonce()
	if err != nil {
		return "", err
	}
	ts := c.clock.Now().Unix()
	return BuildShareSchema(c.cfg.ClientKey, nonce, ts, Signature(ticket, nonce, ts), p), nil
}
