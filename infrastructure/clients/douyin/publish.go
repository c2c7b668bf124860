package douyin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"mediahub/domain/model"
	"mediahub/infrastructure/logger"
)

// PublishVideo downloads the source video, uploads it and creates the post.
func (c *Client) PublishVideo(ctx context.Context, req model.PublishVideoRequest) (string, error) {
	videoID, err := c.uploadVideo(ctx, req.AccessToken, req.OpenID, req.VideoURL)
	if err != nil {
		return "", err
	}
	itemID, err := c.createVideo(ctx, req.AccessToken, req.OpenID, videoID, PostText(req.Title, req.Description, req.Topics))
	if err != nil {
		return "", err
	}
	logger.GetLogger().
		WithField("open_id", req.OpenID).
		WithField("item_id", itemID).
		Info("Douyin video published")
	return itemID, nil
}

// PostText is the caption of a post: the title, the description on its own
// line and the topics as hashtags.
func PostText(title, description string, topics []string) string {
	text := title
	if description != "" {
		text = title + "\n" + description
	}
	var tags []string
	for _, t := range topics {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		if t != "" {
			tags = append(tags, "#"+t)
		}
	}
	if len(tags) > 0 {
		text += " " + strings.Join(tags, " ")
	}
	return text
}

func (c *Client) uploadVideo(ctx context.Context, accessToken, openID, videoURL string) (string, error) {
	content, err := c.download(ctx, videoURL)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("video", "video.mp4")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(content); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	q := url.Values{"access_token": {accessToken}, "open_id": {openID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+videoUploadPath+"?"+q.Encode(), &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		Video struct {
			VideoID string `json:"video_id"`
		} `json:"video"`
	}
	if err := c.do(c.upload, req, "Video upload failed", &out); err != nil {
		return "", err
	}
	if out.Video.VideoID == "" {
		return "", &APIError{Code: -1, Description: "Video upload failed"}
	}
	return out.Video.VideoID, nil
}

func (c *Client) download(ctx context.Context, videoURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.upload.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("download video: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) createVideo(ctx context.Context, accessToken, openID, videoID, text string) (string, error) {
	q := url.Values{"access_token": {accessToken}, "open_id": {openID}}
	var out struct {
		ItemID string `json:"item_id"`
	}
	err := c.postJSON(ctx, c.cfg.BaseURL+videoCreatePath+"?"+q.Encode(), map[string]string{
		"video_id": videoID,
		"text":     text,
	}, "Video create failed", &out)
	if err != nil {
		return "", err
	}
	if out.ItemID == "" {
		return "", &APIError{Code: -1, Description: "Video create failed"}
	}
	return out.ItemID, nil
}
