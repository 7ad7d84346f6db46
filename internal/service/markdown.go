package service

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()

	videoTimePattern = regexp.MustCompile(`(?i)(\d+)(h|m|s)`) // t=1m30s
)

// RenderInstructions 把动作要领的 markdown 转为清洗后的 HTML
func RenderInstructions(markdown string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render instructions: %w", err)
	}
	return string(sanitizer.SanitizeBytes(buf.Bytes())), nil
}

// VideoEmbedURL 把 YouTube / Bilibili 的分享链接转换为可嵌入播放器地址。
// 无法识别时返回 false。
func VideoEmbedURL(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Hostname() == "" {
		return "", false
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case host == "youtu.be" || isHostOrSubdomain(host, "youtube.com"):
		return youTubeEmbed(parsed, host)
	case isHostOrSubdomain(host, "bilibili.com"):
		return bilibiliEmbed(parsed)
	}
	return "", false
}

func youTubeEmbed(u *url.URL, host string) (string, bool) {
	var videoID string
	path := strings.Trim(u.Path, "/")

	if host == "youtu.be" {
		videoID = path
	} else {
		switch {
		case path == "watch":
			videoID = u.Query().Get("v")
		case strings.HasPrefix(path, "shorts/"):
			videoID = strings.TrimPrefix(path, "shorts/")
		case strings.HasPrefix(path, "embed/"):
			videoID = strings.TrimPrefix(path, "embed/")
		}
	}
	if idx := strings.Index(videoID, "/"); idx >= 0 {
		videoID = videoID[:idx]
	}
	if videoID == "" {
		return "", false
	}

	values := url.Values{}
	values.Set("rel", "0")
	values.Set("modestbranding", "1")
	values.Set("playsinline", "1")
	if start := parseVideoStart(u.Query().Get("t")); start > 0 {
		values.Set("start", strconv.Itoa(start))
	}
	return fmt.Sprintf("https://www.youtube.com/embed/%s?%s", videoID, values.Encode()), true
}

func bilibiliEmbed(u *url.URL) (string, bool) {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[0] != "video" || segments[1] == "" {
		return "", false
	}

	rawID := segments[1]
	values := url.Values{}
	lowerID := strings.ToLower(rawID)
	switch {
	case strings.HasPrefix(lowerID, "bv"):
		values.Set("bvid", rawID)
	case strings.HasPrefix(lowerID, "av"):
		values.Set("aid", strings.TrimPrefix(lowerID, "av"))
	default:
		return "", false
	}
	values.Set("page", "1")
	values.Set("danmaku", "0")
	values.Set("autoplay", "0")
	return "https://player.bilibili.com/player.html?" + values.Encode(), true
}

func parseVideoStart(value string) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(trimmed); err == nil {
		return max(seconds, 0)
	}

	total := 0
	for _, match := range videoTimePattern.FindAllStringSubmatch(trimmed, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		switch strings.ToLower(match[2]) {
		case "h":
			total += n * 3600
		case "m":
			total += n * 60
		case "s":
			total += n
		}
	}
	return total
}

func isHostOrSubdomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
