package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"WaveRider/internal/config"
	"WaveRider/internal/interfaces"
	"WaveRider/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

const coverArtBase = "https://coverartarchive.org/release"

// Adapter MusicBrainz REST API 适配器（外部元数据查询）
type Adapter struct {
	cfg        *config.MusicBrainzConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewAdapter 创建 MusicBrainz 适配器
func NewAdapter(cfg *config.MusicBrainzConfig, logger *logrus.Logger) interfaces.MetadataProvider {
	return &Adapter{
		cfg: cfg,
		httpClient: httpclient.NewHTTPClient(httpclient.Options{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
			Proxy:   cfg.Proxy,
		}, logger),
		logger: logger,
	}
}

// mbRecording /recording 接口返回的录音条目
type mbRecording struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Length       int32  `json:"length"`
	ArtistCredit []struct {
		Name string `json:"name"`
	} `json:"artist-credit"`
	Releases []struct {
		ID string `json:"id"`
	} `json:"releases"`
}

type mbSearchResponse struct {
	Recordings []mbRecording `json:"recordings"`
}

// Lookup 按标题/演唱者模糊查询录音；没有命中返回 (nil, nil)。
// duration > 0 时加入时长条件（±10秒窗口），降低同名歌曲误配概率。
func (a *Adapter) Lookup(ctx context.Context, title, artist string, duration int32) (*interfaces.MetadataRecord, error) {
	query := fmt.Sprintf(`recording:"%s" AND artist:"%s"`, title, artist)
	if duration > 0 {
		query += fmt.Sprintf(" AND dur:[%d TO %d]", duration-10000, duration+10000)
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("fmt", "json")
	q.Set("limit", "1")
	reqURL := fmt.Sprintf("%s/recording?%s", a.cfg.BaseURL, q.Encode())

	var body mbSearchResponse
	if err := a.getJSON(ctx, reqURL, &body); err != nil {
		return nil, err
	}
	if len(body.Recordings) == 0 {
		return nil, nil
	}
	return a.toRecord(&body.Recordings[0]), nil
}

// LookupByMBID 按录音MBID精确查询；releaseMBID 非空时覆盖返回的发行ID
func (a *Adapter) LookupByMBID(ctx context.Context, mbid, releaseMBID string) (*interfaces.MetadataRecord, error) {
	q := url.Values{}
	q.Set("fmt", "json")
	q.Set("inc", "artists+releases")
	reqURL := fmt.Sprintf("%s/recording/%s?%s", a.cfg.BaseURL, url.PathEscape(mbid), q.Encode())

	var rec mbRecording
	if err := a.getJSON(ctx, reqURL, &rec); err != nil {
		return nil, err
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("MusicBrainz未找到录音: mbid=%s", mbid)
	}
	record := a.toRecord(&rec)
	if releaseMBID != "" {
		record.ReleaseID = releaseMBID
		record.CoverURL = fmt.Sprintf("%s/%s/front-500", coverArtBase, releaseMBID)
		record.SmallCoverURL = fmt.Sprintf("%s/%s/front-250", coverArtBase, releaseMBID)
	}
	return record, nil
}

func (a *Adapter) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("构造MusicBrainz请求失败: %w", err)
	}
	// MusicBrainz 要求带可识别的 User-Agent，否则会限流
	req.Header.Set("User-Agent", a.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("调用MusicBrainz接口失败: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Errorf("关闭MusicBrainz响应体失败: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("MusicBrainz返回异常状态码: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析MusicBrainz响应失败: %w", err)
	}
	return nil
}

func (a *Adapter) toRecord(rec *mbRecording) *interfaces.MetadataRecord {
	record := &interfaces.MetadataRecord{
		MusicBrainzID: rec.ID,
		Title:         rec.Title,
		Length:        rec.Length,
	}
	if len(rec.ArtistCredit) > 0 {
		record.Artist = rec.ArtistCredit[0].Name
	}
	if len(rec.Releases) > 0 {
		record.ReleaseID = rec.Releases[0].ID
		record.CoverURL = fmt.Sprintf("%s/%s/front-500", coverArtBase, record.ReleaseID)
		record.SmallCoverURL = fmt.Sprintf("%s/%s/front-250", coverArtBase, record.ReleaseID)
	}
	return record
}
