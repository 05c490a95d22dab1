package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"WaveRider/internal/config"
	"WaveRider/internal/interfaces"
	"WaveRider/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

const apiBase = "https://api.steampowered.com"

// Adapter Steam Web API 适配器：票据认证 + 昵称查询
type Adapter struct {
	cfg        *config.SteamConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewAdapter 创建 Steam 适配器
func NewAdapter(cfg *config.SteamConfig, logger *logrus.Logger) interfaces.TicketAuthenticator {
	return &Adapter{
		cfg: cfg,
		httpClient: httpclient.NewHTTPClient(httpclient.Options{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
			Proxy:   cfg.Proxy,
		}, logger),
		logger: logger,
	}
}

// authTicketResponse ISteamUserAuth/AuthenticateUserTicket 响应体
type authTicketResponse struct {
	Response struct {
		Params struct {
			Result  string `json:"result"`
			SteamID string `json:"steamid"`
		} `json:"params"`
		Error *struct {
			ErrorCode int    `json:"errorcode"`
			ErrorDesc string `json:"errordesc"`
		} `json:"error"`
	} `json:"response"`
}

// AuthenticateTicket 校验票据并返回其归属的 SteamID64
func (a *Adapter) AuthenticateTicket(ctx context.Context, ticket string) (uint64, error) {
	q := url.Values{}
	q.Set("key", a.cfg.APIKey)
	q.Set("appid", strconv.FormatUint(uint64(a.cfg.AppID), 10))
	q.Set("ticket", ticket)
	reqURL := fmt.Sprintf("%s/ISteamUserAuth/AuthenticateUserTicket/v1/?%s", apiBase, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("构造Steam认证请求失败: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("调用Steam认证接口失败: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Errorf("关闭Steam响应体失败: %v", err)
		}
	}()

	var body authTicketResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("解析Steam认证响应失败: %w", err)
	}
	if body.Response.Error != nil {
		return 0, fmt.Errorf("Steam拒绝票据(code=%d): %s",
			body.Response.Error.ErrorCode, body.Response.Error.ErrorDesc)
	}
	if body.Response.Params.Result != "OK" {
		return 0, fmt.Errorf("Steam票据校验结果异常: %q", body.Response.Params.Result)
	}
	steamID, err := strconv.ParseUint(body.Response.Params.SteamID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("解析SteamID失败: %w", err)
	}
	return steamID, nil
}

// playerSummariesResponse ISteamUser/GetPlayerSummaries 响应体
type playerSummariesResponse struct {
	Response struct {
		Players []struct {
			SteamID     string `json:"steamid"`
			PersonaName string `json:"personaname"`
		} `json:"players"`
	} `json:"response"`
}

// GetPersonaName 查询玩家昵称；查不到时返回错误，由调用方决定兜底名
func (a *Adapter) GetPersonaName(ctx context.Context, steamID uint64) (string, error) {
	q := url.Values{}
	q.Set("key", a.cfg.APIKey)
	q.Set("steamids", strconv.FormatUint(steamID, 10))
	reqURL := fmt.Sprintf("%s/ISteamUser/GetPlayerSummaries/v2/?%s", apiBase, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("构造Steam昵称查询请求失败: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("调用Steam昵称查询接口失败: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Errorf("关闭Steam响应体失败: %v", err)
		}
	}()

	var body playerSummariesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("解析Steam昵称响应失败: %w", err)
	}
	if len(body.Response.Players) == 0 {
		return "", fmt.Errorf("Steam昵称查询无结果: steamid=%d", steamID)
	}
	return body.Response.Players[0].PersonaName, nil
}
