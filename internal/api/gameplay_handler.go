package api

import (
	"encoding/xml"
	"net/http"

	"WaveRider/internal/interfaces"
	"WaveRider/internal/model"
	"WaveRider/internal/repository"
	"WaveRider/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// GameplayHandler 游戏客户端路由：登录、歌曲ID解析、成绩提交、排行查询
type GameplayHandler struct {
	gameplay *service.GameplayService
	resolver *service.SongResolverService
	logger   *logrus.Logger
}

// NewGameplayHandler 创建 GameplayHandler（内部自建仓储与服务）
func NewGameplayHandler(
	db *gorm.DB,
	cache interfaces.SkillPointsCache,
	auth interfaces.TicketAuthenticator,
	metadata interfaces.MetadataProvider,
	logger *logrus.Logger,
) *GameplayHandler {
	repos := repository.NewRepositories(db)
	return &GameplayHandler{
		gameplay: service.NewGameplayService(auth, repos.Players, repos.Songs, repos.Scores, repos.Rivalries, cache, logger),
		resolver: service.NewSongResolverService(repos.Songs, repos.ExtraInfo, metadata, logger),
		logger:   logger,
	}
}

type loginForm struct {
	Ticket string `form:"ticket" binding:"required"`
}

type loginResponse struct {
	XMLName  xml.Name `xml:"RESULT"`
	Status   string   `xml:"status,attr"`
	UserID   uint64   `xml:"userid"`
	Username string   `xml:"username"`
}

// SteamLogin 票据认证 + 玩家find-or-create
// POST /as_steamlogin/game_AttemptLoginSteamVerified.php
func (h *GameplayHandler) SteamLogin(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "bad form")
		return
	}
	player, err := h.gameplay.Login(c.Request.Context(), form.Ticket)
	if err != nil {
		h.logger.WithError(err).Warn("SteamLogin failed")
		writeGameError(c, err)
		return
	}
	writeXML(c, http.StatusOK, loginResponse{
		Status:   "allgood",
		UserID:   player.ID,
		Username: player.Username,
	})
}

type songIDForm struct {
	Artist string `form:"artist" binding:"required"`
	Song   string `form:"song" binding:"required"`
	UID    uint64 `form:"uid"`
	League int16  `form:"league"`
	Length int32  `form:"length"` // 毫秒，可缺省
}

type songIDResponse struct {
	XMLName xml.Name `xml:"RESULT"`
	Status  string   `xml:"status,attr"`
	SongID  uint64   `xml:"songid"`
}

// FetchSongID 歌曲ID解析：没注册过的歌建新行
// POST /as_steamlogin/game_fetchsongid_unicode.php
func (h *GameplayHandler) FetchSongID(c *gin.Context) {
	var form songIDForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "bad form")
		return
	}

	song, created, err := h.resolver.ResolveOrCreate(c.Request.Context(), form.Song, form.Artist)
	if err != nil {
		h.logger.WithError(err).Error("FetchSongID failed")
		writeGameError(c, err)
		return
	}
	h.logger.WithFields(logrus.Fields{
		"song_id": song.ID,
		"title":   form.Song,
		"artist":  form.Artist,
		"uid":     form.UID,
		"league":  form.League,
	}).Info("歌曲ID解析完成")

	// 新歌尽力补外部元数据；失败不影响响应
	if created {
		if err := h.resolver.AutoAddMetadata(c.Request.Context(), song, form.Length); err != nil {
			h.logger.WithError(err).WithField("song_id", song.ID).Warn("自动补元数据失败")
		}
	}

	writeXML(c, http.StatusOK, songIDResponse{Status: "allgood", SongID: song.ID})
}

type sendRideForm struct {
	Ticket        string `form:"ticket" binding:"required"`
	SongID        uint64 `form:"songid" binding:"required"`
	Score         int64  `form:"score"`
	Vehicle       int16  `form:"vehicle"`
	League        int16  `form:"league"`
	Feats         string `form:"feats"`
	TrackShape    string `form:"trackshape"`
	XStats        string `form:"xstats"`
	Density       int32  `form:"density"`
	SongLength    int32  `form:"songlength"`
	GoldThreshold int32  `form:"goldthreshold"`
	ISS           int32  `form:"iss"`
	ISJ           int32  `form:"isj"`
}

type beatScoreBlock struct {
	Dethroned    bool   `xml:"dethroned,attr"`
	Friend       bool   `xml:"friend,attr"`
	RivalName    string `xml:"rivalname"`
	RivalScore   int64  `xml:"rivalscore"`
	MyScore      int64  `xml:"myscore"`
	ReignSeconds int64  `xml:"reignseconds"`
}

type sendRideResponse struct {
	XMLName   xml.Name       `xml:"RESULT"`
	Status    string         `xml:"status,attr"`
	SongID    uint64         `xml:"songid"`
	BeatScore beatScoreBlock `xml:"beatscore"`
}

// SendRide 成绩提交对账
// POST /as_steamlogin/game_SendRideSteamVerified.php
func (h *GameplayHandler) SendRide(c *gin.Context) {
	var form sendRideForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "bad form")
		return
	}

	result, err := h.gameplay.SubmitRide(c.Request.Context(), &service.SubmitRideRequest{
		Ticket:        form.Ticket,
		SongID:        form.SongID,
		League:        model.League(form.League),
		Score:         form.Score,
		Vehicle:       form.Vehicle,
		Feats:         form.Feats,
		TrackShape:    form.TrackShape,
		XStats:        form.XStats,
		Density:       form.Density,
		SongLength:    form.SongLength,
		GoldThreshold: form.GoldThreshold,
		ISS:           form.ISS,
		ISJ:           form.ISJ,
	})
	if err != nil {
		h.logger.WithError(err).Warn("SendRide failed")
		writeGameError(c, err)
		return
	}

	writeXML(c, http.StatusOK, sendRideResponse{
		Status: "allgood",
		SongID: result.SongID,
		BeatScore: beatScoreBlock{
			Dethroned:    result.Dethroned,
			Friend:       result.MutualRival,
			RivalName:    result.RivalName,
			RivalScore:   result.RivalScore,
			MyScore:      result.BestScore,
			ReignSeconds: result.ReignSeconds,
		},
	})
}

type getRidesForm struct {
	SongID uint64 `form:"songid" binding:"required"`
	Ticket string `form:"ticket" binding:"required"`
}

type rideBlock struct {
	Username     string `xml:"username"`
	Score        int64  `xml:"score"`
	VehicleID    int16  `xml:"vehicleid"`
	RideTime     int64  `xml:"ridetime"`
	Feats        string `xml:"feats"`
	SongLength   int32  `xml:"songlength"`
	TrafficCount int32  `xml:"trafficcount"`
}

type leagueBlock struct {
	LeagueID int16       `xml:"leagueid,attr"`
	Rides    []rideBlock `xml:"ride"`
}

type scoreBlock struct {
	ScoreType int16         `xml:"scoretype,attr"`
	Leagues   []leagueBlock `xml:"league"`
}

type getRidesResponse struct {
	XMLName    xml.Name     `xml:"RESULTS"`
	Status     string       `xml:"status,attr"`
	Scores     []scoreBlock `xml:"scores"`
	ServerTime int64        `xml:"servertime"`
}

// GetRides 排行查询
// POST /as_steamlogin/game_GetRidesSteamVerified.php
func (h *GameplayHandler) GetRides(c *gin.Context) {
	var form getRidesForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "bad form")
		return
	}

	result, err := h.gameplay.GetRides(c.Request.Context(), form.SongID, form.Ticket)
	if err != nil {
		h.logger.WithError(err).Warn("GetRides failed")
		writeGameError(c, err)
		return
	}

	resp := getRidesResponse{Status: "allgood", ServerTime: result.ServerTime}
	for _, scope := range result.Scopes {
		block := scoreBlock{ScoreType: int16(scope.Scope)}
		for _, lr := range scope.Leagues {
			lb := leagueBlock{LeagueID: int16(lr.League)}
			for _, ride := range lr.Rides {
				lb.Rides = append(lb.Rides, rideBlock{
					Username:     ride.Username,
					Score:        ride.Score,
					VehicleID:    ride.VehicleID,
					RideTime:     ride.RideTime,
					Feats:        ride.Feats,
					SongLength:   ride.SongLength,
					TrafficCount: ride.TrafficCount,
				})
			}
			block.Leagues = append(block.Leagues, lb)
		}
		resp.Scores = append(resp.Scores, block)
	}
	writeXML(c, http.StatusOK, resp)
}
