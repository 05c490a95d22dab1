package api

import (
	"net/http"
	"strconv"

	"WaveRider/internal/interfaces"
	"WaveRider/internal/repository"
	"WaveRider/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AdminHandler 管理/运维接口（JSON）：歌曲合并、MBID补元数据、
// 技能点重建、对手关系维护
type AdminHandler struct {
	merge       *service.SongMergeService
	resolver    *service.SongResolverService
	skillPoints *service.SkillPointsService
	rivalry     *service.RivalryService
	logger      *logrus.Logger
}

// NewAdminHandler 创建 AdminHandler（内部自建仓储与服务）
func NewAdminHandler(
	db *gorm.DB,
	cache interfaces.SkillPointsCache,
	metadata interfaces.MetadataProvider,
	logger *logrus.Logger,
) *AdminHandler {
	repos := repository.NewRepositories(db)
	return &AdminHandler{
		merge:       service.NewSongMergeService(repository.NewTxManager(db), cache, logger),
		resolver:    service.NewSongResolverService(repos.Songs, repos.ExtraInfo, metadata, logger),
		skillPoints: service.NewSkillPointsService(repos.Scores, cache, logger),
		rivalry:     service.NewRivalryService(repos.Rivalries, repos.Players, logger),
		logger:      logger,
	}
}

type mergeRequest struct {
	TargetID    uint64 `json:"target_id" binding:"required"`
	ShouldAlias bool   `json:"should_alias"`
}

// MergeSong 把 :id 指定的重复歌曲合并进 target_id
// POST /api/songs/:id/merge
func (h *AdminHandler) MergeSong(c *gin.Context) {
	duplicateID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid song id"})
		return
	}
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.merge.Merge(c.Request.Context(), duplicateID, req.TargetID, req.ShouldAlias); err != nil {
		h.logger.WithError(err).Error("MergeSong failed")
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"merged_into": req.TargetID,
		"deleted":     duplicateID,
	})
}

type mbidRequest struct {
	MBID        string `json:"mbid" binding:"required"`
	ReleaseMBID string `json:"release_mbid"`
}

// AddMetadataByMBID 按录音MBID给歌曲补/覆盖外部元数据
// POST /api/songs/:id/metadata
func (h *AdminHandler) AddMetadataByMBID(c *gin.Context) {
	songID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid song id"})
		return
	}
	var req mbidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.resolver.AddMetadataByMBID(c.Request.Context(), songID, req.MBID, req.ReleaseMBID); err != nil {
		h.logger.WithError(err).Error("AddMetadataByMBID failed")
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"song_id": songID})
}

// RebuildSkillPoints 从库内成绩整体重建技能点缓存
// POST /api/skillpoints/rebuild
func (h *AdminHandler) RebuildSkillPoints(c *gin.Context) {
	count, err := h.skillPoints.Rebuild(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("RebuildSkillPoints failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"players": count})
}

type rivalryRequest struct {
	RivalID uint64 `json:"rival_id" binding:"required"`
}

// CreateRivalry 建立 :id → rival_id 的对手边
// POST /api/players/:id/rivalries
func (h *AdminHandler) CreateRivalry(c *gin.Context) {
	challengerID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}
	var req rivalryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rivalry, err := h.rivalry.Establish(c.Request.Context(), challengerID, req.RivalID)
	if err != nil {
		h.logger.WithError(err).Error("CreateRivalry failed")
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	mutual, err := h.rivalry.IsMutual(c.Request.Context(), rivalry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"challenger_id": rivalry.ChallengerID,
		"rival_id":      rivalry.RivalID,
		"mutual":        mutual,
	})
}

// ListRivalries 某玩家的对手列表（带互为对手标记）
// GET /api/players/:id/rivalries
func (h *AdminHandler) ListRivalries(c *gin.Context) {
	challengerID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}
	rivals, err := h.rivalry.ListWithMutual(c.Request.Context(), challengerID)
	if err != nil {
		h.logger.WithError(err).Error("ListRivalries failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rivalries": rivals})
}
