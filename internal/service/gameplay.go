package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"WaveRider/internal/interfaces"
	"WaveRider/internal/model"
	"WaveRider/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// GameplayService 成绩对账引擎：ride 提交、排行查询、登录建号。
// 每个写路径都遵守「先写库、后写缓存」的顺序。
type GameplayService struct {
	auth        interfaces.TicketAuthenticator
	playerRepo  repository.PlayerRepository
	songRepo    repository.SongRepository
	scoreRepo   repository.ScoreRepository
	rivalryRepo repository.RivalryRepository
	cache       interfaces.SkillPointsCache
	logger      *logrus.Logger
}

// NewGameplayService 创建 GameplayService
func NewGameplayService(
	auth interfaces.TicketAuthenticator,
	playerRepo repository.PlayerRepository,
	songRepo repository.SongRepository,
	scoreRepo repository.ScoreRepository,
	rivalryRepo repository.RivalryRepository,
	cache interfaces.SkillPointsCache,
	logger *logrus.Logger,
) *GameplayService {
	return &GameplayService{
		auth:        auth,
		playerRepo:  playerRepo,
		songRepo:    songRepo,
		scoreRepo:   scoreRepo,
		rivalryRepo: rivalryRepo,
		cache:       cache,
		logger:      logger,
	}
}

// SubmitRideRequest 一次 ride 提交的入参（已完成表单解码）
type SubmitRideRequest struct {
	Ticket        string
	SongID        uint64
	League        model.League
	Score         int64
	Vehicle       int16
	Feats         string // 逗号分隔的特技串
	TrackShape    string // 逗号分隔整数串
	XStats        string // 逗号分隔整数串
	Density       int32
	SongLength    int32 // 厘秒
	GoldThreshold int32
	ISS           int32
	ISJ           int32
}

// RideResult 提交结果与对手/夺位事实
type RideResult struct {
	SongID       uint64
	BestScore    int64 // 提交后库内的最好成绩
	PlayCount    int32
	Dethroned    bool
	MutualRival  bool
	RivalName    string
	RivalScore   int64
	ReignSeconds int64
}

// SubmitRide ride 提交对账。顺序固定：认证 → 字段校验 → 查歌 →
// 玩家find-or-create → 成绩落库+缓存增量 → 对手/夺位事实。
// 认证失败与字段非法都发生在任何写之前。
func (s *GameplayService) SubmitRide(ctx context.Context, req *SubmitRideRequest) (*RideResult, error) {
	steamID, err := s.auth.AuthenticateTicket(ctx, req.Ticket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	if !req.League.Valid() {
		return nil, fmt.Errorf("%w: league=%d", ErrValidation, req.League)
	}
	trackShape, err := model.ParseDelimitedInts(req.TrackShape)
	if err != nil {
		return nil, fmt.Errorf("%w: trackshape %v", ErrValidation, err)
	}
	xstats, err := model.ParseDelimitedInts(req.XStats)
	if err != nil {
		return nil, fmt.Errorf("%w: xstats %v", ErrValidation, err)
	}

	song, err := s.songRepo.GetByID(ctx, req.SongID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: song_id=%d", ErrNotFound, req.SongID)
		}
		return nil, fmt.Errorf("查询歌曲失败: %w", err)
	}

	player, err := s.findOrCreatePlayer(ctx, steamID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"player_id": player.ID,
		"song_id":   song.ID,
		"league":    req.League.String(),
		"score":     req.Score,
		"vehicle":   req.Vehicle,
	}).Info("收到成绩提交")

	// 对手事实基于提交前的库状态（对手的行不受本次写影响，
	// 但语义上「被夺位的分」必须是提交前观察到的值）
	facts, err := s.rivalFacts(ctx, player.ID, song.ID, req.League, req.Score)
	if err != nil {
		return nil, err
	}

	existing, err := s.scoreRepo.GetByPlayerSongLeague(ctx, player.ID, song.ID, req.League)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询既有成绩失败: %w", err)
	}

	var best int64
	var playCount int32
	switch {
	case existing == nil || errors.Is(err, gorm.ErrRecordNotFound):
		// 首次提交：建行 + 全额技能点
		score := &model.Score{
			PlayerID:      player.ID,
			SongID:        song.ID,
			League:        req.League,
			Score:         req.Score,
			PlayCount:     1,
			Vehicle:       req.Vehicle,
			TrackShape:    model.IntsToJSON(trackShape),
			XStats:        model.IntsToJSON(xstats),
			Density:       req.Density,
			Feats:         model.StringsToJSON(model.SplitFeats(req.Feats)),
			SongLength:    req.SongLength,
			GoldThreshold: req.GoldThreshold,
			ISS:           req.ISS,
			ISJ:           req.ISJ,
			SubmittedAt:   time.Now(),
		}
		if err := s.scoreRepo.Create(ctx, score); err != nil {
			return nil, fmt.Errorf("写入成绩失败: %w", err)
		}
		if err := s.cache.Add(ctx, player.ID, req.Score); err != nil {
			return nil, fmt.Errorf("技能点缓存累加失败: %w", err)
		}
		best, playCount = req.Score, 1
	case req.Score > existing.Score:
		// 超过既有成绩：覆盖成绩字段，缓存只加差值
		delta := req.Score - existing.Score
		existing.Score = req.Score
		existing.PlayCount++
		existing.Vehicle = req.Vehicle
		existing.TrackShape = model.IntsToJSON(trackShape)
		existing.XStats = model.IntsToJSON(xstats)
		existing.Density = req.Density
		existing.Feats = model.StringsToJSON(model.SplitFeats(req.Feats))
		existing.SongLength = req.SongLength
		existing.GoldThreshold = req.GoldThreshold
		existing.ISS = req.ISS
		existing.ISJ = req.ISJ
		existing.SubmittedAt = time.Now()
		if err := s.scoreRepo.Save(ctx, existing); err != nil {
			return nil, fmt.Errorf("更新成绩失败: %w", err)
		}
		if err := s.cache.Add(ctx, player.ID, delta); err != nil {
			return nil, fmt.Errorf("技能点缓存累加失败: %w", err)
		}
		best, playCount = existing.Score, existing.PlayCount
	default:
		// 没打过既有成绩：只累计游玩次数，存分与缓存都不动
		existing.PlayCount++
		if err := s.scoreRepo.Save(ctx, existing); err != nil {
			return nil, fmt.Errorf("累计游玩次数失败: %w", err)
		}
		best, playCount = existing.Score, existing.PlayCount
	}

	return &RideResult{
		SongID:       song.ID,
		BestScore:    best,
		PlayCount:    playCount,
		Dethroned:    facts.dethroned,
		MutualRival:  facts.mutual,
		RivalName:    facts.rivalName,
		RivalScore:   facts.rivalScore,
		ReignSeconds: facts.reignSeconds,
	}, nil
}

// rivalFacts 对手/夺位事实：在本歌曲+档位上有成绩、且被提交者
// 列为对手的玩家中取最高分作为「在位对手」。
type rivalFacts struct {
	dethroned    bool
	mutual       bool
	rivalName    string
	rivalScore   int64
	reignSeconds int64
}

func (s *GameplayService) rivalFacts(ctx context.Context, playerID, songID uint64, league model.League, submitted int64) (*rivalFacts, error) {
	facts := &rivalFacts{}
	edges, err := s.rivalryRepo.ListByChallenger(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("查询对手关系失败: %w", err)
	}
	if len(edges) == 0 {
		return facts, nil
	}

	rivalIDs := make([]uint64, 0, len(edges))
	for _, e := range edges {
		rivalIDs = append(rivalIDs, e.RivalID)
	}
	scores, err := s.scoreRepo.ListBySongLeagueForPlayers(ctx, songID, league, rivalIDs)
	if err != nil {
		return nil, fmt.Errorf("查询对手成绩失败: %w", err)
	}
	if len(scores) == 0 {
		return facts, nil
	}

	best := scores[0] // 已按分值降序
	rival, err := s.playerRepo.GetByID(ctx, best.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("查询对手玩家失败: %w", err)
	}
	mutual, err := s.rivalryRepo.Exists(ctx, best.PlayerID, playerID)
	if err != nil {
		return nil, fmt.Errorf("查询反向对手关系失败: %w", err)
	}

	facts.rivalName = rival.Username
	facts.rivalScore = best.Score
	facts.mutual = mutual
	facts.dethroned = submitted > best.Score
	if facts.dethroned {
		facts.reignSeconds = int64(time.Since(best.SubmittedAt).Seconds())
		if facts.reignSeconds < 0 {
			facts.reignSeconds = 0
		}
	}
	return facts, nil
}

// Login 票据认证并 find-or-create 玩家（登录路由用）
func (s *GameplayService) Login(ctx context.Context, ticket string) (*model.Player, error) {
	steamID, err := s.auth.AuthenticateTicket(ctx, ticket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	return s.findOrCreatePlayer(ctx, steamID)
}

func (s *GameplayService) findOrCreatePlayer(ctx context.Context, steamID uint64) (*model.Player, error) {
	player, err := s.playerRepo.GetBySteamID(ctx, steamID)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询玩家失败: %w", err)
	}

	// 建号：昵称从 Steam 拉，拉不到给兜底名（不因此拒绝提交）
	name, nameErr := s.auth.GetPersonaName(ctx, steamID)
	if nameErr != nil || strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Rider %d", steamID%10000)
		s.logger.WithField("steam_id", steamID).Warn("Steam昵称查询失败，使用兜底昵称")
	}
	player = &model.Player{SteamID: steamID, Username: name}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, fmt.Errorf("创建玩家失败: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"player_id": player.ID,
		"steam_id":  steamID,
	}).Info("新玩家已创建")
	return player, nil
}

// RideEntry 排行里的一条 ride
type RideEntry struct {
	Username     string
	Score        int64
	VehicleID    int16
	RideTime     int64 // unix 秒
	Feats        string
	SongLength   int32
	TrafficCount int32
}

// LeagueRides 某档位的条目
type LeagueRides struct {
	League model.League
	Rides  []RideEntry
}

// ScopeRides 某榜单范围（全服/对手）的分档位条目
type ScopeRides struct {
	Scope   model.ScoreScope
	Leagues []LeagueRides
}

// RidesResult GetRides 响应数据
type RidesResult struct {
	SongID     uint64
	Scopes     []ScopeRides
	ServerTime int64
}

// GetRides 返回某首歌的排行：全服每档位前11名 + 请求者的对手榜。
func (s *GameplayService) GetRides(ctx context.Context, songID uint64, ticket string) (*RidesResult, error) {
	steamID, err := s.auth.AuthenticateTicket(ctx, ticket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if _, err := s.songRepo.GetByID(ctx, songID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: song_id=%d", ErrNotFound, songID)
		}
		return nil, fmt.Errorf("查询歌曲失败: %w", err)
	}
	player, err := s.findOrCreatePlayer(ctx, steamID)
	if err != nil {
		return nil, err
	}

	leagues := []model.League{model.LeagueCasual, model.LeaguePro, model.LeagueElite}

	global := ScopeRides{Scope: model.ScopeGlobal}
	for _, league := range leagues {
		scores, err := s.scoreRepo.ListTopBySongLeague(ctx, songID, league, 11)
		if err != nil {
			return nil, fmt.Errorf("查询全服榜失败: %w", err)
		}
		entries, err := s.toEntries(ctx, scores)
		if err != nil {
			return nil, err
		}
		global.Leagues = append(global.Leagues, LeagueRides{League: league, Rides: entries})
	}

	// 对手榜：对手集合 + 自己
	edges, err := s.rivalryRepo.ListByChallenger(ctx, player.ID)
	if err != nil {
		return nil, fmt.Errorf("查询对手关系失败: %w", err)
	}
	friendIDs := []uint64{player.ID}
	for _, e := range edges {
		friendIDs = append(friendIDs, e.RivalID)
	}
	friend := ScopeRides{Scope: model.ScopeFriend}
	for _, league := range leagues {
		scores, err := s.scoreRepo.ListBySongLeagueForPlayers(ctx, songID, league, friendIDs)
		if err != nil {
			return nil, fmt.Errorf("查询对手榜失败: %w", err)
		}
		entries, err := s.toEntries(ctx, scores)
		if err != nil {
			return nil, err
		}
		friend.Leagues = append(friend.Leagues, LeagueRides{League: league, Rides: entries})
	}

	return &RidesResult{
		SongID:     songID,
		Scopes:     []ScopeRides{global, friend},
		ServerTime: time.Now().Unix(),
	}, nil
}

func (s *GameplayService) toEntries(ctx context.Context, scores []*model.Score) ([]RideEntry, error) {
	ids := make([]uint64, 0, len(scores))
	for _, sc := range scores {
		ids = append(ids, sc.PlayerID)
	}
	players, err := s.playerRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("批量查询玩家失败: %w", err)
	}
	names := make(map[uint64]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Username
	}

	entries := make([]RideEntry, 0, len(scores))
	for _, sc := range scores {
		entries = append(entries, RideEntry{
			Username:     names[sc.PlayerID],
			Score:        sc.Score,
			VehicleID:    sc.Vehicle,
			RideTime:     sc.SubmittedAt.Unix(),
			Feats:        strings.Join(model.JSONToStrings(sc.Feats), ", "),
			SongLength:   sc.SongLength,
			TrafficCount: sc.Density,
		})
	}
	return entries, nil
}
