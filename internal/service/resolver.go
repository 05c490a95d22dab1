package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"WaveRider/internal/interfaces"
	"WaveRider/internal/model"
	"WaveRider/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SongResolverService 歌曲身份解析：把客户端上报的 (title, artist)
// 解析为唯一的规范歌曲记录，没有就建一条。
type SongResolverService struct {
	songRepo  repository.SongRepository
	extraRepo repository.ExtraSongInfoRepository
	metadata  interfaces.MetadataProvider
	logger    *logrus.Logger
}

// NewSongResolverService 创建 SongResolverService
func NewSongResolverService(
	songRepo repository.SongRepository,
	extraRepo repository.ExtraSongInfoRepository,
	metadata interfaces.MetadataProvider,
	logger *logrus.Logger,
) *SongResolverService {
	return &SongResolverService{
		songRepo:  songRepo,
		extraRepo: extraRepo,
		metadata:  metadata,
		logger:    logger,
	}
}

// ResolveOrCreate 解析或创建歌曲。匹配谓词见 SongRepository.FindMatching。
//
// 已知取舍：两个客户端同时首次提交同一首新歌会各建一行（这里没有
// find-or-create 事务串行化，也没有 (title, artist) 唯一约束，因为
// 重复本来就是合法状态），重复行走合并流程事后归并。
func (s *SongResolverService) ResolveOrCreate(ctx context.Context, title, artist string) (*model.Song, bool, error) {
	song, err := s.songRepo.FindMatching(ctx, title, artist)
	if err == nil {
		return song, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("歌曲匹配查询失败: %w", err)
	}

	newSong := &model.Song{Title: title, Artist: artist}
	if err := s.songRepo.Create(ctx, newSong); err != nil {
		return nil, false, fmt.Errorf("创建歌曲失败: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"song_id": newSong.ID,
		"title":   title,
		"artist":  artist,
	}).Info("新歌曲已注册")
	return newSong, true, nil
}

// AutoAddMetadata 给没有 ExtraSongInfo 的歌曲补外部元数据。
// 已有元数据行就直接返回（哪怕那行缺 MusicBrainz 字段也不补）。
// duration 为毫秒，0 表示未知。
func (s *SongResolverService) AutoAddMetadata(ctx context.Context, song *model.Song, duration int32) error {
	_, err := s.extraRepo.GetBySongID(ctx, song.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("查询歌曲元数据失败: %w", err)
	}

	record, err := s.metadata.Lookup(ctx, song.Title, song.Artist, duration)
	if err != nil {
		return fmt.Errorf("外部元数据查询失败: %w", err)
	}
	if record == nil {
		s.logger.WithField("song_id", song.ID).Debug("外部元数据无命中")
		return nil
	}
	if err := s.extraRepo.Create(ctx, buildExtraInfo(song.ID, record)); err != nil {
		return fmt.Errorf("写入歌曲元数据失败: %w", err)
	}
	return nil
}

// AddMetadataByMBID 管理操作：按录音MBID拉取元数据并更新/创建 ExtraSongInfo
func (s *SongResolverService) AddMetadataByMBID(ctx context.Context, songID uint64, mbid, releaseMBID string) error {
	song, err := s.songRepo.GetByID(ctx, songID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: song_id=%d", ErrNotFound, songID)
		}
		return fmt.Errorf("查询歌曲失败: %w", err)
	}

	record, err := s.metadata.LookupByMBID(ctx, mbid, releaseMBID)
	if err != nil {
		return fmt.Errorf("MBID元数据查询失败: %w", err)
	}

	existing, err := s.extraRepo.GetBySongID(ctx, song.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("查询歌曲元数据失败: %w", err)
		}
		if err := s.extraRepo.Create(ctx, buildExtraInfo(song.ID, record)); err != nil {
			return fmt.Errorf("写入歌曲元数据失败: %w", err)
		}
		return nil
	}

	applyMetadata(existing, record)
	if err := s.extraRepo.Save(ctx, existing); err != nil {
		return fmt.Errorf("更新歌曲元数据失败: %w", err)
	}
	return nil
}

// buildExtraInfo 把外部元数据记录落到新的 ExtraSongInfo 行。
// 归一化标题/演唱者按约定存小写。
func buildExtraInfo(songID uint64, record *interfaces.MetadataRecord) *model.ExtraSongInfo {
	info := &model.ExtraSongInfo{SongID: songID}
	applyMetadata(info, record)
	return info
}

func applyMetadata(info *model.ExtraSongInfo, record *interfaces.MetadataRecord) {
	title := strings.ToLower(record.Title)
	artist := strings.ToLower(record.Artist)
	info.MusicBrainzID = &record.MusicBrainzID
	info.MusicBrainzTitle = &title
	info.MusicBrainzArtist = &artist
	if record.ReleaseID != "" {
		info.MusicBrainzRelease = &record.ReleaseID
	}
	if record.Length > 0 {
		info.MusicBrainzLength = &record.Length
	}
	if record.CoverURL != "" {
		info.CoverURL = &record.CoverURL
	}
	if record.SmallCoverURL != "" {
		info.SmallCoverURL = &record.SmallCoverURL
	}
}
