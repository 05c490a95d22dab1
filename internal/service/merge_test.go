package service

import (
	"context"
	"testing"

	"WaveRider/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMerge(s *fakeStore, cache *fakeCache) *SongMergeService {
	return NewSongMergeService(&fakeTxManager{s: s}, cache, testLogger())
}

// scoresOnSong 断言辅助：某首歌当前幸存的成绩行
func scoresOnSong(s *fakeStore, songID uint64) []*model.Score {
	var out []*model.Score
	for _, sc := range s.scores {
		if sc.SongID == songID {
			out = append(out, sc)
		}
	}
	return out
}

func TestMerge_OverlapKeepsHigherValueAndSumsPlayCounts(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	player := store.addPlayer(76561198000000001, "rider-a")
	target := store.addSong("Neon Drift", "The Overpass")
	dup := store.addSong("Neon Drift (Remaster)", "The Overpass")

	store.addScore(&model.Score{PlayerID: player.ID, SongID: target.ID, League: model.LeaguePro, Score: 150, PlayCount: 2})
	store.addScore(&model.Score{PlayerID: player.ID, SongID: dup.ID, League: model.LeaguePro, Score: 200, PlayCount: 3})
	// 合并前缓存里两行都记了分
	cache.points[player.ID] = 350

	require.NoError(t, newMerge(store, cache).Merge(context.Background(), dup.ID, target.ID, false))

	// 重复歌曲整行消失
	assert.NotContains(t, store.songs, dup.ID)
	assert.Empty(t, scoresOnSong(store, dup.ID))

	// 目标上只剩一行：最大值幸存，游玩次数求和
	survivors := scoresOnSong(store, target.ID)
	require.Len(t, survivors, 1)
	assert.Equal(t, int64(200), survivors[0].Score)
	assert.Equal(t, int32(5), survivors[0].PlayCount)

	// 被删行（150）的缓存贡献被释放
	assert.Equal(t, int64(200), cache.points[player.ID])
}

func TestMerge_OverlapTargetAlreadyHigher(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	player := store.addPlayer(76561198000000001, "rider-a")
	target := store.addSong("Neon Drift", "The Overpass")
	dup := store.addSong("Neon Drift (Remaster)", "The Overpass")

	store.addScore(&model.Score{PlayerID: player.ID, SongID: target.ID, League: model.LeagueElite, Score: 300, PlayCount: 4})
	store.addScore(&model.Score{PlayerID: player.ID, SongID: dup.ID, League: model.LeagueElite, Score: 120, PlayCount: 1})
	cache.points[player.ID] = 420

	require.NoError(t, newMerge(store, cache).Merge(context.Background(), dup.ID, target.ID, false))

	survivors := scoresOnSong(store, target.ID)
	require.Len(t, survivors, 1)
	assert.Equal(t, int64(300), survivors[0].Score)
	assert.Equal(t, int32(5), survivors[0].PlayCount)
	assert.Equal(t, int64(300), cache.points[player.ID])
}

func TestMerge_NoOverlapRepointsScore(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	player := store.addPlayer(76561198000000001, "rider-a")
	target := store.addSong("Neon Drift", "The Overpass")
	dup := store.addSong("Neon Drift (Remaster)", "The Overpass")

	sc := store.addScore(&model.Score{PlayerID: player.ID, SongID: dup.ID, League: model.LeagueCasual, Score: 90, PlayCount: 2})
	cache.points[player.ID] = 90

	require.NoError(t, newMerge(store, cache).Merge(context.Background(), dup.ID, target.ID, false))

	// 成绩整行改指目标，次数与缓存原样保留
	assert.Equal(t, target.ID, store.scores[sc.ID].SongID)
	assert.Equal(t, int32(2), store.scores[sc.ID].PlayCount)
	assert.Equal(t, int64(90), cache.points[player.ID])
}

func TestMerge_DifferentLeaguesDoNotCollide(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	player := store.addPlayer(76561198000000001, "rider-a")
	target := store.addSong("Neon Drift", "The Overpass")
	dup := store.addSong("Neon Drift (Remaster)", "The Overpass")

	// 同玩家但不同档位：不算冲突，两行都要幸存
	store.addScore(&model.Score{PlayerID: player.ID, SongID: target.ID, League: model.LeagueCasual, Score: 100, PlayCount: 1})
	store.addScore(&model.Score{PlayerID: player.ID, SongID: dup.ID, League: model.LeaguePro, Score: 200, PlayCount: 1})
	cache.points[player.ID] = 300

	require.NoError(t, newMerge(store, cache).Merge(context.Background(), dup.ID, target.ID, false))

	assert.Len(t, scoresOnSong(store, target.ID), 2)
	assert.Equal(t, int64(300), cache.points[player.ID])
}

func TestMerge_AliasAppendAndDedup(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	target := store.addSong("Neon Drift", "The Overpass")
	dup := store.addSong("Neon Drift (Remaster)", "The Overpass")
	store.extras[target.ID] = &model.ExtraSongInfo{
		ID:            store.id(),
		SongID:        target.ID,
		AliasesTitle:  model.StringsToJSON([]string{"Neon Drift (Remaster)"}),
		AliasesArtist: model.StringsToJSON([]string{}),
	}

	require.NoError(t, newMerge(store, cache).Merge(context.Background(), dup.ID, target.ID, true))

	info := store.extras[target.ID]
	// 标题别名已存在，不重复追加；演唱者别名正常追加
	assert.Equal(t, []string{"Neon Drift (Remaster)"}, model.JSONToStrings(info.AliasesTitle))
	assert.Equal(t, []string{"The Overpass"}, model.JSONToStrings(info.AliasesArtist))
}

func TestMerge_AliasCreatesInfoRowWhenMissing(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	target := store.addSong("Neon Drift", "The Overpass")
	dup := store.addSong("ND Remaster", "Overpass")

	require.NoError(t, newMerge(store, cache).Merge(context.Background(), dup.ID, target.ID, true))

	info := store.extras[target.ID]
	require.NotNil(t, info)
	assert.Equal(t, []string{"ND Remaster"}, model.JSONToStrings(info.AliasesTitle))
	assert.Equal(t, []string{"Overpass"}, model.JSONToStrings(info.AliasesArtist))
}

func TestMerge_SelfMergeRejected(t *testing.T) {
	store := newFakeStore()
	song := store.addSong("Neon Drift", "The Overpass")

	err := newMerge(store, newFakeCache()).Merge(context.Background(), song.ID, song.ID, false)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMerge_MissingTarget(t *testing.T) {
	store := newFakeStore()
	dup := store.addSong("Neon Drift (Remaster)", "The Overpass")

	err := newMerge(store, newFakeCache()).Merge(context.Background(), dup.ID, 999, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMerge_CacheFailureDoesNotFailMerge(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	cache.failAll = true
	player := store.addPlayer(76561198000000001, "rider-a")
	target := store.addSong("Neon Drift", "The Overpass")
	dup := store.addSong("Neon Drift (Remaster)", "The Overpass")
	store.addScore(&model.Score{PlayerID: player.ID, SongID: target.ID, League: model.LeaguePro, Score: 150, PlayCount: 1})
	store.addScore(&model.Score{PlayerID: player.ID, SongID: dup.ID, League: model.LeaguePro, Score: 100, PlayCount: 1})

	// 提交后的缓存增量是尽力而为：缓存故障不能让已提交的合并报错
	require.NoError(t, newMerge(store, cache).Merge(context.Background(), dup.ID, target.ID, false))
	assert.NotContains(t, store.songs, dup.ID)
}
