package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"WaveRider/internal/interfaces"
	"WaveRider/internal/model"
	"WaveRider/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// fakeStore 进程内假存储，让 service 层测试不依赖 Postgres。
// 匹配/排序语义与 repository 的 SQL 实现保持一致。
type fakeStore struct {
	songs     map[uint64]*model.Song
	extras    map[uint64]*model.ExtraSongInfo // key = song_id
	players   map[uint64]*model.Player
	scores    map[uint64]*model.Score
	rivalries []*model.Rivalry
	nextID    uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		songs:   make(map[uint64]*model.Song),
		extras:  make(map[uint64]*model.ExtraSongInfo),
		players: make(map[uint64]*model.Player),
		scores:  make(map[uint64]*model.Score),
	}
}

func (f *fakeStore) id() uint64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) repos() *repository.Repositories {
	return &repository.Repositories{
		Songs:     &fakeSongRepo{f},
		ExtraInfo: &fakeExtraRepo{f},
		Players:   &fakePlayerRepo{f},
		Scores:    &fakeScoreRepo{f},
		Rivalries: &fakeRivalryRepo{f},
	}
}

func (f *fakeStore) addSong(title, artist string) *model.Song {
	s := &model.Song{ID: f.id(), Title: title, Artist: artist}
	f.songs[s.ID] = s
	return s
}

func (f *fakeStore) addPlayer(steamID uint64, name string) *model.Player {
	p := &model.Player{ID: f.id(), SteamID: steamID, Username: name}
	f.players[p.ID] = p
	return p
}

func (f *fakeStore) addScore(sc *model.Score) *model.Score {
	sc.ID = f.id()
	f.scores[sc.ID] = sc
	return sc
}

// ---------- SongRepository ----------

type fakeSongRepo struct{ s *fakeStore }

func (r *fakeSongRepo) GetByID(_ context.Context, id uint64) (*model.Song, error) {
	song, ok := r.s.songs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return song, nil
}

func (r *fakeSongRepo) FindMatching(_ context.Context, title, artist string) (*model.Song, error) {
	ids := make([]uint64, 0, len(r.s.songs))
	for id := range r.s.songs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		song := r.s.songs[id]
		extra := r.s.extras[id]
		if matchField(song.Title, extra, title, true) && matchField(song.Artist, extra, artist, false) {
			return song, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// matchField 与 songRepository.FindMatching 的 SQL 谓词等价：
// 本体精确 OR 归一化忽略大小写 OR 别名列表命中
func matchField(own string, extra *model.ExtraSongInfo, input string, isTitle bool) bool {
	if own == input {
		return true
	}
	if extra == nil {
		return false
	}
	var normalized *string
	var aliases []string
	if isTitle {
		normalized = extra.MusicBrainzTitle
		aliases = model.JSONToStrings(extra.AliasesTitle)
	} else {
		normalized = extra.MusicBrainzArtist
		aliases = model.JSONToStrings(extra.AliasesArtist)
	}
	if normalized != nil && strings.EqualFold(*normalized, input) {
		return true
	}
	for _, a := range aliases {
		if a == input {
			return true
		}
	}
	return false
}

func (r *fakeSongRepo) Create(_ context.Context, song *model.Song) error {
	song.ID = r.s.id()
	r.s.songs[song.ID] = song
	return nil
}

func (r *fakeSongRepo) Delete(_ context.Context, id uint64) error {
	delete(r.s.songs, id)
	return nil
}

// ---------- ExtraSongInfoRepository ----------

type fakeExtraRepo struct{ s *fakeStore }

func (r *fakeExtraRepo) GetBySongID(_ context.Context, songID uint64) (*model.ExtraSongInfo, error) {
	info, ok := r.s.extras[songID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return info, nil
}

func (r *fakeExtraRepo) Create(_ context.Context, info *model.ExtraSongInfo) error {
	info.ID = r.s.id()
	r.s.extras[info.SongID] = info
	return nil
}

func (r *fakeExtraRepo) Save(_ context.Context, info *model.ExtraSongInfo) error {
	r.s.extras[info.SongID] = info
	return nil
}

// ---------- PlayerRepository ----------

type fakePlayerRepo struct{ s *fakeStore }

func (r *fakePlayerRepo) GetByID(_ context.Context, id uint64) (*model.Player, error) {
	p, ok := r.s.players[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakePlayerRepo) GetBySteamID(_ context.Context, steamID uint64) (*model.Player, error) {
	for _, p := range r.s.players {
		if p.SteamID == steamID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePlayerRepo) GetByIDs(_ context.Context, ids []uint64) ([]*model.Player, error) {
	var out []*model.Player
	for _, id := range ids {
		if p, ok := r.s.players[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePlayerRepo) Create(_ context.Context, player *model.Player) error {
	player.ID = r.s.id()
	r.s.players[player.ID] = player
	return nil
}

func (r *fakePlayerRepo) Save(_ context.Context, player *model.Player) error {
	r.s.players[player.ID] = player
	return nil
}

// ---------- ScoreRepository ----------

type fakeScoreRepo struct{ s *fakeStore }

func (r *fakeScoreRepo) GetByPlayerSongLeague(_ context.Context, playerID, songID uint64, league model.League) (*model.Score, error) {
	for _, sc := range r.s.scores {
		if sc.PlayerID == playerID && sc.SongID == songID && sc.League == league {
			return sc, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeScoreRepo) ListBySong(_ context.Context, songID uint64) ([]*model.Score, error) {
	var out []*model.Score
	for _, sc := range r.s.scores {
		if sc.SongID == songID {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeScoreRepo) ListTopBySongLeague(_ context.Context, songID uint64, league model.League, limit int) ([]*model.Score, error) {
	var out []*model.Score
	for _, sc := range r.s.scores {
		if sc.SongID == songID && sc.League == league {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeScoreRepo) ListBySongLeagueForPlayers(_ context.Context, songID uint64, league model.League, playerIDs []uint64) ([]*model.Score, error) {
	allowed := make(map[uint64]bool, len(playerIDs))
	for _, id := range playerIDs {
		allowed[id] = true
	}
	var out []*model.Score
	for _, sc := range r.s.scores {
		if sc.SongID == songID && sc.League == league && allowed[sc.PlayerID] {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (r *fakeScoreRepo) Create(_ context.Context, score *model.Score) error {
	score.ID = r.s.id()
	r.s.scores[score.ID] = score
	return nil
}

func (r *fakeScoreRepo) Save(_ context.Context, score *model.Score) error {
	r.s.scores[score.ID] = score
	return nil
}

func (r *fakeScoreRepo) Delete(_ context.Context, id uint64) error {
	delete(r.s.scores, id)
	return nil
}

func (r *fakeScoreRepo) SumByPlayer(_ context.Context) ([]repository.PlayerPoints, error) {
	totals := make(map[uint64]int64)
	for _, sc := range r.s.scores {
		totals[sc.PlayerID] += sc.Score
	}
	var out []repository.PlayerPoints
	for id, total := range totals {
		out = append(out, repository.PlayerPoints{PlayerID: id, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

// ---------- RivalryRepository ----------

type fakeRivalryRepo struct{ s *fakeStore }

func (r *fakeRivalryRepo) ListByChallenger(_ context.Context, challengerID uint64) ([]*model.Rivalry, error) {
	var out []*model.Rivalry
	for _, rv := range r.s.rivalries {
		if rv.ChallengerID == challengerID {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (r *fakeRivalryRepo) Exists(_ context.Context, challengerID, rivalID uint64) (bool, error) {
	for _, rv := range r.s.rivalries {
		if rv.ChallengerID == challengerID && rv.RivalID == rivalID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRivalryRepo) Create(_ context.Context, rivalry *model.Rivalry) error {
	rivalry.ID = r.s.id()
	r.s.rivalries = append(r.s.rivalries, rivalry)
	return nil
}

// ---------- TxManager ----------

// fakeTxManager 直接透传（不模拟回滚），合并失败路径单独断言错误类型
type fakeTxManager struct{ s *fakeStore }

func (m *fakeTxManager) RunInTx(_ context.Context, fn func(r *repository.Repositories) error) error {
	return fn(m.s.repos())
}

// ---------- SkillPointsCache ----------

type fakeCache struct {
	points  map[uint64]int64
	failAll bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{points: make(map[uint64]int64)}
}

func (c *fakeCache) Add(_ context.Context, playerID uint64, delta int64) error {
	if c.failAll {
		return fmt.Errorf("cache down")
	}
	c.points[playerID] += delta
	return nil
}

func (c *fakeCache) Deduct(_ context.Context, playerID uint64, delta int64) error {
	if c.failAll {
		return fmt.Errorf("cache down")
	}
	c.points[playerID] -= delta
	return nil
}

func (c *fakeCache) Get(_ context.Context, playerID uint64) (int64, error) {
	return c.points[playerID], nil
}

func (c *fakeCache) Set(_ context.Context, playerID uint64, total int64) error {
	if c.failAll {
		return fmt.Errorf("cache down")
	}
	c.points[playerID] = total
	return nil
}

// ---------- TicketAuthenticator ----------

type fakeAuth struct {
	tickets  map[string]uint64 // ticket -> steamID
	personas map[uint64]string
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{tickets: make(map[string]uint64), personas: make(map[uint64]string)}
}

func (a *fakeAuth) AuthenticateTicket(_ context.Context, ticket string) (uint64, error) {
	id, ok := a.tickets[ticket]
	if !ok {
		return 0, fmt.Errorf("invalid ticket")
	}
	return id, nil
}

func (a *fakeAuth) GetPersonaName(_ context.Context, steamID uint64) (string, error) {
	name, ok := a.personas[steamID]
	if !ok {
		return "", fmt.Errorf("no persona")
	}
	return name, nil
}

// ---------- MetadataProvider ----------

type fakeMetadata struct {
	record      *interfaces.MetadataRecord
	lookupCalls int
}

func (m *fakeMetadata) Lookup(_ context.Context, _, _ string, _ int32) (*interfaces.MetadataRecord, error) {
	m.lookupCalls++
	return m.record, nil
}

func (m *fakeMetadata) LookupByMBID(_ context.Context, mbid, _ string) (*interfaces.MetadataRecord, error) {
	if m.record == nil {
		return nil, fmt.Errorf("unknown mbid %s", mbid)
	}
	return m.record, nil
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
