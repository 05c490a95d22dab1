package model

import (
	"time"

	"gorm.io/datatypes"
)

// Song 歌曲主记录。
// 注意：(title, artist) 故意不做唯一约束！客户端拼写差异、元数据归一化
// 等都会产生重复记录，由合并流程（SongMergeService）事后归并，而不是
// 在 find-or-create 时用事务串行化（见 service/resolver.go 的说明）。
type Song struct {
	ID        uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Title     string         `gorm:"column:title;type:varchar(256);not null;index:idx_song_title;comment:歌曲标题"`
	Artist    string         `gorm:"column:artist;type:varchar(256);not null;index:idx_song_artist;comment:演唱者"`
	Modifiers datatypes.JSON `gorm:"column:modifiers;type:jsonb;comment:玩法修饰标签列表（JSON字符串数组，可为空）"`
	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
}

// ExtraSongInfo 歌曲的外部元数据与别名信息，与 Song 1:1（懒创建）。
// musicbrainz_title/artist 按约定存小写，供大小写无关匹配；
// aliases_title/aliases_artist 是 JSON 字符串数组，合并歌曲时会把被合并
// 记录的原始标题/演唱者追加进来，供后续解析命中。
type ExtraSongInfo struct {
	ID                 uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	SongID             uint64         `gorm:"column:song_id;type:bigint;uniqueIndex:uk_extra_song;not null;comment:关联歌曲ID（1:1）"`
	MusicBrainzID      *string        `gorm:"column:musicbrainz_id;type:varchar(64);comment:MusicBrainz录音MBID"`
	MusicBrainzRelease *string        `gorm:"column:musicbrainz_release;type:varchar(64);comment:MusicBrainz发行MBID"`
	MusicBrainzTitle   *string        `gorm:"column:musicbrainz_title;type:varchar(256);comment:归一化标题（小写）"`
	MusicBrainzArtist  *string        `gorm:"column:musicbrainz_artist;type:varchar(256);comment:归一化演唱者（小写）"`
	MusicBrainzLength  *int32         `gorm:"column:musicbrainz_length;type:int;comment:外部元数据中的歌曲时长（毫秒）"`
	CoverURL           *string        `gorm:"column:cover_url;type:varchar(512);comment:封面图URL"`
	SmallCoverURL      *string        `gorm:"column:small_cover_url;type:varchar(512);comment:小尺寸封面图URL"`
	AliasesTitle       datatypes.JSON `gorm:"column:aliases_title;type:jsonb;comment:标题别名列表（JSON字符串数组）"`
	AliasesArtist      datatypes.JSON `gorm:"column:aliases_artist;type:jsonb;comment:演唱者别名列表（JSON字符串数组）"`
}

// Player 玩家。首次成功登录/提交成绩时创建，本服务不删除玩家。
type Player struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	SteamID   uint64    `gorm:"column:steam_id;type:bigint;uniqueIndex:uk_player_steam;not null;comment:Steam外部身份（唯一）"`
	Username  string    `gorm:"column:username;type:varchar(64);not null;comment:展示用昵称"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间"`
}

// Score 成绩记录，(player_id, song_id, league) 唯一。
// 每次 ride 提交要么新建本行，要么在本行上累加 play_count / 覆盖更优成绩；
// 删除只会发生在歌曲删除/合并的级联里。score 字段变动时必须同步调整
// Redis 技能点聚合（先写库、后写缓存，见 cache/skillpoints.go）。
type Score struct {
	ID            uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	PlayerID      uint64         `gorm:"column:player_id;type:bigint;not null;uniqueIndex:uk_player_song_league;comment:关联玩家ID"`
	SongID        uint64         `gorm:"column:song_id;type:bigint;not null;uniqueIndex:uk_player_song_league;index:idx_score_song;comment:关联歌曲ID"`
	League        League         `gorm:"column:league;type:smallint;not null;uniqueIndex:uk_player_song_league;comment:联赛档位：0=Casual 1=Pro 2=Elite"`
	Score         int64          `gorm:"column:score;type:bigint;not null;comment:成绩分值"`
	PlayCount     int32          `gorm:"column:play_count;type:int;not null;default:1;comment:累计游玩次数"`
	Vehicle       int16          `gorm:"column:vehicle;type:smallint;not null;comment:使用的载具/角色ID"`
	TrackShape    datatypes.JSON `gorm:"column:track_shape;type:jsonb;comment:赛道形状数据（JSON整数数组）"`
	XStats        datatypes.JSON `gorm:"column:xstats;type:jsonb;comment:扩展统计数据（JSON整数数组）"`
	Density       int32          `gorm:"column:density;type:int;comment:车流密度"`
	Feats         datatypes.JSON `gorm:"column:feats;type:jsonb;comment:达成的特技列表（JSON字符串数组）"`
	SongLength    int32          `gorm:"column:song_length;type:int;comment:歌曲长度（厘秒）"`
	GoldThreshold int32          `gorm:"column:gold_threshold;type:int;comment:金牌分数线"`
	ISS           int32          `gorm:"column:iss;type:int;comment:客户端上报的iss阈值"`
	ISJ           int32          `gorm:"column:isj;type:int;comment:客户端上报的isj阈值"`
	SubmittedAt   time.Time      `gorm:"column:submitted_at;type:timestamp;default:now();comment:最近一次提交时间"`
}

// Rivalry 有向的对手关系：challenger 把 rival 视为对手。
// 互为对手（mutual）当且仅当反向边也存在；两个方向是独立创建的两行，
// 不是一条无向边。
type Rivalry struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	ChallengerID  uint64    `gorm:"column:challenger_id;type:bigint;not null;uniqueIndex:uk_challenger_rival;comment:发起方玩家ID"`
	RivalID       uint64    `gorm:"column:rival_id;type:bigint;not null;uniqueIndex:uk_challenger_rival;comment:对手玩家ID"`
	EstablishedAt time.Time `gorm:"column:established_at;type:timestamp;default:now();comment:建立时间"`
}

func (Song) TableName() string          { return "songs" }
func (ExtraSongInfo) TableName() string { return "extra_song_info" }
func (Player) TableName() string        { return "players" }
func (Score) TableName() string         { return "scores" }
func (Rivalry) TableName() string       { return "rivalries" }
