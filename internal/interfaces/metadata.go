package interfaces

import "context"

// MetadataRecord 外部元数据查询结果（MusicBrainz）
type MetadataRecord struct {
	MusicBrainzID string // 录音MBID
	ReleaseID     string // 发行MBID（可为空）
	Title         string // 外部标题（原始大小写）
	Artist        string // 外部演唱者（原始大小写）
	Length        int32  // 时长（毫秒，0=未知）
	CoverURL      string // 封面图URL（可为空）
	SmallCoverURL string // 小尺寸封面图URL（可为空）
}

// MetadataProvider 外部元数据查询接口
type MetadataProvider interface {
	// Lookup 按标题/演唱者（可选时长）模糊查询；无结果返回 (nil, nil)
	Lookup(ctx context.Context, title, artist string, duration int32) (*MetadataRecord, error)
	// LookupByMBID 按录音MBID精确查询，releaseMBID 可为空
	LookupByMBID(ctx context.Context, mbid, releaseMBID string) (*MetadataRecord, error)
}
