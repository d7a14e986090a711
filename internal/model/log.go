package model

import "time"

// 日志子类型与来源
const (
	LogSubtypeRun     = "run"
	LogSubtypeComment = "comment"

	LogOriginHuman   = "human"
	LogOriginProcess = "process"
)

// Tag 标签表 — 对应 tags
type Tag struct {
	ID        int64     `gorm:"primaryKey"                              json:"id"`
	Text      string    `gorm:"type:varchar(255);not null;uniqueIndex"  json:"text"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"      json:"-"`
}

// TableName 指定表名
func (Tag) TableName() string { return "tags" }

// Log 日志表 — 对应 logs
// ParentLogID 为空表示根日志（非回复）
type Log struct {
	ID          int64   `gorm:"primaryKey"                           json:"id"`
	Title       string  `gorm:"type:varchar(255);not null"           json:"title"`
	Text        string  `gorm:"type:text;not null"                   json:"text"`
	Subtype     string  `gorm:"type:varchar(20);not null;default:'run'" json:"subtype"`
	Origin      string  `gorm:"type:varchar(20);not null;default:'human'" json:"origin"`
	UserID      *string `gorm:"type:uuid"                            json:"user_id,omitempty"`
	ParentLogID *int64  `                                            json:"parent_log_id,omitempty"`
	RootLogID   *int64  `                                            json:"root_log_id,omitempty"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID"       json:"user,omitempty"`
	Tags []Tag `gorm:"many2many:log_tags;joinForeignKey:LogID;joinReferences:TagID" json:"tags"`
	Runs []Run `gorm:"many2many:log_runs;joinForeignKey:LogID;joinReferences:RunID" json:"runs,omitempty"`
}

// TableName 指定表名
func (Log) TableName() string { return "logs" }

// IsRoot 是否为根日志
func (l *Log) IsRoot() bool { return l.ParentLogID == nil }

// TagTexts 返回标签文本列表，保持关联顺序
func (l *Log) TagTexts() []string {
	texts := make([]string, 0, len(l.Tags))
	for _, t := range l.Tags {
		texts = append(texts, t.Text)
	}
	return texts
}

// HasTag 判断日志是否带有任一给定标签
func (l *Log) HasTag(texts ...string) bool {
	for _, t := range l.Tags {
		for _, want := range texts {
			if t.Text == want {
				return true
			}
		}
	}
	return false
}
