package model

import "time"

// 运行质量
const (
	RunQualityGood = "good"
	RunQualityBad  = "bad"
	RunQualityTest = "test"
)

// 探测器质量
const (
	DetectorQualityGood = "GOOD"
	DetectorQualityBad  = "BAD"
)

// RunType 运行类型表 — 对应 run_types
type RunType struct {
	ID   int64  `gorm:"primaryKey"                            json:"id"`
	Name string `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
}

// TableName 指定表名
func (RunType) TableName() string { return "run_types" }

// LhcFill LHC 填充表 — 对应 lhc_fills
type LhcFill struct {
	FillNumber       int64      `gorm:"primaryKey;autoIncrement:false" json:"fill_number"`
	StableBeamsStart *time.Time `                                       json:"stable_beams_start,omitempty"`
	StableBeamsEnd   *time.Time `                                       json:"stable_beams_end,omitempty"`
}

// TableName 指定表名
func (LhcFill) TableName() string { return "lhc_fills" }

// Detector 探测器表 — 对应 detectors
type Detector struct {
	ID   int64  `gorm:"primaryKey"                           json:"id"`
	Name string `gorm:"type:varchar(32);not null;uniqueIndex" json:"name"`
}

// TableName 指定表名
func (Detector) TableName() string { return "detectors" }

// RunDetector 运行-探测器关联（带质量标记）— 对应 run_detectors
type RunDetector struct {
	RunNumber  int64   `gorm:"primaryKey;autoIncrement:false" json:"run_number"`
	DetectorID int64   `gorm:"primaryKey;autoIncrement:false" json:"detector_id"`
	Quality    *string `gorm:"type:varchar(16)"               json:"quality,omitempty"`

	Detector *Detector `gorm:"foreignKey:DetectorID" json:"detector,omitempty"`
}

// TableName 指定表名
func (RunDetector) TableName() string { return "run_detectors" }

// ReasonType 结束原因类型表 — 对应 reason_types
type ReasonType struct {
	ID       int64   `gorm:"primaryKey"                  json:"id"`
	Category string  `gorm:"type:varchar(64);not null"   json:"category"`
	Title    *string `gorm:"type:varchar(255)"           json:"title,omitempty"`
}

// TableName 指定表名
func (ReasonType) TableName() string { return "reason_types" }

// EorReason 运行结束原因表 — 对应 eor_reasons
type EorReason struct {
	ID           int64     `gorm:"primaryKey"                         json:"id"`
	RunID        int64     `gorm:"not null;index"                     json:"run_id"`
	ReasonTypeID int64     `gorm:"not null"                           json:"reason_type_id"`
	Description  string    `gorm:"type:text"                          json:"description"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	ReasonType *ReasonType `gorm:"foreignKey:ReasonTypeID" json:"reason_type,omitempty"`
}

// TableName 指定表名
func (EorReason) TableName() string { return "eor_reasons" }

// Run 运行表 — 对应 runs
type Run struct {
	ID            int64   `gorm:"primaryKey"                        json:"id"`
	RunNumber     int64   `gorm:"not null;uniqueIndex"              json:"run_number"`
	EnvironmentID *string `gorm:"type:varchar(45)"                  json:"environment_id,omitempty"`
	RunQuality    string  `gorm:"type:varchar(16);not null;default:'good'" json:"run_quality"`

	TimeO2Start  *time.Time `gorm:"column:time_o2_start"  json:"time_o2_start,omitempty"`
	TimeO2End    *time.Time `gorm:"column:time_o2_end"    json:"time_o2_end,omitempty"`
	TimeTrgStart *time.Time `gorm:"column:time_trg_start" json:"time_trg_start,omitempty"`
	TimeTrgEnd   *time.Time `gorm:"column:time_trg_end"   json:"time_trg_end,omitempty"`
	RunDuration  *int64     `                             json:"run_duration,omitempty"` // 毫秒

	// 运行分类所需字段
	ConcatenatedDetectors *string `gorm:"type:text"        json:"concatenated_detectors,omitempty"`
	TriggerValue          *string `gorm:"type:varchar(8)"  json:"trigger_value,omitempty"`
	DCS                   *bool   `gorm:"column:dcs"       json:"dcs,omitempty"`
	DdFlp                 *bool   `gorm:"column:dd_flp"    json:"dd_flp,omitempty"`
	EPN                   *bool   `gorm:"column:epn"       json:"epn,omitempty"`
	TfbDdMode             *string `gorm:"type:varchar(64)" json:"tfb_dd_mode,omitempty"`
	PdpWorkflowParameters *string `gorm:"type:text"        json:"pdp_workflow_parameters,omitempty"`
	PdpBeamType           *string `gorm:"type:varchar(64)" json:"pdp_beam_type,omitempty"`
	ReadoutCfgURI         *string `gorm:"column:readout_cfg_uri;type:text" json:"readout_cfg_uri,omitempty"`
	LhcBeamMode           *string `gorm:"type:varchar(64)" json:"lhc_beam_mode,omitempty"`
	RunTypeID             *int64  `                        json:"run_type_id,omitempty"`
	FillNumber            *int64  `                        json:"fill_number,omitempty"`
	BaseModel

	// 关联
	RunType    *RunType      `gorm:"foreignKey:RunTypeID"                     json:"run_type,omitempty"`
	LhcFill    *LhcFill      `gorm:"foreignKey:FillNumber;references:FillNumber" json:"lhc_fill,omitempty"`
	EorReasons []EorReason   `gorm:"foreignKey:RunID"                         json:"eor_reasons,omitempty"`
	Detectors  []RunDetector `gorm:"foreignKey:RunNumber;references:RunNumber" json:"detectors,omitempty"`
	Logs       []Log         `gorm:"many2many:log_runs;joinForeignKey:RunID;joinReferences:LogID" json:"logs,omitempty"`

	// Definition 运行分类，由服务层计算，不落库
	Definition string `gorm:"-" json:"definition,omitempty"`
}

// TableName 指定表名
func (Run) TableName() string { return "runs" }

// StartTime 返回触发开始时间，缺失时回退到 O2 开始时间
func (r *Run) StartTime() *time.Time {
	if r.TimeTrgStart != nil {
		return r.TimeTrgStart
	}
	return r.TimeO2Start
}

// EndTime 返回触发结束时间，缺失时回退到 O2 结束时间
func (r *Run) EndTime() *time.Time {
	if r.TimeTrgEnd != nil {
		return r.TimeTrgEnd
	}
	return r.TimeO2End
}
