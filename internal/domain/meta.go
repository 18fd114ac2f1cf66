package domain

// VehicleMeta 是从文章 URL 与 slug 推断出的车辆元数据。
//
// 约束：
// - Make/Model 已做大小写规范化；URL 段缺失时为 "Unknown"
// - Year 为空表示未知（slug 不以 4 位年份开头）
type VehicleMeta struct {
	Make  string
	Model string
	Year  string
}

// HasYear 报告是否解析到了年份。
func (m VehicleMeta) HasYear() bool { return m.Year != "" }
